package saju_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/saju-engine/saju"
)

func TestJDN_KnownValues(t *testing.T) {
	assert.Equal(t, 2451545, saju.JDN(2000, 1, 1))
	assert.Equal(t, 2451527, saju.JDN(1999, 12, 14))
	assert.Equal(t, 2415021, saju.JDN(1900, 1, 1))
}

func TestJDN_ContiguousAcrossSupportedRange(t *testing.T) {
	// GIVEN: every civil day from 1900-01-01 to 2100-12-31
	// THEN: each JDN is exactly one more than the previous day's
	d := time.Date(saju.MinYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(saju.MaxYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	prev := saju.JDN(d.Year(), int(d.Month()), d.Day())
	for d = d.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		cur := saju.JDN(d.Year(), int(d.Month()), d.Day())
		if cur != prev+1 {
			t.Fatalf("JDN(%s) = %d, previous %d", d.Format("2006-01-02"), cur, prev)
		}
		prev = cur
	}
}

func TestBirthMoment_Validate(t *testing.T) {
	require.NoError(t, saju.NewSolarMoment(1900, 1, 1, 0, 0).Validate())
	require.NoError(t, saju.NewSolarMoment(2100, 12, 31, 23, 59).Validate())

	cases := []struct {
		name  string
		m     saju.BirthMoment
		field string
	}{
		{"year too early", saju.NewSolarMoment(1899, 12, 31, 0, 0), "year"},
		{"year too late", saju.NewSolarMoment(2101, 1, 1, 0, 0), "year"},
		{"month 13", saju.NewSolarMoment(2000, 13, 1, 0, 0), "month"},
		{"day 0", saju.NewSolarMoment(2000, 1, 0, 0, 0), "day"},
		{"day 32", saju.NewSolarMoment(2000, 1, 32, 0, 0), "day"},
		{"hour 24", saju.NewSolarMoment(2000, 1, 1, 24, 0), "hour"},
		{"minute 60", saju.NewSolarMoment(2000, 1, 1, 0, 60), "minute"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate()
			require.Error(t, err)
			assert.True(t, saju.IsClientError(err))

			var ie *saju.InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tc.field, ie.Field)
		})
	}
}

func TestBirthMoment_NextDayRollsOver(t *testing.T) {
	cases := []struct {
		in, want saju.BirthMoment
	}{
		{saju.NewSolarMoment(2023, 12, 31, 23, 30), saju.NewSolarMoment(2024, 1, 1, 23, 30)},
		{saju.NewSolarMoment(2024, 2, 28, 23, 0), saju.NewSolarMoment(2024, 2, 29, 23, 0)},
		{saju.NewSolarMoment(2023, 2, 28, 23, 0), saju.NewSolarMoment(2023, 3, 1, 23, 0)},
		{saju.NewSolarMoment(2000, 4, 30, 23, 59), saju.NewSolarMoment(2000, 5, 1, 23, 59)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.NextDay(), tc.in.String())
	}
}

func TestBirthMoment_CheckCalendarDate(t *testing.T) {
	assert.NoError(t, saju.NewSolarMoment(2024, 2, 29, 0, 0).CheckCalendarDate())

	err := saju.NewSolarMoment(2023, 2, 29, 0, 0).CheckCalendarDate()
	assert.True(t, saju.IsNotFound(err))
}

func TestBirthMoment_AddMinutesCrossesMidnight(t *testing.T) {
	m := saju.NewSolarMoment(2000, 1, 1, 0, 10).AddMinutes(-32)
	assert.Equal(t, saju.NewSolarMoment(1999, 12, 31, 23, 38), m)
}

func TestParseGender(t *testing.T) {
	g, err := saju.ParseGender("남")
	require.NoError(t, err)
	assert.Equal(t, saju.Male, g)

	g, err = saju.ParseGender("female")
	require.NoError(t, err)
	assert.Equal(t, saju.Female, g)

	_, err = saju.ParseGender("x")
	assert.ErrorIs(t, err, saju.ErrInvalidInput)
}

func TestSolarTimeOffset(t *testing.T) {
	assert.Equal(t, -32, saju.SolarTimeOffset(126.978))
	assert.Equal(t, 0, saju.SolarTimeOffset(135))

	off, err := saju.LocationOffset("부산")
	require.NoError(t, err)
	assert.Equal(t, -24, off)

	_, err = saju.LocationOffset("평양시내")
	assert.True(t, saju.IsNotFound(err))
	assert.Len(t, saju.Locations(), 20)
}
