package saju_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/saju-engine/saju"
)

func pillarNames(periods []saju.DaeunPeriod) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = p.Pillar.Hanja()
	}
	return out
}

// =============================================================================
// DAEUN
// =============================================================================

func TestDaeun_ForwardMale2000(t *testing.T) {
	// GIVEN: a 庚辰 (yang) year male, born two days after 경칩
	calc := saju.NewCalculator(saju.WithSolarTimeOffset(-32))

	// WHEN: computing decade luck
	list, err := calc.Daeun(context.Background(), saju.NewSolarMoment(2000, 3, 7, 12, 34), saju.Male)
	require.NoError(t, err)

	// THEN: forward from 己卯, counting 28 days to 청명
	assert.True(t, list.Forward)
	assert.True(t, list.Precise)
	require.NotNil(t, list.Distance)
	assert.Equal(t, "청명", list.Distance.Term)
	assert.Equal(t, 8, list.StartAge)
	assert.Equal(t, []string{"庚辰", "辛巳", "壬午", "癸未", "甲申", "乙酉", "丙戌", "丁亥", "戊子", "己丑"},
		pillarNames(list.Periods))

	first := list.Periods[0]
	assert.Equal(t, saju.Span{From: 8, To: 17}, first.Ages())
	assert.Equal(t, saju.Span{From: 2008, To: 2017}, first.Years())
}

func TestDaeun_BackwardFemale2000(t *testing.T) {
	calc := saju.NewCalculator(saju.WithSolarTimeOffset(-32))
	list, err := calc.Daeun(context.Background(), saju.NewSolarMoment(2000, 3, 7, 12, 34), saju.Female)
	require.NoError(t, err)

	assert.False(t, list.Forward)
	assert.Equal(t, "경칩", list.Distance.Term)
	assert.Equal(t, 3, list.StartAge)
	assert.Equal(t, []string{"戊寅", "丁丑", "丙子", "乙亥", "甲戌", "癸酉", "壬申", "辛未", "庚午", "己巳"},
		pillarNames(list.Periods))
	assert.Equal(t, 2003, list.Periods[0].StartYear)
	assert.Equal(t, 2012, list.Periods[0].EndYear)
}

func TestDaeun_DirectionTable(t *testing.T) {
	// 1993 is 癸酉 (yin): a woman runs forward. 1988 is 戊辰 (yang): a man runs forward.
	calc := saju.NewCalculator(saju.WithSolarTimeOffset(-32))

	list, err := calc.Daeun(context.Background(), saju.NewSolarMoment(1993, 10, 12, 3, 40), saju.Female)
	require.NoError(t, err)
	assert.True(t, list.Forward)
	assert.Equal(t, 8, list.StartAge)
	assert.Equal(t, "癸亥", list.Periods[0].Pillar.Hanja())

	list, err = calc.Daeun(context.Background(), saju.NewSolarMoment(1988, 6, 3, 8, 32), saju.Male)
	require.NoError(t, err)
	assert.True(t, list.Forward)
	assert.Equal(t, 3, list.StartAge)
	assert.Equal(t, "戊午", list.Periods[0].Pillar.Hanja())

	assert.False(t, saju.DaeunForward(saju.Male, saju.Gye))
	assert.False(t, saju.DaeunForward(saju.Female, saju.Gap))
}

func TestDaeun_PeriodsAreContiguousSteps(t *testing.T) {
	calc := saju.NewCalculator()
	for _, g := range []saju.Gender{saju.Male, saju.Female} {
		list, err := calc.Daeun(context.Background(), saju.NewSolarMoment(1962, 3, 4, 1, 25), g)
		require.NoError(t, err)
		require.Len(t, list.Periods, saju.DaeunPeriods)

		step := 1
		if !list.Forward {
			step = -1
		}
		for i, p := range list.Periods {
			assert.Equal(t, list.StartAge+10*i, p.StartAge)
			assert.Equal(t, p.StartAge+9, p.EndAge)
			if i > 0 {
				assert.Equal(t, list.Periods[i-1].Pillar.Shift(step), p.Pillar)
				assert.Equal(t, list.Periods[i-1].EndAge+1, p.StartAge)
			}
		}
		assert.GreaterOrEqual(t, list.StartAge, saju.MinDaeunStart)
		assert.LessOrEqual(t, list.StartAge, saju.MaxDaeunStart)
	}
}

func TestStartAgeFromDays(t *testing.T) {
	cases := map[string]int{
		"0":    3,
		"1.5":  3,
		"9":    3,
		"9.01": 4,
		"10.5": 4,
		"21":   7,
		"23.9": 8,
		"30":   8,
	}
	for days, want := range cases {
		assert.Equal(t, want, saju.StartAgeFromDays(decimal.RequireFromString(days)), days)
	}
	assert.Equal(t, 5, saju.FallbackStartAge(true))
	assert.Equal(t, 4, saju.FallbackStartAge(false))
}

func TestBuildDaeun_RejectsInvalidMonthPillar(t *testing.T) {
	fp := saju.FourPillars{Month: saju.Pillar{Stem: saju.Gap, Branch: saju.Chuk}}
	_, err := saju.BuildDaeun(fp, 2000, saju.Male, 5)
	assert.ErrorIs(t, err, saju.ErrMalformedUpstreamData)
	assert.ErrorIs(t, err, saju.ErrInvalidPillarCombination)
}

func TestDaeunList_AtAndUntil(t *testing.T) {
	fp := saju.FourPillars{
		Year:  saju.MustParsePillar("庚辰"),
		Month: saju.MustParsePillar("己卯"),
	}
	list, err := saju.BuildDaeun(fp, 2000, saju.Male, 8)
	require.NoError(t, err)

	cur, ok := list.At(25)
	require.True(t, ok)
	assert.Equal(t, 1, cur.Index)
	assert.Equal(t, "辛巳", cur.Period.Pillar.Hanja())
	assert.Equal(t, 8, cur.YearsIn)

	_, ok = list.At(5)
	assert.False(t, ok)
	_, ok = list.At(108)
	assert.False(t, ok)

	assert.Len(t, list.Until(30), 3)
	assert.Len(t, list.Until(0), 10)
	assert.Len(t, list.Until(2), 0)
}

// =============================================================================
// SAEUN
// =============================================================================

func TestSaeunPillar(t *testing.T) {
	assert.Equal(t, "庚子", saju.SaeunPillar(1900).Hanja())
	assert.Equal(t, "甲子", saju.SaeunPillar(1984).Hanja())
	assert.Equal(t, "甲辰", saju.SaeunPillar(2024).Hanja())
	assert.Equal(t, "乙巳", saju.SaeunPillar(2025).Hanja())
}

func TestSaeunRange(t *testing.T) {
	list, err := saju.SaeunRange(2024, 2033, 2000)
	require.NoError(t, err)
	require.Len(t, list, 10)
	assert.Equal(t, 25, list[0].Age)
	for i := 1; i < len(list); i++ {
		assert.Equal(t, list[i-1].Pillar.Shift(1), list[i].Pillar)
		assert.Equal(t, list[i-1].Year+1, list[i].Year)
	}

	list, err = saju.SaeunRange(2024, 2024, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, list[0].Age)

	_, err = saju.SaeunRange(2030, 2020, 0)
	assert.ErrorIs(t, err, saju.ErrInvalidInput)
	_, err = saju.SaeunRange(1900, 2200, 0)
	assert.ErrorIs(t, err, saju.ErrInvalidInput)

	// Years outside the supported range are rejected with the field named.
	_, err = saju.SaeunRange(-5, -5, 0)
	var ie *saju.InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "year", ie.Field)
	assert.Equal(t, -5, ie.Value)
	_, err = saju.SaeunRange(1800, 1810, 0)
	assert.ErrorIs(t, err, saju.ErrInvalidInput)
}
