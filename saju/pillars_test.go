package saju_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/saju-engine/saju"
)

// =============================================================================
// FIXED-POINT REGRESSIONS
// =============================================================================

func TestDayPillar_Anchors(t *testing.T) {
	assert.Equal(t, "庚子", saju.DayPillar(1999, 12, 14).Hanja())
	assert.Equal(t, "己巳", saju.DayPillar(1982, 4, 16).Hanja())
}

func TestDayPillar_PeriodSixty(t *testing.T) {
	d := time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2000; i++ {
		a := saju.DayPillar(d.Year(), int(d.Month()), d.Day())
		e := d.AddDate(0, 0, 60)
		b := saju.DayPillar(e.Year(), int(e.Month()), e.Day())
		require.Equal(t, a, b, d.Format("2006-01-02"))
		n := d.AddDate(0, 0, 1)
		require.Equal(t, a.Shift(1), saju.DayPillar(n.Year(), int(n.Month()), n.Day()))
		d = n
	}
}

// Birth charts as written in reading order (hour, day, month, year). The
// times are Seoul wall clock, read in local mean solar time.
func TestFourPillars_Fixtures(t *testing.T) {
	seoul := saju.NewCalculator(saju.WithSolarTimeOffset(-32))
	plain := saju.NewCalculator()

	cases := []struct {
		name     string
		calc     *saju.Calculator
		moment   saju.BirthMoment
		stems    string
		branches string
	}{
		{"1954-08-23 12:33", seoul, saju.NewSolarMoment(1954, 8, 23, 12, 33), "갑신임갑", "오해신오"},
		{"1962-03-04 01:25", seoul, saju.NewSolarMoment(1962, 3, 4, 1, 25), "무신임임", "자축인인"},
		// The recorded 17:25 only reproduces as the morning reading.
		{"1972-09-16 05:25", plain, saju.NewSolarMoment(1972, 9, 16, 5, 25), "기경기임", "묘술유자"},
		{"1988-06-03 08:32", seoul, saju.NewSolarMoment(1988, 6, 3, 8, 32), "무기정무", "진축사진"},
		{"1993-10-12 03:40", seoul, saju.NewSolarMoment(1993, 10, 12, 3, 40), "경병임계", "인인술유"},
		{"2000-03-07 12:34", seoul, saju.NewSolarMoment(2000, 3, 7, 12, 34), "경갑기경", "오자묘진"},
		{"2000-03-07 12:34 uncorrected", plain, saju.NewSolarMoment(2000, 3, 7, 12, 34), "경갑기경", "오자묘진"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fp, err := tc.calc.FourPillars(tc.moment)
			require.NoError(t, err)
			assert.Equal(t, tc.stems, fp.StemsKorean())
			assert.Equal(t, tc.branches, fp.BranchesKorean())
		})
	}
}

func TestFourPillars_1972DayYearMonthFromAfternoon(t *testing.T) {
	// GIVEN: the 1972 fixture at its recorded 17:25
	// THEN: year, month and day pillars still match; only the hour differs
	fp, err := saju.NewCalculator().FourPillars(saju.NewSolarMoment(1972, 9, 16, 17, 25))
	require.NoError(t, err)
	assert.Equal(t, "壬子", fp.Year.Hanja())
	assert.Equal(t, "己酉", fp.Month.Hanja())
	assert.Equal(t, "庚戌", fp.Day.Hanja())
	assert.Equal(t, "乙酉", fp.Hour.Hanja())
}

// =============================================================================
// RULES
// =============================================================================

func TestNightZi_DayPillarEqualsNextMidnight(t *testing.T) {
	calc := saju.NewCalculator()
	moments := []saju.BirthMoment{
		saju.NewSolarMoment(1999, 12, 31, 23, 0),
		saju.NewSolarMoment(2024, 2, 28, 23, 45),
		saju.NewSolarMoment(1988, 6, 3, 23, 59),
	}
	for _, m := range moments {
		late, err := calc.Compute(context.Background(), m)
		require.NoError(t, err)
		n := m.NextDay()
		next, err := calc.FourPillars(saju.NewSolarMoment(n.Year, n.Month, n.Day, 0, 0))
		require.NoError(t, err)

		assert.True(t, late.NightZi, m.String())
		assert.Equal(t, next.Day, late.Pillars.Day, m.String())
		assert.Equal(t, next.Hour, late.Pillars.Hour, m.String())
	}
}

func TestNightZi_Disabled(t *testing.T) {
	m := saju.NewSolarMoment(1999, 12, 13, 23, 30)
	fp, err := saju.NewCalculator(saju.WithNightZi(false)).FourPillars(m)
	require.NoError(t, err)
	assert.Equal(t, "己亥", fp.Day.Hanja())

	fp, err = saju.NewCalculator().FourPillars(m)
	require.NoError(t, err)
	assert.Equal(t, "庚子", fp.Day.Hanja())
}

func TestHourBranch_Bins(t *testing.T) {
	want := []saju.Branch{
		saju.Ja, saju.Chuk, saju.Chuk, saju.In, saju.In, saju.Myo, saju.Myo, saju.Jin,
		saju.Jin, saju.Sa, saju.Sa, saju.O, saju.O, saju.Mi, saju.Mi, saju.Shin,
		saju.Shin, saju.Yu, saju.Yu, saju.Sul, saju.Sul, saju.Hae, saju.Hae, saju.Ja,
	}
	for h, b := range want {
		assert.Equal(t, b, saju.HourBranch(h), "hour %d", h)
	}
}

func TestHourPillar_FiveRats(t *testing.T) {
	// 甲/己 days start 子 hour at 甲子, 乙/庚 at 丙子, 丙/辛 at 戊子,
	// 丁/壬 at 庚子, 戊/癸 at 壬子.
	starts := map[saju.Stem]string{
		saju.Gap: "甲子", saju.Gi: "甲子",
		saju.Eul: "丙子", saju.Gyeong: "丙子",
		saju.Byeong: "戊子", saju.Sin: "戊子",
		saju.Jeong: "庚子", saju.Im: "庚子",
		saju.Mu: "壬子", saju.Gye: "壬子",
	}
	for s, want := range starts {
		assert.Equal(t, want, saju.HourPillar(s, 0).Hanja(), s.Hanja())
	}
	assert.Equal(t, "己卯", saju.HourPillar(saju.Gyeong, 5).Hanja())
}

func TestMonthPillar_FiveTigers(t *testing.T) {
	starts := map[saju.Stem]string{
		saju.Gap: "丙寅", saju.Gi: "丙寅",
		saju.Eul: "戊寅", saju.Gyeong: "戊寅",
		saju.Byeong: "庚寅", saju.Sin: "庚寅",
		saju.Jeong: "壬寅", saju.Im: "壬寅",
		saju.Mu: "甲寅", saju.Gye: "甲寅",
	}
	for s, want := range starts {
		assert.Equal(t, want, saju.MonthPillar(s, 0).Hanja(), s.Hanja())
	}
	assert.Equal(t, "丁丑", saju.MonthPillar(saju.Gap, 11).Hanja())
}

func TestYearPillar(t *testing.T) {
	assert.Equal(t, "甲子", saju.YearPillar(1984).Hanja())
	assert.Equal(t, "庚辰", saju.YearPillar(2000).Hanja())
	assert.Equal(t, "庚子", saju.YearPillar(1900).Hanja())
	assert.Equal(t, "甲辰", saju.YearPillar(2024).Hanja())
}

func TestFourPillars_YearChangesAtLichun(t *testing.T) {
	calc := saju.NewCalculator()

	before, err := calc.FourPillars(saju.NewSolarMoment(2024, 2, 4, 17, 0))
	require.NoError(t, err)
	after, err := calc.FourPillars(saju.NewSolarMoment(2024, 2, 4, 18, 0))
	require.NoError(t, err)

	assert.Equal(t, "癸卯", before.Year.Hanja())
	assert.Equal(t, "乙丑", before.Month.Hanja())
	assert.Equal(t, "甲辰", after.Year.Hanja())
	assert.Equal(t, "丙寅", after.Month.Hanja())
}

func TestFourPillars_Idempotent(t *testing.T) {
	calc := saju.NewCalculator(saju.WithSolarTimeOffset(-32))
	m := saju.NewSolarMoment(1993, 10, 12, 3, 40)

	first, err := calc.Compute(context.Background(), m)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := calc.Compute(context.Background(), m)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("reading changed between runs (-first +again):\n%s", diff)
		}
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestCalculator_Errors(t *testing.T) {
	calc := saju.NewCalculator()

	_, err := calc.FourPillars(saju.NewSolarMoment(1850, 1, 1, 0, 0))
	assert.ErrorIs(t, err, saju.ErrInvalidInput)

	_, err = calc.FourPillars(saju.NewSolarMoment(2023, 2, 30, 0, 0))
	assert.ErrorIs(t, err, saju.ErrNotFound)

	lunar := saju.BirthMoment{Year: 2000, Month: 1, Day: 1, IsSolar: false}
	_, err = calc.FourPillars(lunar)
	assert.ErrorIs(t, err, saju.ErrUnconfigured)
}
