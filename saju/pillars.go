/*
pillars.go - Four pillars from a birth moment (formula path)

PURPOSE:
  Calculator turns a solar BirthMoment into FourPillars using only
  arithmetic: JDN for the day, solar terms for the year and month, the
  Five Tigers rule for month stems and the Five Rats rule for hour stems.
  It needs no external data and is the fallback for AlmanacCalculator.

RULES:
  Year:   offset sajuYear-1984 from 甲子.
  Month:  branch 寅..丑 by saju month; stem starts at
          甲己→丙, 乙庚→戊, 丙辛→庚, 丁壬→壬, 戊癸→甲 and advances one per month.
  Day:    offset JDN(date)-JDN(1999-12-14) from 庚子.
  Hour:   branch by two-hour bin (23:00-00:59 is 子); stem starts at
          甲己→甲, 乙庚→丙, 丙辛→戊, 丁壬→庚, 戊癸→壬 and advances one per branch.
  Night-zi: at 23:00 or later the date advances one day before the day
          and hour pillars are computed. Year and month are unaffected.

SEE ALSO:
  - almanac.go: AlmanacCalculator, which prefers almanac year/month/day
  - correction.go: True solar time adjustment applied before any rule
*/
package saju

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// =============================================================================
// FOUR PILLARS
// =============================================================================

// FourPillars is the immutable result of a birth-moment computation.
type FourPillars struct {
	Year  Pillar `json:"year"`
	Month Pillar `json:"month"`
	Day   Pillar `json:"day"`
	Hour  Pillar `json:"hour"`
}

// DayMaster is the day stem, the reference of every derived analysis.
func (fp FourPillars) DayMaster() Stem { return fp.Day.Stem }

// Ordered returns the pillars in reading order: hour, day, month, year.
func (fp FourPillars) Ordered() [4]Pillar {
	return [4]Pillar{fp.Hour, fp.Day, fp.Month, fp.Year}
}

// StemsKorean renders the four stems in reading order, e.g. "경갑기경".
func (fp FourPillars) StemsKorean() string {
	var b strings.Builder
	for _, p := range fp.Ordered() {
		b.WriteString(p.Stem.Korean())
	}
	return b.String()
}

// BranchesKorean renders the four branches in reading order, e.g. "오자묘진".
func (fp FourPillars) BranchesKorean() string {
	var b strings.Builder
	for _, p := range fp.Ordered() {
		b.WriteString(p.Branch.Korean())
	}
	return b.String()
}

// Hanja renders "年 月 日 時" pillars separated by spaces, year first.
func (fp FourPillars) Hanja() string {
	return fp.Year.Hanja() + " " + fp.Month.Hanja() + " " + fp.Day.Hanja() + " " + fp.Hour.Hanja()
}

// Reading is a computed chart with the moments it was derived from.
// SajuYear and SajuMonth always name the same year and month as Pillars: on
// the almanac path they are read back from the row's pillars, so a term day
// row that already carries the new month reports that month.
type Reading struct {
	Moment        BirthMoment // as supplied
	Effective     BirthMoment // solar, after true-solar-time correction
	OffsetMinutes int         // true-solar-time shift applied to Moment, 0 if off
	NightZi       bool        // the day advanced under the night-zi rule
	SajuYear      int
	SajuMonth     int
	Pillars       FourPillars
	Almanac       *AlmanacEntry // the row for Effective's date, nil on the formula path
}

// =============================================================================
// PURE PILLAR RULES
// =============================================================================

var monthBranches = [12]Branch{In, Myo, Jin, Sa, O, Mi, Shin, Yu, Sul, Hae, Ja, Chuk}

// Five Tigers: month-stem start indexed by year stem mod 5.
var monthStemStart = [5]Stem{Byeong, Mu, Gyeong, Im, Gap}

// Five Rats: hour-stem start indexed by day stem mod 5.
var hourStemStart = [5]Stem{Gap, Byeong, Mu, Gyeong, Im}

// YearPillar returns the pillar of a saju year.
func YearPillar(sajuYear int) Pillar {
	return YearEpoch.PillarAt(sajuYear)
}

// MonthBranch returns the branch of saju month 0..11.
func MonthBranch(sajuMonth int) Branch {
	return monthBranches[mod(sajuMonth, 12)]
}

// MonthPillar applies the Five Tigers rule.
func MonthPillar(yearStem Stem, sajuMonth int) Pillar {
	start := monthStemStart[int(yearStem)%5]
	return Pillar{
		Stem:   Stem(mod(int(start)+sajuMonth, StemCount)),
		Branch: MonthBranch(sajuMonth),
	}
}

// DayPillar returns the pillar of a civil date (no night-zi handling).
func DayPillar(year, month, day int) Pillar {
	return DayEpoch.PillarAt(JDN(year, month, day))
}

// HourBranch bins an hour 0..23 into its branch; 23 and 0 are both 子.
func HourBranch(hour int) Branch {
	if hour >= 23 || hour < 1 {
		return Ja
	}
	return Branch((hour + 1) / 2)
}

// HourPillar applies the Five Rats rule.
func HourPillar(dayStem Stem, hour int) Pillar {
	b := HourBranch(hour)
	start := hourStemStart[int(dayStem)%5]
	return Pillar{Stem: Stem(mod(int(start)+int(b), StemCount)), Branch: b}
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes pillars from formulas alone. The zero value is not
// usable; build one with NewCalculator. A Calculator is immutable and safe
// for concurrent use.
type Calculator struct {
	logger        *zap.Logger
	offsetMinutes int
	nightZi       bool
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSolarTimeOffset shifts every birth moment by n minutes before any
// rule applies (negative west of 135°E, e.g. -32 for Seoul). See correction.go.
func WithSolarTimeOffset(n int) Option {
	return func(c *Calculator) { c.offsetMinutes = n }
}

// WithNightZi toggles the night-zi day rollover (default on).
func WithNightZi(enabled bool) Option {
	return func(c *Calculator) { c.nightZi = enabled }
}

// NewCalculator builds a formula-only calculator.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{logger: zap.NewNop(), nightZi: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy with extra options applied, e.g. a per-request correction.
func (c *Calculator) With(opts ...Option) *Calculator {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// SolarTimeOffset reports the configured true-solar-time offset in minutes.
func (c *Calculator) SolarTimeOffset() int { return c.offsetMinutes }

// FourPillars is shorthand for Compute(m).Pillars.
func (c *Calculator) FourPillars(m BirthMoment) (FourPillars, error) {
	r, err := c.Compute(context.Background(), m)
	if err != nil {
		return FourPillars{}, err
	}
	return r.Pillars, nil
}

// Compute derives the full reading for a solar birth moment. Lunar input
// needs an almanac and fails with ErrUnconfigured.
func (c *Calculator) Compute(_ context.Context, m BirthMoment) (Reading, error) {
	if err := m.Validate(); err != nil {
		return Reading{}, err
	}
	if !m.IsSolar {
		return Reading{}, ErrUnconfigured
	}
	if err := m.CheckCalendarDate(); err != nil {
		return Reading{}, err
	}

	eff := c.effective(m)
	t := eff.Time()
	sy, sm := SajuYear(t), SajuMonth(t)

	year := YearPillar(sy)
	month := MonthPillar(year.Stem, sm)
	dayMoment, nightZi := c.dayMoment(eff)
	day := DayPillar(dayMoment.Year, dayMoment.Month, dayMoment.Day)
	hour := HourPillar(day.Stem, eff.Hour)

	r := Reading{
		Moment:        m,
		Effective:     eff,
		OffsetMinutes: c.offsetMinutes,
		NightZi:       nightZi,
		SajuYear:      sy,
		SajuMonth:     sm,
		Pillars:       FourPillars{Year: year, Month: month, Day: day, Hour: hour},
	}
	c.logger.Debug("computed pillars",
		zap.Stringer("moment", m),
		zap.String("pillars", r.Pillars.Hanja()),
		zap.Bool("night_zi", nightZi))
	return r, nil
}

// effective applies the true-solar-time correction.
func (c *Calculator) effective(m BirthMoment) BirthMoment {
	if c.offsetMinutes == 0 {
		return m
	}
	return m.AddMinutes(c.offsetMinutes)
}

// dayMoment applies the night-zi rollover.
func (c *Calculator) dayMoment(m BirthMoment) (BirthMoment, bool) {
	if c.nightZi && m.Hour >= 23 {
		return m.NextDay(), true
	}
	return m, false
}
