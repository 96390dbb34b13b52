/*
almanac.go - Almanac-backed pillar computation

PURPOSE:
  The almanac (만세력) is an external, read-only table with one row per
  solar date holding precomputed year/month/day pillars and descriptive
  fields. When one is wired, its year/month/day pillars are ground truth;
  the hour pillar is always computed locally from the almanac's day stem.

DESIGN:
  Two constructible forms instead of a nullable data source:
    Calculator          formulas only, never touches I/O
    AlmanacCalculator   requires a CalendarDataSource, wraps a Calculator
  Operations that need the almanac live only on AlmanacCalculator, so the
  capability is visible in the type.

LOOKUP POLICY:
  At most one lookup per logical pillar query, no retries. A missing row
  is ErrNotFound; an undecodable ganzhi is ErrMalformedUpstreamData.

SEE ALSO:
  - pillars.go: The formula path
  - store/memory.go, store/sqlite: CalendarDataSource implementations
*/
package saju

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// ALMANAC DATA
// =============================================================================

// PillarType selects which ganzhi column a query matches.
type PillarType string

const (
	PillarYear  PillarType = "year"
	PillarMonth PillarType = "month"
	PillarDay   PillarType = "day"
)

// ParsePillarType validates a pillar type string.
func ParsePillarType(v string) (PillarType, error) {
	switch PillarType(v) {
	case PillarYear, PillarMonth, PillarDay:
		return PillarType(v), nil
	}
	return "", fmt.Errorf("%w: unknown pillar type %q", ErrInvalidInput, v)
}

// AlmanacEntry is one almanac row. Pillar strings are kept verbatim; use
// the Pillar accessors to decode them.
type AlmanacEntry struct {
	ID int64

	SolarYear  int
	SolarMonth int
	SolarDay   int

	LunarYear      int
	LunarMonth     int
	LunarDay       int
	LunarLeapMonth bool

	YearGanzhiHanja   string // 甲子
	YearGanzhiKorean  string // 갑자
	MonthGanzhiHanja  string
	MonthGanzhiKorean string
	DayGanzhiHanja    string
	DayGanzhiKorean   string

	WeekdayHanja  string // 日月火水木金土
	WeekdayKorean string
	Constellation string // one of the 28 lunar mansions
	MoonPhase     string

	SolarTermHanja  string // set only on boundary days
	SolarTermKorean string
	SolarTermTime   string // "HH:MM" KST

	Holiday bool
}

// SolarDate is the row's date at midnight KST.
func (e *AlmanacEntry) SolarDate() time.Time {
	return time.Date(e.SolarYear, time.Month(e.SolarMonth), e.SolarDay, 0, 0, 0, 0, KST)
}

// SolarDateString formats the row's date as YYYY-MM-DD.
func (e *AlmanacEntry) SolarDateString() string {
	return fmt.Sprintf("%04d-%02d-%02d", e.SolarYear, e.SolarMonth, e.SolarDay)
}

func (e *AlmanacEntry) YearPillar() (Pillar, error) {
	return decodeGanzhi("year ganzhi", e.YearGanzhiHanja, e.YearGanzhiKorean)
}

func (e *AlmanacEntry) MonthPillar() (Pillar, error) {
	return decodeGanzhi("month ganzhi", e.MonthGanzhiHanja, e.MonthGanzhiKorean)
}

func (e *AlmanacEntry) DayPillar() (Pillar, error) {
	return decodeGanzhi("day ganzhi", e.DayGanzhiHanja, e.DayGanzhiKorean)
}

// Zodiac is the animal of the row's year branch.
func (e *AlmanacEntry) Zodiac() string {
	p, err := e.YearPillar()
	if err != nil {
		return ""
	}
	return p.Branch.Animal()
}

// SolarTermInstant returns the boundary instant if the row carries one.
func (e *AlmanacEntry) SolarTermInstant() (time.Time, bool) {
	if e.SolarTermKorean == "" && e.SolarTermHanja == "" {
		return time.Time{}, false
	}
	d := e.SolarDate()
	if hm, err := time.Parse("15:04", strings.TrimSpace(e.SolarTermTime)); err == nil {
		return d.Add(time.Duration(hm.Hour())*time.Hour + time.Duration(hm.Minute())*time.Minute), true
	}
	return d, true
}

// decodeGanzhi prefers the hanja column and cross-checks the Korean one.
func decodeGanzhi(field, hanja, korean string) (Pillar, error) {
	if hanja == "" && korean == "" {
		return Pillar{}, &MalformedDataError{Field: field, Raw: ""}
	}
	if hanja == "" {
		return ParsePillar(korean)
	}
	p, err := ParsePillar(hanja)
	if err != nil {
		return Pillar{}, err
	}
	if korean != "" && strings.TrimSpace(korean) != p.Korean() {
		return Pillar{}, &MalformedDataError{Field: field, Raw: hanja + "/" + korean}
	}
	return p, nil
}

// EntryFor builds the almanac row the formulas predict for a solar date.
// Year and month pillars are those in effect at the end of the day, so a
// term day already carries the new month. Used to seed development
// almanacs; lunar and constellation fields are left empty.
func EntryFor(year, month, day int) AlmanacEntry {
	endOfDay := time.Date(year, time.Month(month), day, 23, 59, 0, 0, KST)
	yp := YearPillar(SajuYear(endOfDay))
	mp := MonthPillar(yp.Stem, SajuMonth(endOfDay))
	dp := DayPillar(year, month, day)
	wd := weekdayNames[endOfDay.Weekday()]

	e := AlmanacEntry{
		SolarYear: year, SolarMonth: month, SolarDay: day,
		YearGanzhiHanja: yp.Hanja(), YearGanzhiKorean: yp.Korean(),
		MonthGanzhiHanja: mp.Hanja(), MonthGanzhiKorean: mp.Korean(),
		DayGanzhiHanja: dp.Hanja(), DayGanzhiKorean: dp.Korean(),
		WeekdayHanja: wd[0], WeekdayKorean: wd[1],
	}
	dayStart := time.Date(year, time.Month(month), day, 0, 0, 0, 0, KST)
	for _, t := range SolarTermsBetween(dayStart, dayStart.AddDate(0, 0, 1)) {
		e.SolarTermHanja, e.SolarTermKorean = t.Hanja, t.Name
		e.SolarTermTime = t.Time.In(KST).Format("15:04")
	}
	return e
}

var weekdayNames = [7][2]string{
	{"日", "일"}, {"月", "월"}, {"火", "화"}, {"水", "수"}, {"木", "목"}, {"金", "금"}, {"土", "토"},
}

// =============================================================================
// DATA SOURCE
// =============================================================================

// CalendarDataSource is the read-only almanac lookup. Finders return
// (nil, nil) when no row matches; errors are reserved for I/O failures.
type CalendarDataSource interface {
	FindBySolarDate(ctx context.Context, year, month, day int) (*AlmanacEntry, error)
	FindByLunarDate(ctx context.Context, year, month, day int, leapMonth bool) (*AlmanacEntry, error)
	FindByYearMonth(ctx context.Context, year, month int) ([]AlmanacEntry, error)
	FindByGanzhi(ctx context.Context, ganzhi string, pillarType PillarType, limit int) ([]AlmanacEntry, error)
	FindByYearRange(ctx context.Context, fromYear, toYear int) ([]AlmanacEntry, error)
}

// MonthChangeFinder is implemented by sources that can locate month-pillar
// changes themselves (the SQL store does it with a window query). Returned
// rows are the first day of each new month pillar in [from, to], ascending.
type MonthChangeFinder interface {
	FindMonthPillarChanges(ctx context.Context, from, to time.Time) ([]AlmanacEntry, error)
}

// =============================================================================
// ALMANAC CALCULATOR
// =============================================================================

// AlmanacCalculator takes year/month/day pillars from the almanac and
// computes the hour pillar locally.
type AlmanacCalculator struct {
	source CalendarDataSource
	calc   *Calculator
	logger *zap.Logger
}

// NewAlmanacCalculator wires a data source. A nil source is ErrUnconfigured;
// a nil calc gets a default Calculator.
func NewAlmanacCalculator(source CalendarDataSource, calc *Calculator) (*AlmanacCalculator, error) {
	if source == nil {
		return nil, ErrUnconfigured
	}
	if calc == nil {
		calc = NewCalculator()
	}
	return &AlmanacCalculator{source: source, calc: calc, logger: calc.logger}, nil
}

// Source exposes the underlying almanac for direct queries.
func (a *AlmanacCalculator) Source() CalendarDataSource { return a.source }

// Calculator returns the wrapped formula calculator.
func (a *AlmanacCalculator) Calculator() *Calculator { return a.calc }

// With returns a copy whose calculator has extra options applied.
func (a *AlmanacCalculator) With(opts ...Option) *AlmanacCalculator {
	cp := *a
	cp.calc = a.calc.With(opts...)
	return &cp
}

// FourPillars is shorthand for Compute(ctx, m).Pillars.
func (a *AlmanacCalculator) FourPillars(ctx context.Context, m BirthMoment) (FourPillars, error) {
	r, err := a.Compute(ctx, m)
	if err != nil {
		return FourPillars{}, err
	}
	return r.Pillars, nil
}

// Compute resolves lunar input through the almanac, applies the solar-time
// offset, then reads year/month from the effective date's row and the day
// from the night-zi adjusted date's row.
func (a *AlmanacCalculator) Compute(ctx context.Context, m BirthMoment) (Reading, error) {
	if err := m.Validate(); err != nil {
		return Reading{}, err
	}

	solar := m
	if !m.IsSolar {
		entry, err := a.source.FindByLunarDate(ctx, m.Year, m.Month, m.Day, m.IsLeapMonth)
		if err != nil {
			return Reading{}, fmt.Errorf("lookup lunar date %s: %w", m.DateString(), err)
		}
		if entry == nil {
			return Reading{}, &NotFoundError{Kind: "lunar date", Key: m.String()}
		}
		solar = m.WithDate(entry.SolarYear, entry.SolarMonth, entry.SolarDay)
	}

	eff := a.calc.effective(solar)
	entry, err := a.lookupSolar(ctx, eff)
	if err != nil {
		return Reading{}, err
	}
	year, err := entry.YearPillar()
	if err != nil {
		return Reading{}, err
	}
	month, err := entry.MonthPillar()
	if err != nil {
		return Reading{}, err
	}

	dayMoment, nightZi := a.calc.dayMoment(eff)
	dayEntry := entry
	if nightZi {
		if dayEntry, err = a.lookupSolar(ctx, dayMoment); err != nil {
			return Reading{}, err
		}
	}
	day, err := dayEntry.DayPillar()
	if err != nil {
		return Reading{}, err
	}
	sajuYear, err := sajuYearOf(year, eff.Year)
	if err != nil {
		return Reading{}, err
	}

	r := Reading{
		Moment:        m,
		Effective:     eff,
		OffsetMinutes: a.calc.offsetMinutes,
		NightZi:       nightZi,
		SajuYear:      sajuYear,
		SajuMonth:     sajuMonthOf(month.Branch),
		Pillars: FourPillars{
			Year:  year,
			Month: month,
			Day:   day,
			Hour:  HourPillar(day.Stem, eff.Hour),
		},
		Almanac: entry,
	}
	a.logger.Debug("computed pillars from almanac",
		zap.Stringer("moment", m),
		zap.String("pillars", r.Pillars.Hanja()),
		zap.Int64("row", entry.ID))
	return r, nil
}

// sajuYearOf recovers the saju year named by an almanac year pillar: the
// Gregorian year or the one before it.
func sajuYearOf(p Pillar, gregorian int) (int, error) {
	for _, y := range []int{gregorian, gregorian - 1} {
		if YearPillar(y) == p {
			return y, nil
		}
	}
	return 0, &MalformedDataError{
		Field: "year pillar",
		Raw:   p.Hanja(),
		Err:   fmt.Errorf("names neither %d nor %d", gregorian, gregorian-1),
	}
}

// sajuMonthOf is the saju month index of a month branch (寅 = 0).
func sajuMonthOf(b Branch) int {
	return mod(int(b)-int(In), BranchCount)
}

func (a *AlmanacCalculator) lookupSolar(ctx context.Context, m BirthMoment) (*AlmanacEntry, error) {
	entry, err := a.source.FindBySolarDate(ctx, m.Year, m.Month, m.Day)
	if err != nil {
		return nil, fmt.Errorf("lookup solar date %s: %w", m.DateString(), err)
	}
	if entry == nil {
		return nil, &NotFoundError{Kind: "solar date", Key: m.DateString()}
	}
	return entry, nil
}

// FindByGanzhi lists almanac rows whose pillar of the given type matches.
// Hangul input is normalized to hanja before the query.
func (a *AlmanacCalculator) FindByGanzhi(ctx context.Context, ganzhi string, pt PillarType, limit int) ([]AlmanacEntry, error) {
	p, err := ParsePillar(ganzhi)
	if err != nil {
		return nil, fmt.Errorf("%w: ganzhi %q", ErrInvalidInput, ganzhi)
	}
	if limit <= 0 {
		limit = 10
	}
	return a.source.FindByGanzhi(ctx, p.Hanja(), pt, limit)
}

// =============================================================================
// TERM DISTANCE FROM ALMANAC
// =============================================================================

// termDistance measures the days from birth to the adjacent month-pillar
// change recorded in the almanac: the next one when forward, the previous
// one when backward.
func (a *AlmanacCalculator) termDistance(ctx context.Context, birth time.Time, forward bool) (*TermDistance, error) {
	from := birth.AddDate(0, 0, -45)
	to := birth.AddDate(0, 0, 45)

	var changes []AlmanacEntry
	if f, ok := a.source.(MonthChangeFinder); ok {
		var err error
		if changes, err = f.FindMonthPillarChanges(ctx, from, to); err != nil {
			return nil, err
		}
	} else {
		var err error
		if changes, err = scanMonthChanges(ctx, a.source, from, to); err != nil {
			return nil, err
		}
	}

	var pick *AlmanacEntry
	for i := range changes {
		at, _ := changes[i].boundary()
		if forward && at.After(birth) {
			pick = &changes[i]
			break
		}
		if !forward && !at.After(birth) {
			pick = &changes[i]
		}
	}
	if pick == nil {
		return nil, &NotFoundError{Kind: "solar term", Key: birth.Format("2006-01-02")}
	}
	at, _ := pick.boundary()
	days := DaysBetween(birth, at)
	if !forward {
		days = days.Neg()
	}
	return &TermDistance{Term: pick.SolarTermKorean, At: at, Days: days, Source: "almanac"}, nil
}

// boundary is the instant a month-pillar change row takes effect.
func (e *AlmanacEntry) boundary() (time.Time, bool) {
	if t, ok := e.SolarTermInstant(); ok {
		return t, true
	}
	return e.SolarDate(), false
}

// scanMonthChanges walks month-by-month rows and reports each day whose
// month pillar differs from the previous day's.
func scanMonthChanges(ctx context.Context, src CalendarDataSource, from, to time.Time) ([]AlmanacEntry, error) {
	var rows []AlmanacEntry
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, KST)
	for !cur.After(to) {
		month, err := src.FindByYearMonth(ctx, cur.Year(), int(cur.Month()))
		if err != nil {
			return nil, err
		}
		rows = append(rows, month...)
		cur = cur.AddDate(0, 1, 0)
	}

	var out []AlmanacEntry
	for i := 1; i < len(rows); i++ {
		if rows[i].MonthGanzhiHanja != rows[i-1].MonthGanzhiHanja {
			d := rows[i].SolarDate()
			if !d.Before(from) && !d.After(to) {
				out = append(out, rows[i])
			}
		}
	}
	return out, nil
}
