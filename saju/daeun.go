/*
daeun.go - Decade luck (대운) and annual luck (세운)

PURPOSE:
  Projects ten contiguous 10-year luck periods from the month pillar, and
  one pillar per Gregorian year for annual luck.

DAEUN RULES:
  Direction:  forward iff (male) == (year stem is yang).
  Start age:  ceil(days to the adjacent entering term / 3), clamped to
              [3, 8]; the next term when forward, the previous when backward.
              When no term distance is available the start age falls back to
              5 (forward) or 4 (backward). The fallback is an approximation.
  Sequence:   period i (0..9) holds month pillar ±(i+1), ages
              [start+10i, start+10i+9], years birthYear+ages.

SAEUN RULES:
  offset year-1900 from 庚子, one pillar per Gregorian year. This does not
  follow the 입춘 boundary the year pillar uses; a January birth's saeun for
  its own year can differ from its year pillar.

SEE ALSO:
  - solarterm.go: Term instants used for the start age
  - almanac.go: Almanac-based term distance
*/
package saju

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Daeun sizing.
const (
	DaeunPeriods    = 10
	DaeunSpan       = 10
	MinDaeunStart   = 3
	MaxDaeunStart   = 8
	FallbackForward = 5
	FallbackReverse = 4
)

// TermDistance is the distance from birth to the term the start age counts to.
type TermDistance struct {
	Term   string          // Korean term name, empty if the source has none
	At     time.Time       // boundary instant
	Days   decimal.Decimal // non-negative fractional days
	Source string          // "solar-terms" or "almanac"
}

// DaeunPeriod is one decade of luck.
type DaeunPeriod struct {
	StartAge  int
	EndAge    int
	StartYear int
	EndYear   int
	Pillar    Pillar
}

// Ages returns [StartAge, EndAge].
func (p DaeunPeriod) Ages() Span { return Span{From: p.StartAge, To: p.EndAge} }

// Years returns [StartYear, EndYear].
func (p DaeunPeriod) Years() Span { return Span{From: p.StartYear, To: p.EndYear} }

// DaeunList is exactly DaeunPeriods contiguous periods.
type DaeunList struct {
	Gender    Gender
	Forward   bool
	StartAge  int
	BirthYear int
	Precise   bool          // false when the fallback start age was used
	Distance  *TermDistance // nil when Precise is false
	Periods   []DaeunPeriod
}

// CurrentDaeun is the period containing an age.
type CurrentDaeun struct {
	Period  DaeunPeriod
	Index   int
	YearsIn int // 1-based year within the period
}

// At returns the period containing age, if any.
func (l DaeunList) At(age int) (CurrentDaeun, bool) {
	for i, p := range l.Periods {
		if p.Ages().Contains(age) {
			return CurrentDaeun{Period: p, Index: i, YearsIn: age - p.StartAge + 1}, true
		}
	}
	return CurrentDaeun{}, false
}

// Until returns the periods that start at or before maxAge. maxAge <= 0
// returns all of them.
func (l DaeunList) Until(maxAge int) []DaeunPeriod {
	if maxAge <= 0 {
		return l.Periods
	}
	var out []DaeunPeriod
	for _, p := range l.Periods {
		if p.StartAge <= maxAge {
			out = append(out, p)
		}
	}
	return out
}

// DaeunForward reports the direction of the sequence.
func DaeunForward(g Gender, yearStem Stem) bool {
	return (g == Male) == yearStem.IsYang()
}

// StartAgeFromDays applies ceil(days/3) clamped to [3, 8].
func StartAgeFromDays(days decimal.Decimal) int {
	age := int(days.Div(decimal.NewFromInt(3)).Ceil().IntPart())
	if age < MinDaeunStart {
		return MinDaeunStart
	}
	if age > MaxDaeunStart {
		return MaxDaeunStart
	}
	return age
}

// FallbackStartAge is used when no term distance is available.
func FallbackStartAge(forward bool) int {
	if forward {
		return FallbackForward
	}
	return FallbackReverse
}

// BuildDaeun lays out the ten periods from the month pillar.
func BuildDaeun(fp FourPillars, birthYear int, g Gender, startAge int) (DaeunList, error) {
	base, err := GapJa.OffsetFromPillar(fp.Month)
	if err != nil {
		return DaeunList{}, &MalformedDataError{Field: "month pillar", Raw: fp.Month.Hanja(), Err: err}
	}
	forward := DaeunForward(g, fp.Year.Stem)
	step := 1
	if !forward {
		step = -1
	}

	periods := make([]DaeunPeriod, DaeunPeriods)
	for i := range periods {
		lo := startAge + DaeunSpan*i
		periods[i] = DaeunPeriod{
			StartAge:  lo,
			EndAge:    lo + DaeunSpan - 1,
			StartYear: birthYear + lo,
			EndYear:   birthYear + lo + DaeunSpan - 1,
			Pillar:    GapJa.PillarFromOffset(base + step*(i+1)),
		}
	}
	return DaeunList{
		Gender:    g,
		Forward:   forward,
		StartAge:  startAge,
		BirthYear: birthYear,
		Periods:   periods,
	}, nil
}

// termDistanceFromTerms measures to the adjacent entering term computed by
// the solar-term formulas. ok is false when no such term exists.
func termDistanceFromTerms(birth time.Time, forward bool) (dist *TermDistance, ok bool) {
	var term SolarTerm
	if forward {
		term = nextTerm(birth, true)
		ok = !term.Time.IsZero()
	} else {
		term, ok = latestTerm(birth, true)
	}
	if !ok {
		return nil, false
	}
	days := DaysBetween(birth, term.Time).Abs()
	return &TermDistance{Term: term.Name, At: term.Time, Days: days, Source: "solar-terms"}, true
}

// daeunStartAge picks the start age for a measured distance, or the fallback when
// there is none.
func daeunStartAge(dist *TermDistance, forward bool) int {
	if dist == nil {
		return FallbackStartAge(forward)
	}
	return StartAgeFromDays(dist.Days)
}

// Daeun computes the decade luck list on the formula path; the start age
// comes from computed term instants.
func (c *Calculator) Daeun(ctx context.Context, m BirthMoment, g Gender) (DaeunList, error) {
	r, err := c.Compute(ctx, m)
	if err != nil {
		return DaeunList{}, err
	}
	forward := DaeunForward(g, r.Pillars.Year.Stem)
	dist, _ := termDistanceFromTerms(r.Effective.Time(), forward)
	list, err := BuildDaeun(r.Pillars, r.Effective.Year, g, daeunStartAge(dist, forward))
	if err != nil {
		return DaeunList{}, err
	}
	list.Precise, list.Distance = dist != nil, dist
	return list, nil
}

// Daeun computes the decade luck list from almanac pillars. The start age
// uses the almanac's month-pillar changes; when none are found around the
// birth date it uses the computed solar terms, and only then the fallback.
func (a *AlmanacCalculator) Daeun(ctx context.Context, m BirthMoment, g Gender) (DaeunList, error) {
	r, err := a.Compute(ctx, m)
	if err != nil {
		return DaeunList{}, err
	}
	forward := DaeunForward(g, r.Pillars.Year.Stem)
	birth := r.Effective.Time()

	dist, err := a.termDistance(ctx, birth, forward)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		var ok bool
		if dist, ok = termDistanceFromTerms(birth, forward); ok {
			a.logger.Debug("no almanac term boundary near birth, using computed solar terms",
				zap.Stringer("moment", m))
		} else {
			a.logger.Warn("no term boundary near birth, using fallback daeun start age",
				zap.Stringer("moment", m))
		}
	default:
		return DaeunList{}, fmt.Errorf("daeun start age: %w", err)
	}

	list, err := BuildDaeun(r.Pillars, r.Effective.Year, g, daeunStartAge(dist, forward))
	if err != nil {
		return DaeunList{}, err
	}
	list.Precise, list.Distance = dist != nil, dist
	return list, nil
}

// =============================================================================
// SAEUN
// =============================================================================

// Saeun is the annual luck pillar of one Gregorian year.
type Saeun struct {
	Year   int
	Pillar Pillar
	Age    int // Korean count age (year-birthYear+1); 0 if no birth year given
}

// MaxSaeunRange bounds a single range request.
const MaxSaeunRange = 200

// SaeunPillar returns the annual pillar of a Gregorian year.
func SaeunPillar(year int) Pillar {
	return SaeunEpoch.PillarAt(year)
}

// SaeunRange lists annual pillars for [from, to]. birthYear 0 leaves Age unset.
func SaeunRange(from, to, birthYear int) ([]Saeun, error) {
	for _, y := range []int{from, to} {
		if y < MinYear || y > MaxYear {
			return nil, &InputError{Field: "year", Value: y, Min: MinYear, Max: MaxYear}
		}
	}
	if from > to {
		return nil, fmt.Errorf("%w: saeun range %d > %d", ErrInvalidInput, from, to)
	}
	if to-from+1 > MaxSaeunRange {
		return nil, fmt.Errorf("%w: saeun range longer than %d years", ErrInvalidInput, MaxSaeunRange)
	}
	out := make([]Saeun, 0, to-from+1)
	for y := from; y <= to; y++ {
		s := Saeun{Year: y, Pillar: SaeunPillar(y)}
		if birthYear > 0 {
			s.Age = y - birthYear + 1
		}
		out = append(out, s)
	}
	return out, nil
}
