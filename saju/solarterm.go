/*
solarterm.go - The 24 solar terms and the saju year/month

PURPOSE:
  Computes the boundary instants of the 24 solar terms for any year in the
  supported range and derives the astrological ("saju") year and month
  from them. Terms are generated on demand; nothing is persisted.

ALGORITHM:
  A table of day offsets from 2024-01-01 00:00 KST, fitted to the 2024
  ephemeris instants, is shifted for the target year by the tropical-year
  drift: (Y-2024)*365.2422 elapsed days minus the calendar days actually
  elapsed between the two Jan 1 anchors (365 per year plus each Feb 29 in
  between). Offsets larger than the year length land in the following
  January, which is where 소한 (index 22) and 대한 (index 23) belong.

  The 2024 set matches the ephemeris to the minute. Because the real
  terms do not advance by a constant tropical year, the error grows away
  from 2024 to roughly two hours at 1900 and 2100. Births within that
  window of a boundary should be checked against the almanac.

KEY CONCEPTS:
  Entering term (節): the even-indexed terms 입춘, 경칩, ..., 소한. Each
                     starts a saju month; index/2 is the month index.
  Saju month:        0 (寅) .. 11 (丑), starting at 입춘.
  Saju year:         Gregorian year, minus one before that year's 입춘.

SEE ALSO:
  - pillars.go: Year and month pillars use SajuYear / SajuMonth
  - daeun.go: Start age uses the distance to the adjacent entering term
*/
package saju

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SolarTermCount is the number of terms per year.
const SolarTermCount = 24

var termNames = [SolarTermCount]string{
	"입춘", "우수", "경칩", "춘분", "청명", "곡우",
	"입하", "소만", "망종", "하지", "소서", "대서",
	"입추", "처서", "백로", "추분", "한로", "상강",
	"입동", "소설", "대설", "동지", "소한", "대한",
}

var termHanja = [SolarTermCount]string{
	"立春", "雨水", "驚蟄", "春分", "淸明", "穀雨",
	"立夏", "小滿", "芒種", "夏至", "小暑", "大暑",
	"立秋", "處暑", "白露", "秋分", "寒露", "霜降",
	"立冬", "小雪", "大雪", "冬至", "小寒", "大寒",
}

// Day offsets of each term from 2024-01-01 00:00 KST.
var termBaseOffsets2024 = [SolarTermCount]float64{
	34.7271, 49.5507, 64.4743, 79.5042, 94.6681, 109.9583,
	125.3819, 140.9167, 156.5486, 172.2438, 187.9722, 203.6972,
	219.3813, 234.9965, 250.5076, 265.9056, 281.1667, 296.3021,
	311.3056, 326.2056, 341.0118, 355.7646, 370.4813, 385.2083,
}

const (
	termBaseYear  = 2024
	tropicalYear  = 365.2422
	minutesPerDay = 24 * 60
)

// SolarTerm is one boundary instant.
type SolarTerm struct {
	Index      int       // 0 (입춘) .. 23 (대한)
	Name       string    // Korean name
	Hanja      string    // hanja name
	Year       int       // the year whose term set this belongs to
	Time       time.Time // KST instant, minute precision
	MonthIndex int       // saju month this term falls in, Index/2
}

// Entering reports whether the term starts a saju month.
func (t SolarTerm) Entering() bool { return t.Index%2 == 0 }

func (t SolarTerm) String() string {
	return fmt.Sprintf("%s(%s) %s", t.Name, t.Hanja, t.Time.Format("2006-01-02 15:04"))
}

// TermIndex returns the index of a term name (Korean or hanja).
func TermIndex(name string) (int, error) {
	for i := 0; i < SolarTermCount; i++ {
		if name == termNames[i] || name == termHanja[i] {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSolarTerm, name)
}

// =============================================================================
// TERM GENERATION
// =============================================================================

// SolarTermsForYear returns the 24 terms of a year, 입춘 first. The last
// two fall in January of year+1.
func SolarTermsForYear(year int) []SolarTerm {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, KST)
	drift := float64(year-termBaseYear)*tropicalYear - float64(calendarDaysSinceBase(year))

	terms := make([]SolarTerm, SolarTermCount)
	for i := range terms {
		minutes := math.Round((termBaseOffsets2024[i] + drift) * minutesPerDay)
		terms[i] = SolarTerm{
			Index:      i,
			Name:       termNames[i],
			Hanja:      termHanja[i],
			Year:       year,
			Time:       jan1.Add(time.Duration(minutes) * time.Minute),
			MonthIndex: i / 2,
		}
	}
	return terms
}

// calendarDaysSinceBase counts the civil days from Jan 1 of the base year
// to Jan 1 of year (negative for earlier years).
func calendarDaysSinceBase(year int) int {
	days := 365 * (year - termBaseYear)
	if year >= termBaseYear {
		for y := termBaseYear; y < year; y++ {
			if isLeap(y) {
				days++
			}
		}
	} else {
		for y := year; y < termBaseYear; y++ {
			if isLeap(y) {
				days--
			}
		}
	}
	return days
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// SolarTermByName returns one named term of a year.
func SolarTermByName(year int, name string) (SolarTerm, error) {
	i, err := TermIndex(name)
	if err != nil {
		return SolarTerm{}, err
	}
	return SolarTermsForYear(year)[i], nil
}

// LichunOf returns the 입춘 instant, the start of the saju year.
func LichunOf(year int) time.Time {
	return SolarTermsForYear(year)[0].Time
}

// SolarTermsBetween returns every term with start <= Time < end, ascending.
func SolarTermsBetween(start, end time.Time) []SolarTerm {
	if !start.Before(end) {
		return nil
	}
	var out []SolarTerm
	// Term sets of year Y reach into January of Y+1.
	for y := start.In(KST).Year() - 1; y <= end.In(KST).Year(); y++ {
		for _, t := range SolarTermsForYear(y) {
			if !t.Time.Before(start) && t.Time.Before(end) {
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// =============================================================================
// SAJU YEAR & MONTH
// =============================================================================

// SajuYear is the Gregorian year of t, minus one if t precedes that year's 입춘.
func SajuYear(t time.Time) int {
	y := t.In(KST).Year()
	if t.Before(LichunOf(y)) {
		return y - 1
	}
	return y
}

// SajuMonth returns the month index 0 (寅) .. 11 (丑) of the latest entering
// term at or before t. Between the previous 소한 and this year's 입춘 that is
// 11 (丑); early January before 소한 is still 10 (子) from the previous 대설.
func SajuMonth(t time.Time) int {
	term, ok := latestTerm(t, true)
	if !ok {
		return 11
	}
	return term.MonthIndex
}

// latestTerm finds the last term (optionally entering only) at or before t,
// searching the previous and current year's term sets.
func latestTerm(t time.Time, enteringOnly bool) (SolarTerm, bool) {
	y := t.In(KST).Year()
	var best SolarTerm
	found := false
	for _, set := range [][]SolarTerm{SolarTermsForYear(y - 1), SolarTermsForYear(y)} {
		for _, term := range set {
			if enteringOnly && !term.Entering() {
				continue
			}
			if term.Time.After(t) {
				continue
			}
			if !found || term.Time.After(best.Time) {
				best, found = term, true
			}
		}
	}
	return best, found
}

// nextTerm finds the first term (optionally entering only) strictly after t.
func nextTerm(t time.Time, enteringOnly bool) SolarTerm {
	y := t.In(KST).Year()
	var best SolarTerm
	found := false
	for _, set := range [][]SolarTerm{SolarTermsForYear(y - 1), SolarTermsForYear(y), SolarTermsForYear(y + 1)} {
		for _, term := range set {
			if enteringOnly && !term.Entering() {
				continue
			}
			if !term.Time.After(t) {
				continue
			}
			if !found || term.Time.Before(best.Time) {
				best, found = term, true
			}
		}
	}
	return best
}

// =============================================================================
// CURRENT TERM
// =============================================================================

// TermPosition locates an instant between two consecutive terms.
type TermPosition struct {
	Current        SolarTerm
	Next           SolarTerm
	DaysSinceStart int // whole days since Current began
	DaysUntilNext  int // whole days until Next begins
}

// CurrentSolarTerm returns the term in effect at t and the one after it,
// wrapping across year boundaries.
func CurrentSolarTerm(t time.Time) TermPosition {
	cur, ok := latestTerm(t, false)
	if !ok {
		// t precedes every term of the previous set; step one more year back.
		prev := SolarTermsForYear(t.In(KST).Year() - 2)
		cur = prev[SolarTermCount-1]
	}
	next := nextTerm(t, false)
	return TermPosition{
		Current:        cur,
		Next:           next,
		DaysSinceStart: int(DaysBetween(cur.Time, t).Floor().IntPart()),
		DaysUntilNext:  int(DaysBetween(t, next.Time).Floor().IntPart()),
	}
}

// DaysBetween returns the exact (fractional) number of days from a to b at
// minute resolution.
func DaysBetween(a, b time.Time) decimal.Decimal {
	minutes := int64(b.Sub(a) / time.Minute)
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(minutesPerDay))
}
