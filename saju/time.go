package saju

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// BIRTH MOMENT - Immutable input to every computation
// =============================================================================

// KST is the fixed UTC+9 zone every wall-clock value is interpreted in.
// A fixed zone keeps results independent of the host tz database.
var KST = time.FixedZone("KST", 9*60*60)

// Supported range of the engine and the almanac.
const (
	MinYear = 1900
	MaxYear = 2100
)

// Gender selects the Daeun direction together with the year stem polarity.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ParseGender accepts male/female and the Korean 남/여.
func ParseGender(v string) (Gender, error) {
	switch v {
	case "male", "m", "M", "남", "남자":
		return Male, nil
	case "female", "f", "F", "여", "여자":
		return Female, nil
	}
	return "", fmt.Errorf("%w: unknown gender %q", ErrInvalidInput, v)
}

// BirthMoment is a wall-clock birth date-time in KST. When IsSolar is
// false, Year/Month/Day are a lunar date and IsLeapMonth selects the
// intercalary month; resolving it needs the almanac.
type BirthMoment struct {
	Year        int `validate:"min=1900,max=2100"`
	Month       int `validate:"min=1,max=12"`
	Day         int `validate:"min=1,max=31"`
	Hour        int `validate:"min=0,max=23"`
	Minute      int `validate:"min=0,max=59"`
	IsSolar     bool
	IsLeapMonth bool
}

// NewSolarMoment is the common constructor for Gregorian input.
func NewSolarMoment(year, month, day, hour, minute int) BirthMoment {
	return BirthMoment{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, IsSolar: true}
}

// MomentOf converts a time into a solar BirthMoment in KST.
func MomentOf(t time.Time) BirthMoment {
	t = t.In(KST)
	return NewSolarMoment(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

var momentValidate = validator.New()

var momentBounds = map[string][2]int{
	"Year":   {MinYear, MaxYear},
	"Month":  {1, 12},
	"Day":    {1, 31},
	"Hour":   {0, 23},
	"Minute": {0, 59},
}

// Validate range-checks every field. The first failing field is returned
// as an *InputError.
func (m BirthMoment) Validate() error {
	err := momentValidate.Struct(m)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fe := fieldErrs[0]
	bounds := momentBounds[fe.StructField()]
	value, _ := fe.Value().(int)
	return &InputError{Field: lowerFirst(fe.StructField()), Value: value, Min: bounds[0], Max: bounds[1]}
}

// Time is the moment as a KST instant. Only meaningful for solar input;
// impossible dates (Feb 30) are normalized by time.Date, see CheckCalendarDate.
func (m BirthMoment) Time() time.Time {
	return time.Date(m.Year, time.Month(m.Month), m.Day, m.Hour, m.Minute, 0, 0, KST)
}

// CheckCalendarDate rejects a solar date that does not exist (e.g. 2023-02-29)
// as not found, which is what an almanac lookup would report.
func (m BirthMoment) CheckCalendarDate() error {
	t := m.Time()
	if t.Year() != m.Year || int(t.Month()) != m.Month || t.Day() != m.Day {
		return &NotFoundError{Kind: "solar date", Key: m.DateString()}
	}
	return nil
}

// DateString formats the date part as YYYY-MM-DD.
func (m BirthMoment) DateString() string {
	return fmt.Sprintf("%04d-%02d-%02d", m.Year, m.Month, m.Day)
}

func (m BirthMoment) String() string {
	kind := "solar"
	if !m.IsSolar {
		kind = "lunar"
		if m.IsLeapMonth {
			kind = "lunar-leap"
		}
	}
	return fmt.Sprintf("%s %02d:%02d (%s)", m.DateString(), m.Hour, m.Minute, kind)
}

// WithDate replaces the calendar date, keeping the time of day. Used after
// an almanac resolves a lunar date to its solar equivalent.
func (m BirthMoment) WithDate(year, month, day int) BirthMoment {
	m.Year, m.Month, m.Day = year, month, day
	m.IsSolar, m.IsLeapMonth = true, false
	return m
}

// AddMinutes shifts the wall clock, rolling the date over as needed.
func (m BirthMoment) AddMinutes(n int) BirthMoment {
	out := MomentOf(m.Time().Add(time.Duration(n) * time.Minute))
	out.IsSolar, out.IsLeapMonth = m.IsSolar, m.IsLeapMonth
	return out
}

// NextDay advances the calendar date by exactly one day with month and
// year rollover (2023-12-31 -> 2024-01-01, 2024-02-28 -> 2024-02-29).
func (m BirthMoment) NextDay() BirthMoment {
	t := time.Date(m.Year, time.Month(m.Month), m.Day+1, m.Hour, m.Minute, 0, 0, KST)
	m.Year, m.Month, m.Day = t.Year(), int(t.Month()), t.Day()
	return m
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

// =============================================================================
// JULIAN DAY NUMBER
// =============================================================================

// JDN is the proleptic Gregorian Julian Day Number of a civil date.
// Integer division throughout; valid for every date in the supported range.
func JDN(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// =============================================================================
// SPANS - Inclusive integer ranges for ages and years
// =============================================================================

// Span is an inclusive [From, To] range of ages or years.
type Span struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether v is within the span.
func (s Span) Contains(v int) bool { return v >= s.From && v <= s.To }

// Next returns the contiguous span of the same length that follows.
func (s Span) Next() Span {
	n := s.To - s.From
	return Span{From: s.To + 1, To: s.To + 1 + n}
}

func (s Span) String() string { return fmt.Sprintf("[%d, %d]", s.From, s.To) }
