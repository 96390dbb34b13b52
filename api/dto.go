/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's value types (Stem, Pillar, Reading) from the wire format,
  so enums travel as hanja/Korean strings rather than ordinals.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Pillars:
    PillarDTO, FourPillarsDTO, MomentDTO, PillarsResponse

  Luck cycles:
    DaeunPeriodDTO, TermDistanceDTO, DaeunResponse, SaeunDTO

  Analysis:
    AnalysisResponse, TenStarsDTO, HiddenStemDTO, PositionsDTO, ElementsDTO

  Solar terms:
    SolarTermDTO, TermPositionDTO

  Almanac:
    AlmanacEntryDTO, SeedRequest, SeedRunDTO

VALIDATION:
  SeedRequest carries validator/v10 tags and is checked in the handler.
  Query parameters are parsed and range-checked by saju.BirthMoment.

SEE ALSO:
  - handlers.go: Uses these types
  - saju/pillars.go: Reading
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/saju-engine/saju"
)

// =============================================================================
// PILLARS
// =============================================================================

// PillarDTO is one pillar with both scripts and the element of each half.
type PillarDTO struct {
	Hanja         string `json:"hanja"`
	Korean        string `json:"korean"`
	Stem          string `json:"stem"`
	Branch        string `json:"branch"`
	StemElement   string `json:"stemElement"`
	BranchElement string `json:"branchElement"`
	Animal        string `json:"animal"`
}

// FourPillarsDTO is the chart plus the fixture-style summary strings.
type FourPillarsDTO struct {
	Year     PillarDTO `json:"year"`
	Month    PillarDTO `json:"month"`
	Day      PillarDTO `json:"day"`
	Hour     PillarDTO `json:"hour"`
	Hanja    string    `json:"hanja"`
	Stems    string    `json:"stems"`    // hour-day-month-year, Korean
	Branches string    `json:"branches"` // hour-day-month-year, Korean
}

// MomentDTO renders a birth moment.
type MomentDTO struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Solar     bool   `json:"solar"`
	LeapMonth bool   `json:"leapMonth,omitempty"`
}

// PillarsResponse is the result of GET /api/pillars.
type PillarsResponse struct {
	Input         MomentDTO        `json:"input"`
	Effective     MomentDTO        `json:"effective"`
	OffsetMinutes int              `json:"offsetMinutes"`
	NightZi       bool             `json:"nightZi"`
	SajuYear      int              `json:"sajuYear"`
	SajuMonth     int              `json:"sajuMonth"`
	Pillars       FourPillarsDTO   `json:"pillars"`
	Almanac       *AlmanacEntryDTO `json:"almanac,omitempty"`
}

// =============================================================================
// LUCK CYCLES
// =============================================================================

// DaeunPeriodDTO is one decade of luck.
type DaeunPeriodDTO struct {
	StartAge  int       `json:"startAge"`
	EndAge    int       `json:"endAge"`
	StartYear int       `json:"startYear"`
	EndYear   int       `json:"endYear"`
	Pillar    PillarDTO `json:"pillar"`
}

// TermDistanceDTO explains where the start age came from.
type TermDistanceDTO struct {
	Term   string          `json:"term,omitempty"`
	At     string          `json:"at"`
	Days   decimal.Decimal `json:"days"`
	Source string          `json:"source"`
}

// CurrentDaeunDTO is the period containing the requested age.
type CurrentDaeunDTO struct {
	Index   int            `json:"index"`
	YearsIn int            `json:"yearsIn"`
	Period  DaeunPeriodDTO `json:"period"`
}

// DaeunResponse is the result of GET /api/daeun.
type DaeunResponse struct {
	Gender    string           `json:"gender"`
	Forward   bool             `json:"forward"`
	StartAge  int              `json:"startAge"`
	BirthYear int              `json:"birthYear"`
	Precise   bool             `json:"precise"`
	Distance  *TermDistanceDTO `json:"distance,omitempty"`
	Periods   []DaeunPeriodDTO `json:"periods"`
	Current   *CurrentDaeunDTO `json:"current,omitempty"`
}

// SaeunDTO is the annual pillar of one year.
type SaeunDTO struct {
	Year   int       `json:"year"`
	Age    int       `json:"age,omitempty"`
	Pillar PillarDTO `json:"pillar"`
}

// =============================================================================
// ANALYSIS
// =============================================================================

// TenStarsDTO names the star at every position except the day stem.
type TenStarsDTO struct {
	YearStem    string `json:"yearStem"`
	MonthStem   string `json:"monthStem"`
	HourStem    string `json:"hourStem"`
	YearBranch  string `json:"yearBranch"`
	MonthBranch string `json:"monthBranch"`
	DayBranch   string `json:"dayBranch"`
	HourBranch  string `json:"hourBranch"`
}

// HiddenStemDTO is one hidden stem of a branch.
type HiddenStemDTO struct {
	Stem string `json:"stem"`
	Days int    `json:"days"`
	Role string `json:"role"`
}

// PositionsDTO holds one named value per chart position.
type PositionsDTO struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
	Hour  string `json:"hour"`
}

// ElementsDTO is the element and polarity tally.
type ElementsDTO struct {
	Wood    int      `json:"wood"`
	Fire    int      `json:"fire"`
	Earth   int      `json:"earth"`
	Metal   int      `json:"metal"`
	Water   int      `json:"water"`
	Yang    int      `json:"yang"`
	Yin     int      `json:"yin"`
	Missing []string `json:"missing"`
}

// AnalysisResponse is the result of GET /api/analysis.
type AnalysisResponse struct {
	Pillars      FourPillarsDTO             `json:"pillars"`
	DayMaster    string                     `json:"dayMaster"`
	TenStars     TenStarsDTO                `json:"tenStars"`
	HiddenStems  map[string][]HiddenStemDTO `json:"hiddenStems"`
	LifeStages   PositionsDTO               `json:"lifeStages"`
	SinsalByYear PositionsDTO               `json:"sinsalByYear"`
	SinsalByDay  PositionsDTO               `json:"sinsalByDay"`
	Elements     ElementsDTO                `json:"elements"`
	Strength     string                     `json:"strength"`
	Support      []string                   `json:"support"`
}

// =============================================================================
// SOLAR TERMS
// =============================================================================

// SolarTermDTO is one term boundary.
type SolarTermDTO struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Hanja      string `json:"hanja"`
	Year       int    `json:"year"`
	Time       string `json:"time"`
	MonthIndex int    `json:"monthIndex"`
	Entering   bool   `json:"entering"`
}

// TermPositionDTO places an instant between two terms.
type TermPositionDTO struct {
	At             string       `json:"at"`
	Current        SolarTermDTO `json:"current"`
	Next           SolarTermDTO `json:"next"`
	DaysSinceStart int          `json:"daysSinceStart"`
	DaysUntilNext  int          `json:"daysUntilNext"`
}

// LocationDTO is a named birth place.
type LocationDTO struct {
	Name          string `json:"name"`
	OffsetMinutes int    `json:"offsetMinutes"`
}

// =============================================================================
// ALMANAC
// =============================================================================

// AlmanacEntryDTO is one almanac row.
type AlmanacEntryDTO struct {
	SolarDate     string `json:"solarDate"`
	LunarDate     string `json:"lunarDate,omitempty"`
	LunarLeap     bool   `json:"lunarLeap,omitempty"`
	YearGanzhi    string `json:"yearGanzhi"`
	MonthGanzhi   string `json:"monthGanzhi"`
	DayGanzhi     string `json:"dayGanzhi"`
	Weekday       string `json:"weekday"`
	Zodiac        string `json:"zodiac"`
	Constellation string `json:"constellation,omitempty"`
	MoonPhase     string `json:"moonPhase,omitempty"`
	SolarTerm     string `json:"solarTerm,omitempty"`
	SolarTermTime string `json:"solarTermTime,omitempty"`
	Holiday       bool   `json:"holiday,omitempty"`
}

// SeedRequest asks for almanac rows to be generated for a year range.
type SeedRequest struct {
	FromYear int `json:"fromYear" validate:"min=1900,max=2100"`
	ToYear   int `json:"toYear" validate:"min=1900,max=2100,gtefield=FromYear"`
}

// SeedRunDTO reports a seed run.
type SeedRunDTO struct {
	ID          string `json:"id"`
	FromYear    int    `json:"fromYear"`
	ToYear      int    `json:"toYear"`
	Status      string `json:"status"`
	Rows        int    `json:"rows"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"createdAt"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPillarDTO(p saju.Pillar) PillarDTO {
	return PillarDTO{
		Hanja:         p.Hanja(),
		Korean:        p.Korean(),
		Stem:          p.Stem.Hanja(),
		Branch:        p.Branch.Hanja(),
		StemElement:   p.Stem.Element().Korean(),
		BranchElement: p.Branch.Element().Korean(),
		Animal:        p.Branch.Animal(),
	}
}

func toFourPillarsDTO(fp saju.FourPillars) FourPillarsDTO {
	return FourPillarsDTO{
		Year:     toPillarDTO(fp.Year),
		Month:    toPillarDTO(fp.Month),
		Day:      toPillarDTO(fp.Day),
		Hour:     toPillarDTO(fp.Hour),
		Hanja:    fp.Hanja(),
		Stems:    fp.StemsKorean(),
		Branches: fp.BranchesKorean(),
	}
}

func toMomentDTO(m saju.BirthMoment) MomentDTO {
	return MomentDTO{
		Date:      m.DateString(),
		Time:      fmt.Sprintf("%02d:%02d", m.Hour, m.Minute),
		Solar:     m.IsSolar,
		LeapMonth: m.IsLeapMonth,
	}
}

func toPillarsResponse(r saju.Reading) PillarsResponse {
	resp := PillarsResponse{
		Input:         toMomentDTO(r.Moment),
		Effective:     toMomentDTO(r.Effective),
		OffsetMinutes: r.OffsetMinutes,
		NightZi:       r.NightZi,
		SajuYear:      r.SajuYear,
		SajuMonth:     r.SajuMonth,
		Pillars:       toFourPillarsDTO(r.Pillars),
	}
	if r.Almanac != nil {
		dto := toAlmanacEntryDTO(*r.Almanac)
		resp.Almanac = &dto
	}
	return resp
}

func toDaeunPeriodDTO(p saju.DaeunPeriod) DaeunPeriodDTO {
	return DaeunPeriodDTO{
		StartAge:  p.StartAge,
		EndAge:    p.EndAge,
		StartYear: p.StartYear,
		EndYear:   p.EndYear,
		Pillar:    toPillarDTO(p.Pillar),
	}
}

// toDaeunResponse lists the periods up to maxAge; the full list is always
// computed.
func toDaeunResponse(l saju.DaeunList, maxAge int) DaeunResponse {
	resp := DaeunResponse{
		Gender:    string(l.Gender),
		Forward:   l.Forward,
		StartAge:  l.StartAge,
		BirthYear: l.BirthYear,
		Precise:   l.Precise,
		Periods:   []DaeunPeriodDTO{},
	}
	if d := l.Distance; d != nil {
		resp.Distance = &TermDistanceDTO{
			Term:   d.Term,
			At:     d.At.In(saju.KST).Format(time.RFC3339),
			Days:   d.Days,
			Source: d.Source,
		}
	}
	for _, p := range l.Until(maxAge) {
		resp.Periods = append(resp.Periods, toDaeunPeriodDTO(p))
	}
	return resp
}

func toSaeunDTO(s saju.Saeun) SaeunDTO {
	return SaeunDTO{Year: s.Year, Age: s.Age, Pillar: toPillarDTO(s.Pillar)}
}

func toAnalysisResponse(fp saju.FourPillars) AnalysisResponse {
	a := saju.Analyze(fp)

	hidden := make(map[string][]HiddenStemDTO, 4)
	for i, pos := range []string{"hour", "day", "month", "year"} {
		for _, hs := range a.HiddenStems[i] {
			hidden[pos] = append(hidden[pos], HiddenStemDTO{Stem: hs.Stem.Hanja(), Days: hs.Days, Role: hs.Role})
		}
	}

	sinsal := func(p saju.SinsalPositions) PositionsDTO {
		return PositionsDTO{Year: p.Year.Korean(), Month: p.Month.Korean(), Day: p.Day.Korean(), Hour: p.Hour.Korean()}
	}

	elems := ElementsDTO{
		Wood:    a.Elements.Of(saju.Wood),
		Fire:    a.Elements.Of(saju.Fire),
		Earth:   a.Elements.Of(saju.Earth),
		Metal:   a.Elements.Of(saju.Metal),
		Water:   a.Elements.Of(saju.Water),
		Yang:    a.Elements.Yang,
		Yin:     a.Elements.Yin,
		Missing: []string{},
	}
	for _, e := range a.Elements.Missing() {
		elems.Missing = append(elems.Missing, e.Korean())
	}

	support := make([]string, 0, len(a.Support))
	for _, e := range a.Support {
		support = append(support, e.Korean())
	}

	return AnalysisResponse{
		Pillars:   toFourPillarsDTO(fp),
		DayMaster: a.DayMaster.Hanja(),
		TenStars: TenStarsDTO{
			YearStem:    a.TenStars.YearStem.Korean(),
			MonthStem:   a.TenStars.MonthStem.Korean(),
			HourStem:    a.TenStars.HourStem.Korean(),
			YearBranch:  a.TenStars.YearBranch.Korean(),
			MonthBranch: a.TenStars.MonthBranch.Korean(),
			DayBranch:   a.TenStars.DayBranch.Korean(),
			HourBranch:  a.TenStars.HourBranch.Korean(),
		},
		HiddenStems: hidden,
		LifeStages: PositionsDTO{
			Year:  a.LifeStages.Year.Korean(),
			Month: a.LifeStages.Month.Korean(),
			Day:   a.LifeStages.Day.Korean(),
			Hour:  a.LifeStages.Hour.Korean(),
		},
		SinsalByYear: sinsal(a.Sinsal.ByYear),
		SinsalByDay:  sinsal(a.Sinsal.ByDay),
		Elements:     elems,
		Strength:     string(a.Strength),
		Support:      support,
	}
}

func toSolarTermDTO(t saju.SolarTerm) SolarTermDTO {
	return SolarTermDTO{
		Index:      t.Index,
		Name:       t.Name,
		Hanja:      t.Hanja,
		Year:       t.Year,
		Time:       t.Time.In(saju.KST).Format(time.RFC3339),
		MonthIndex: t.MonthIndex,
		Entering:   t.Entering(),
	}
}

func toAlmanacEntryDTO(e saju.AlmanacEntry) AlmanacEntryDTO {
	dto := AlmanacEntryDTO{
		SolarDate:     e.SolarDateString(),
		LunarLeap:     e.LunarLeapMonth,
		YearGanzhi:    e.YearGanzhiHanja,
		MonthGanzhi:   e.MonthGanzhiHanja,
		DayGanzhi:     e.DayGanzhiHanja,
		Weekday:       e.WeekdayKorean,
		Zodiac:        e.Zodiac(),
		Constellation: e.Constellation,
		MoonPhase:     e.MoonPhase,
		SolarTerm:     e.SolarTermKorean,
		SolarTermTime: e.SolarTermTime,
		Holiday:       e.Holiday,
	}
	if e.LunarYear != 0 {
		dto.LunarDate = fmt.Sprintf("%04d-%02d-%02d", e.LunarYear, e.LunarMonth, e.LunarDay)
	}
	return dto
}
