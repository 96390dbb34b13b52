/*
analysis.go - Derived analyses over FourPillars

PURPOSE:
  Pure lookup and classification functions keyed by the day master:
  ten stars (십성), hidden stems (지장간), twelve life stages (십이운성)
  and twelve sinsal (십이신살), plus element and yin-yang counts.
  Nothing here performs I/O or keeps state.

SEE ALSO:
  - stem.go: Element cycles used by the ten stars
  - pillars.go: FourPillars
*/
package saju

// =============================================================================
// TEN STARS
// =============================================================================

// TenStar is one of the ten relationship categories to the day master.
type TenStar int

const (
	Bigyeon    TenStar = iota // 비견: same element, same polarity
	Geopjae                   // 겁재: same element, other polarity
	Siksin                    // 식신: day generates, same polarity
	Sanggwan                  // 상관
	Pyeonjae                  // 편재: day destroys, same polarity
	Jeongjae                  // 정재
	Pyeongwan                 // 편관: destroys day, same polarity
	Jeonggwan                 // 정관
	Pyeonin                   // 편인: generates day, same polarity
	Jeongin                   // 정인
)

var tenStarNames = [10][2]string{
	{"비견", "比肩"}, {"겁재", "劫財"}, {"식신", "食神"}, {"상관", "傷官"}, {"편재", "偏財"},
	{"정재", "正財"}, {"편관", "偏官"}, {"정관", "正官"}, {"편인", "偏印"}, {"정인", "正印"},
}

func (t TenStar) Korean() string { return tenStarNames[t][0] }
func (t TenStar) Hanja() string  { return tenStarNames[t][1] }
func (t TenStar) String() string { return tenStarNames[t][0] }

// TenStarOf classifies target against the day master.
func TenStarOf(dayMaster, target Stem) TenStar {
	de, te := dayMaster.Element(), target.Element()
	var rel TenStar
	switch {
	case de == te:
		rel = Bigyeon
	case de.Generates() == te:
		rel = Siksin
	case de.Destroys() == te:
		rel = Pyeonjae
	case te.Destroys() == de:
		rel = Pyeongwan
	default: // te.Generates() == de
		rel = Pyeonin
	}
	if dayMaster.Polarity() != target.Polarity() {
		rel++
	}
	return rel
}

// TenStarOfBranch resolves the branch to its main hidden stem first.
func TenStarOfBranch(dayMaster Stem, b Branch) TenStar {
	return TenStarOf(dayMaster, MainStem(b))
}

// TenStars holds the stars of every position except the day stem itself.
type TenStars struct {
	YearStem    TenStar
	MonthStem   TenStar
	HourStem    TenStar
	YearBranch  TenStar
	MonthBranch TenStar
	DayBranch   TenStar
	HourBranch  TenStar
}

// TenStarsOf classifies the seven non-day-master characters.
func TenStarsOf(fp FourPillars) TenStars {
	dm := fp.DayMaster()
	return TenStars{
		YearStem:    TenStarOf(dm, fp.Year.Stem),
		MonthStem:   TenStarOf(dm, fp.Month.Stem),
		HourStem:    TenStarOf(dm, fp.Hour.Stem),
		YearBranch:  TenStarOfBranch(dm, fp.Year.Branch),
		MonthBranch: TenStarOfBranch(dm, fp.Month.Branch),
		DayBranch:   TenStarOfBranch(dm, fp.Day.Branch),
		HourBranch:  TenStarOfBranch(dm, fp.Hour.Branch),
	}
}

// =============================================================================
// HIDDEN STEMS
// =============================================================================

// BranchCategory groups branches by their hidden-stem layout.
type BranchCategory string

const (
	Growth  BranchCategory = "growth"  // 寅申巳亥: 7/7/16
	Peak    BranchCategory = "peak"    // 子午卯酉: 10/-/20
	Storage BranchCategory = "storage" // 辰戌丑未: 9/3/18
)

// HiddenStem is one stem hidden in a branch with the days it governs.
type HiddenStem struct {
	Stem Stem
	Days int
	Role string // "initial", "middle" or "main"
}

// Categories and layouts, indexed by branch.
var (
	branchCategory = [BranchCount]BranchCategory{
		Peak, Storage, Growth, Peak, Storage, Growth, Peak, Storage, Growth, Peak, Storage, Growth,
	}
	hiddenStemTable = [BranchCount][]HiddenStem{
		Ja:   {{Im, 10, "initial"}, {Gye, 20, "main"}},
		Chuk: {{Gye, 9, "initial"}, {Sin, 3, "middle"}, {Gi, 18, "main"}},
		In:   {{Mu, 7, "initial"}, {Byeong, 7, "middle"}, {Gap, 16, "main"}},
		Myo:  {{Gap, 10, "initial"}, {Eul, 20, "main"}},
		Jin:  {{Eul, 9, "initial"}, {Gye, 3, "middle"}, {Mu, 18, "main"}},
		Sa:   {{Mu, 7, "initial"}, {Gyeong, 7, "middle"}, {Byeong, 16, "main"}},
		O:    {{Byeong, 10, "initial"}, {Jeong, 20, "main"}},
		Mi:   {{Jeong, 9, "initial"}, {Eul, 3, "middle"}, {Gi, 18, "main"}},
		Shin: {{Mu, 7, "initial"}, {Im, 7, "middle"}, {Gyeong, 16, "main"}},
		Yu:   {{Gyeong, 10, "initial"}, {Sin, 20, "main"}},
		Sul:  {{Sin, 9, "initial"}, {Jeong, 3, "middle"}, {Mu, 18, "main"}},
		Hae:  {{Mu, 7, "initial"}, {Gap, 7, "middle"}, {Im, 16, "main"}},
	}
)

// CategoryOf returns the hidden-stem category of a branch.
func CategoryOf(b Branch) BranchCategory { return branchCategory[b] }

// HiddenStems returns a copy of the branch's hidden stems, main stem last.
func HiddenStems(b Branch) []HiddenStem {
	return append([]HiddenStem(nil), hiddenStemTable[b]...)
}

// MainStem is the governing hidden stem of a branch.
func MainStem(b Branch) Stem {
	hs := hiddenStemTable[b]
	return hs[len(hs)-1].Stem
}

// =============================================================================
// TWELVE LIFE STAGES
// =============================================================================

// LifeStage is one of the twelve phases (십이운성).
type LifeStage int

const (
	StageJangsaeng LifeStage = iota // 장생
	StageMogyok                     // 목욕
	StageGwandae                    // 관대
	StageGeollok                    // 건록 (임관)
	StageJewang                     // 제왕
	StageSoe                        // 쇠
	StageByeong                     // 병
	StageSa                         // 사
	StageMyo                        // 묘
	StageJeol                       // 절
	StageTae                        // 태
	StageYang                       // 양
)

var lifeStageNames = [12][2]string{
	{"장생", "長生"}, {"목욕", "沐浴"}, {"관대", "冠帶"}, {"건록", "建祿"}, {"제왕", "帝旺"}, {"쇠", "衰"},
	{"병", "病"}, {"사", "死"}, {"묘", "墓"}, {"절", "絶"}, {"태", "胎"}, {"양", "養"},
}

func (s LifeStage) Korean() string { return lifeStageNames[s][0] }
func (s LifeStage) Hanja() string  { return lifeStageNames[s][1] }
func (s LifeStage) String() string { return lifeStageNames[s][0] }

// Branch where each stem's 장생 falls. Yang stems walk the wheel forward
// from it, yin stems backward.
var lifeStageStart = [StemCount]Branch{Hae, O, In, Yu, In, Yu, Sa, Ja, Shin, Myo}

// LifeStageOf returns the phase of a stem at a branch.
func LifeStageOf(s Stem, b Branch) LifeStage {
	start := int(lifeStageStart[s])
	if s.IsYang() {
		return LifeStage(mod(int(b)-start, BranchCount))
	}
	return LifeStage(mod(start-int(b), BranchCount))
}

// LifeStages holds the day master's phase at each branch of the chart.
type LifeStages struct {
	Year, Month, Day, Hour LifeStage
}

// LifeStagesOf evaluates the day master against all four branches.
func LifeStagesOf(fp FourPillars) LifeStages {
	dm := fp.DayMaster()
	return LifeStages{
		Year:  LifeStageOf(dm, fp.Year.Branch),
		Month: LifeStageOf(dm, fp.Month.Branch),
		Day:   LifeStageOf(dm, fp.Day.Branch),
		Hour:  LifeStageOf(dm, fp.Hour.Branch),
	}
}

// =============================================================================
// TWELVE SINSAL
// =============================================================================

// Sinsal is one of the twelve spirit roles.
type Sinsal int

// Roles in wheel order starting from the triad's peak branch.
const (
	Jangseongsal Sinsal = iota // 장성살
	Bananssal                  // 반안살
	Yeongmasal                 // 역마살
	Yukhaesal                  // 육해살
	Hwagaesal                  // 화개살
	Geopsal                    // 겁살
	Jaesal                     // 재살
	Cheonsal                   // 천살
	Jisal                      // 지살
	Nyeonsal                   // 년살 (도화)
	Wolsal                     // 월살
	Mangsinsal                 // 망신살
)

var sinsalNames = [12][2]string{
	{"장성살", "將星殺"}, {"반안살", "攀鞍殺"}, {"역마살", "驛馬殺"}, {"육해살", "六害殺"},
	{"화개살", "華蓋殺"}, {"겁살", "劫殺"}, {"재살", "災殺"}, {"천살", "天殺"},
	{"지살", "地殺"}, {"년살", "年殺"}, {"월살", "月殺"}, {"망신살", "亡身殺"},
}

func (s Sinsal) Korean() string { return sinsalNames[s][0] }
func (s Sinsal) Hanja() string  { return sinsalNames[s][1] }
func (s Sinsal) String() string { return sinsalNames[s][0] }

// SinsalOf returns the role of branch b relative to reference.
func SinsalOf(b, reference Branch) Sinsal {
	return Sinsal(mod(int(b)-int(reference.Triad()), BranchCount))
}

// SinsalMap returns the role of every branch relative to reference.
func SinsalMap(reference Branch) map[Branch]Sinsal {
	out := make(map[Branch]Sinsal, BranchCount)
	for b := Branch(0); b < BranchCount; b++ {
		out[b] = SinsalOf(b, reference)
	}
	return out
}

// SinsalChart holds the role of each chart branch, referenced to the year
// branch and to the day branch, the two conventions in use.
type SinsalChart struct {
	ByYear SinsalPositions
	ByDay  SinsalPositions
}

// SinsalPositions is a per-position role set.
type SinsalPositions struct {
	Year, Month, Day, Hour Sinsal
}

// SinsalChartOf evaluates all four branches under both references.
func SinsalChartOf(fp FourPillars) SinsalChart {
	at := func(ref Branch) SinsalPositions {
		return SinsalPositions{
			Year:  SinsalOf(fp.Year.Branch, ref),
			Month: SinsalOf(fp.Month.Branch, ref),
			Day:   SinsalOf(fp.Day.Branch, ref),
			Hour:  SinsalOf(fp.Hour.Branch, ref),
		}
	}
	return SinsalChart{ByYear: at(fp.Year.Branch), ByDay: at(fp.Day.Branch)}
}

// =============================================================================
// ELEMENT BALANCE
// =============================================================================

// ElementCount tallies the eight characters by element and polarity.
type ElementCount struct {
	Elements [5]int
	Yang     int
	Yin      int
}

// Count of one element.
func (c ElementCount) Of(e Element) int { return c.Elements[e] }

// Missing lists elements absent from the chart.
func (c ElementCount) Missing() []Element {
	var out []Element
	for e, n := range c.Elements {
		if n == 0 {
			out = append(out, Element(e))
		}
	}
	return out
}

// CountElements tallies stems and branches (branches by their own element).
func CountElements(fp FourPillars) ElementCount {
	var c ElementCount
	for _, p := range fp.Ordered() {
		c.Elements[p.Stem.Element()]++
		c.Elements[p.Branch.Element()]++
		for _, pol := range []Polarity{p.Stem.Polarity(), p.Branch.Polarity()} {
			if pol == Yang {
				c.Yang++
			} else {
				c.Yin++
			}
		}
	}
	return c
}

// Strength is a coarse seasonal judgement of the day master.
type Strength string

const (
	Strong   Strength = "strong"
	Weak     Strength = "weak"
	Balanced Strength = "balanced"
)

// DayMasterStrength judges the day master by the season of the month
// branch: strong in its own season, weak in the opposite one (wood/metal,
// fire/water). Earth day masters are always balanced.
func DayMasterStrength(fp FourPillars) Strength {
	dm := fp.DayMaster().Element()
	if dm == Earth {
		return Balanced
	}
	season := seasonElement(fp.Month.Branch)
	switch season {
	case dm:
		return Strong
	case oppositeSeason[dm]:
		return Weak
	}
	return Balanced
}

var oppositeSeason = map[Element]Element{Wood: Metal, Metal: Wood, Fire: Water, Water: Fire}

// seasonElement maps 寅卯辰 to wood, 巳午未 to fire, 申酉戌 to metal and
// 亥子丑 to water.
func seasonElement(b Branch) Element {
	switch b {
	case In, Myo, Jin:
		return Wood
	case Sa, O, Mi:
		return Fire
	case Shin, Yu, Sul:
		return Metal
	}
	return Water
}

// SupportElements are the day master's own element and the one feeding it.
func SupportElements(dm Stem) []Element {
	e := dm.Element()
	return []Element{(e + 4) % 5, e}
}

// =============================================================================
// COMBINED
// =============================================================================

// Analysis bundles every derived analysis for one chart.
type Analysis struct {
	DayMaster   Stem
	TenStars    TenStars
	HiddenStems [4][]HiddenStem // hour, day, month, year
	LifeStages  LifeStages
	Sinsal      SinsalChart
	Elements    ElementCount
	Strength    Strength
	Support     []Element
}

// Analyze runs every derived analysis.
func Analyze(fp FourPillars) Analysis {
	var hidden [4][]HiddenStem
	for i, p := range fp.Ordered() {
		hidden[i] = HiddenStems(p.Branch)
	}
	return Analysis{
		DayMaster:   fp.DayMaster(),
		TenStars:    TenStarsOf(fp),
		HiddenStems: hidden,
		LifeStages:  LifeStagesOf(fp),
		Sinsal:      SinsalChartOf(fp),
		Elements:    CountElements(fp),
		Strength:    DayMasterStrength(fp),
		Support:     SupportElements(fp.DayMaster()),
	}
}
