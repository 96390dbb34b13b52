/*
stem.go - Heavenly stems, earthly branches and the five elements

PURPOSE:
  Closed enumerations for the 10 stems and 12 branches. Every attribute
  (element, polarity, Korean reading, hanja, zodiac animal, triad) is a
  lookup into an immutable table indexed by the enum value.

KEY CONCEPTS:
  Stem:     甲乙丙丁戊己庚辛壬癸, index 0..9. Even index is yang.
  Branch:   子丑寅卯辰巳午未申酉戌亥, index 0..11. Even index is yang.
  Element:  Wood, Fire, Earth, Metal, Water with generation and
            destruction cycles used by the ten stars.

SEE ALSO:
  - pillar.go: Stem + Branch pairs and the sexagenary cycle
  - analysis.go: Element relationships
*/
package saju

import "fmt"

// =============================================================================
// ELEMENTS & POLARITY
// =============================================================================

// Element is one of the five phases.
type Element int

const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

var elementNames = [...]string{"wood", "fire", "earth", "metal", "water"}
var elementKorean = [...]string{"목(木)", "화(火)", "토(土)", "금(金)", "수(水)"}

func (e Element) String() string { return elementNames[e] }

// Korean returns the reading with hanja, e.g. "목(木)".
func (e Element) Korean() string { return elementKorean[e] }

// Generates returns the element this one feeds (Wood→Fire→Earth→Metal→Water→Wood).
func (e Element) Generates() Element { return (e + 1) % 5 }

// Destroys returns the element this one controls (Wood→Earth→Water→Fire→Metal→Wood).
func (e Element) Destroys() Element { return (e + 2) % 5 }

// Polarity is yin or yang.
type Polarity int

const (
	Yang Polarity = iota
	Yin
)

func (p Polarity) String() string {
	if p == Yang {
		return "yang"
	}
	return "yin"
}

// Korean returns 양 or 음.
func (p Polarity) Korean() string {
	if p == Yang {
		return "양"
	}
	return "음"
}

// =============================================================================
// HEAVENLY STEMS
// =============================================================================

// Stem is a heavenly stem, 0 (甲) through 9 (癸).
type Stem int

const (
	Gap Stem = iota
	Eul
	Byeong
	Jeong
	Mu
	Gi
	Gyeong
	Sin
	Im
	Gye
)

// StemCount is the length of the stem cycle.
const StemCount = 10

var (
	stemHanja  = [StemCount]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
	stemKorean = [StemCount]string{"갑", "을", "병", "정", "무", "기", "경", "신", "임", "계"}
	stemDesc   = [StemCount]string{
		"큰 나무, 곧게 뻗는 기운",
		"풀과 덩굴, 부드럽게 휘는 기운",
		"태양, 밝게 드러나는 기운",
		"등불, 안으로 비추는 기운",
		"큰 산, 넓게 받치는 기운",
		"논밭, 길러 내는 기운",
		"무쇠와 바위, 단단히 끊는 기운",
		"보석, 다듬어진 기운",
		"큰 물, 넓게 흐르는 기운",
		"빗물, 스며드는 기운",
	}
)

// Valid reports whether s is one of the ten stems.
func (s Stem) Valid() bool { return s >= 0 && s < StemCount }

func (s Stem) Hanja() string  { return stemHanja[s] }
func (s Stem) Korean() string { return stemKorean[s] }
func (s Stem) String() string { return stemHanja[s] }

// Description is a short Korean characterisation of the stem.
func (s Stem) Description() string { return stemDesc[s] }

// Element of the stem: pairs of stems share one element.
func (s Stem) Element() Element { return Element(s / 2) }

// Polarity of the stem: even index is yang.
func (s Stem) Polarity() Polarity { return Polarity(s % 2) }

// IsYang is shorthand for Polarity() == Yang.
func (s Stem) IsYang() bool { return s%2 == 0 }

// ParseStem accepts hanja (甲) or Korean (갑).
func ParseStem(v string) (Stem, error) {
	for i := 0; i < StemCount; i++ {
		if v == stemHanja[i] || v == stemKorean[i] {
			return Stem(i), nil
		}
	}
	return 0, fmt.Errorf("unknown heavenly stem %q", v)
}

// =============================================================================
// EARTHLY BRANCHES
// =============================================================================

// Branch is an earthly branch, 0 (子) through 11 (亥).
type Branch int

const (
	Ja Branch = iota
	Chuk
	In
	Myo
	Jin
	Sa
	O
	Mi
	Shin
	Yu
	Sul
	Hae
)

// BranchCount is the length of the branch cycle.
const BranchCount = 12

var (
	branchHanja  = [BranchCount]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
	branchKorean = [BranchCount]string{"자", "축", "인", "묘", "진", "사", "오", "미", "신", "유", "술", "해"}
	branchAnimal = [BranchCount]string{"쥐", "소", "호랑이", "토끼", "용", "뱀", "말", "양", "원숭이", "닭", "개", "돼지"}
	branchElem   = [BranchCount]Element{Water, Earth, Wood, Wood, Earth, Fire, Fire, Earth, Metal, Metal, Earth, Water}
	branchDesc   = [BranchCount]string{
		"한겨울 한밤, 씨앗이 잠든 때",
		"늦겨울 새벽, 언 땅이 풀리기 전",
		"초봄 이른 아침, 싹이 트는 때",
		"한봄 아침, 초목이 자라는 때",
		"늦봄 아침, 물기를 머금은 땅",
		"초여름 한낮 전, 열기가 오르는 때",
		"한여름 한낮, 열기가 가장 센 때",
		"늦여름 오후, 마른 땅",
		"초가을 오후, 열매가 맺히는 때",
		"한가을 저녁, 거두어들이는 때",
		"늦가을 저녁, 창고를 닫는 때",
		"초겨울 밤, 물이 모이는 때",
	}
)

// Valid reports whether b is one of the twelve branches.
func (b Branch) Valid() bool { return b >= 0 && b < BranchCount }

func (b Branch) Hanja() string  { return branchHanja[b] }
func (b Branch) Korean() string { return branchKorean[b] }
func (b Branch) String() string { return branchHanja[b] }

// Animal is the zodiac animal of the branch (띠).
func (b Branch) Animal() string { return branchAnimal[b] }

// Description is a short Korean characterisation of the branch.
func (b Branch) Description() string { return branchDesc[b] }

func (b Branch) Element() Element   { return branchElem[b] }
func (b Branch) Polarity() Polarity { return Polarity(b % 2) }
func (b Branch) IsYang() bool       { return b%2 == 0 }

// Triad returns the seasonal triad group (申子辰, 亥卯未, 寅午戌, 巳酉丑)
// the branch belongs to, identified by the group's peak branch.
func (b Branch) Triad() Branch {
	switch b {
	case Shin, Ja, Jin:
		return Ja
	case Hae, Myo, Mi:
		return Myo
	case In, O, Sul:
		return O
	default:
		return Yu
	}
}

// ParseBranch accepts hanja (子) or Korean (자).
func ParseBranch(v string) (Branch, error) {
	for i := 0; i < BranchCount; i++ {
		if v == branchHanja[i] || v == branchKorean[i] {
			return Branch(i), nil
		}
	}
	return 0, fmt.Errorf("unknown earthly branch %q", v)
}
