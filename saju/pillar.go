/*
pillar.go - Pillars and the sexagenary cycle engine

PURPOSE:
  A Pillar is one (stem, branch) position in the 60-term cycle. The cycle
  engine maps integer offsets to pillars and back, relative to an epoch
  that each caller supplies (year epoch 1984 甲子, day epoch 1999-12-14
  庚子, saeun epoch 1900 庚子).

INVARIANTS:
  - Only 60 of the 120 stem/branch pairs are valid: stem%2 == branch%2.
  - OffsetFromPillar(PillarFromOffset(n)) == n for every n in [0, 60).
  - A parity-mismatched pair is never coerced; it is an error.

SEE ALSO:
  - stem.go: Stem and Branch tables
  - pillars.go: Year/month/day/hour pillar derivation
*/
package saju

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CycleLength is the length of the sexagenary cycle.
const CycleLength = 60

// Pillar is an immutable (stem, branch) pair.
type Pillar struct {
	Stem   Stem
	Branch Branch
}

// NewPillar validates the parity invariant.
func NewPillar(s Stem, b Branch) (Pillar, error) {
	p := Pillar{Stem: s, Branch: b}
	if !p.Valid() {
		return Pillar{}, &PillarCombinationError{Stem: s, Branch: b}
	}
	return p, nil
}

// Hanja renders the pillar as two hanja, e.g. "甲子".
func (p Pillar) Hanja() string { return p.Stem.Hanja() + p.Branch.Hanja() }

// Korean renders the pillar in Hangul, e.g. "갑자".
func (p Pillar) Korean() string { return p.Stem.Korean() + p.Branch.Korean() }

func (p Pillar) String() string { return p.Hanja() }

// Valid reports whether the pillar is one of the 60 cycle positions.
func (p Pillar) Valid() bool {
	return p.Stem.Valid() && p.Branch.Valid() && int(p.Stem)%2 == int(p.Branch)%2
}

// Index is the position of the pillar in the cycle starting at 甲子 (0..59).
// It panics on a pillar that is not Valid; pillars from NewPillar,
// ParsePillar and the formulas always are.
func (p Pillar) Index() int {
	n, err := GapJa.OffsetFromPillar(p)
	if err != nil {
		panic(err)
	}
	return n
}

// Shift moves n positions along the cycle (negative moves backward). Like
// Index it panics on an invalid pillar.
func (p Pillar) Shift(n int) Pillar {
	return GapJa.PillarFromOffset(p.Index() + n)
}

// ParsePillar decodes a two-character ganzhi string in hanja ("甲子") or
// Hangul ("갑자"). Unknown characters and parity mismatches are reported
// as malformed upstream data, since pillar strings come from the almanac.
func ParsePillar(v string) (Pillar, error) {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) != 2 {
		return Pillar{}, &MalformedDataError{Field: "ganzhi", Raw: v}
	}
	first, size := utf8.DecodeRuneInString(v)
	s, err := ParseStem(string(first))
	if err != nil {
		return Pillar{}, &MalformedDataError{Field: "ganzhi", Raw: v, Err: err}
	}
	b, err := ParseBranch(v[size:])
	if err != nil {
		return Pillar{}, &MalformedDataError{Field: "ganzhi", Raw: v, Err: err}
	}
	p, err := NewPillar(s, b)
	if err != nil {
		return Pillar{}, &MalformedDataError{Field: "ganzhi", Raw: v, Err: err}
	}
	return p, nil
}

// MustParsePillar is ParsePillar for literals known to be valid.
func MustParsePillar(v string) Pillar {
	p, err := ParsePillar(v)
	if err != nil {
		panic(err)
	}
	return p
}

// AllPillars returns the 60 pillars in cycle order from 甲子.
func AllPillars() []Pillar {
	out := make([]Pillar, CycleLength)
	for i := range out {
		out[i] = GapJa.PillarFromOffset(i)
	}
	return out
}

// =============================================================================
// CYCLE ENGINE
// =============================================================================

// Epoch anchors the cycle: Origin is the counter value (a year, a day
// number, ...) at which the cycle stands on Pillar{Stem, Branch}.
type Epoch struct {
	Stem   Stem
	Branch Branch
	Origin int
}

var (
	// GapJa anchors offset 0 at 甲子. Used for cycle indices.
	GapJa = Epoch{Stem: Gap, Branch: Ja}

	// YearEpoch: 1984 is a 甲子 year.
	YearEpoch = Epoch{Stem: Gap, Branch: Ja, Origin: 1984}

	// SaeunEpoch: 1900 is a 庚子 year.
	SaeunEpoch = Epoch{Stem: Gyeong, Branch: Ja, Origin: 1900}

	// DayEpoch: JDN of 1999-12-14, a 庚子 day.
	DayEpoch = Epoch{Stem: Gyeong, Branch: Ja, Origin: JDN(1999, 12, 14)}
)

// PillarFromOffset returns the pillar offset positions from the epoch pillar.
func (e Epoch) PillarFromOffset(offset int) Pillar {
	return Pillar{
		Stem:   Stem(mod(int(e.Stem)+offset, StemCount)),
		Branch: Branch(mod(int(e.Branch)+offset, BranchCount)),
	}
}

// PillarAt returns the pillar for an absolute counter value.
func (e Epoch) PillarAt(value int) Pillar {
	return e.PillarFromOffset(value - e.Origin)
}

// OffsetFromPillar inverts PillarFromOffset into [0, 60): the unique n with
// n ≡ stem−epochStem (mod 10) and n ≡ branch−epochBranch (mod 12).
func (e Epoch) OffsetFromPillar(p Pillar) (int, error) {
	if !p.Valid() {
		return 0, &PillarCombinationError{Stem: p.Stem, Branch: p.Branch}
	}
	ds := mod(int(p.Stem)-int(e.Stem), StemCount)
	db := mod(int(p.Branch)-int(e.Branch), BranchCount)
	for n := ds; n < CycleLength; n += StemCount {
		if n%BranchCount == db {
			return n, nil
		}
	}
	// unreachable for a valid epoch
	return 0, fmt.Errorf("epoch %s%s: %w", e.Stem.Hanja(), e.Branch.Hanja(), ErrInvalidPillarCombination)
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
