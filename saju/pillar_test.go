package saju_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/saju-engine/saju"
)

// =============================================================================
// CYCLE ENGINE
// =============================================================================

func TestCycle_RoundTrip_AllEpochs(t *testing.T) {
	epochs := map[string]saju.Epoch{
		"gapja": saju.GapJa,
		"year":  saju.YearEpoch,
		"saeun": saju.SaeunEpoch,
		"day":   saju.DayEpoch,
	}
	for name, e := range epochs {
		for n := 0; n < saju.CycleLength; n++ {
			p := e.PillarFromOffset(n)
			got, err := e.OffsetFromPillar(p)
			require.NoError(t, err, "%s offset %d", name, n)
			assert.Equal(t, n, got, "%s offset %d", name, n)
		}
	}
}

func TestCycle_ParityInvariant(t *testing.T) {
	for n := -300; n <= 300; n++ {
		p := saju.GapJa.PillarFromOffset(n)
		assert.Equal(t, int(p.Stem)%2, int(p.Branch)%2, "offset %d gave %s", n, p)
	}
}

func TestCycle_NegativeOffsetsWrap(t *testing.T) {
	// GIVEN: 甲子 as offset 0
	// WHEN: stepping one back
	// THEN: 癸亥, the last pillar of the cycle
	assert.Equal(t, "癸亥", saju.GapJa.PillarFromOffset(-1).Hanja())
	assert.Equal(t, "甲子", saju.GapJa.PillarFromOffset(60).Hanja())
}

func TestCycle_OffsetFromPillar_RejectsParityMismatch(t *testing.T) {
	_, err := saju.GapJa.OffsetFromPillar(saju.Pillar{Stem: saju.Gap, Branch: saju.Chuk})
	require.Error(t, err)
	assert.True(t, errors.Is(err, saju.ErrInvalidPillarCombination))

	var pce *saju.PillarCombinationError
	require.True(t, errors.As(err, &pce))
	assert.Equal(t, saju.Gap, pce.Stem)
	assert.Equal(t, saju.Chuk, pce.Branch)
}

func TestAllPillars_SixtyDistinct(t *testing.T) {
	seen := map[string]bool{}
	for i, p := range saju.AllPillars() {
		assert.Equal(t, i, p.Index())
		seen[p.Hanja()] = true
	}
	assert.Len(t, seen, 60)
}

func TestPillar_Shift(t *testing.T) {
	assert.Equal(t, "甲子", saju.MustParsePillar("癸亥").Shift(1).Hanja())
	assert.Equal(t, "癸亥", saju.MustParsePillar("甲子").Shift(-1).Hanja())
	assert.Equal(t, "庚辰", saju.MustParsePillar("己卯").Shift(1).Hanja())
}

func TestPillar_InvalidIsNotCoerced(t *testing.T) {
	// GIVEN: a parity-mismatched literal that bypassed NewPillar
	bad := saju.Pillar{Stem: saju.Gap, Branch: saju.Chuk}
	assert.False(t, bad.Valid())

	// THEN: cycle arithmetic refuses it instead of picking a nearby pillar
	assert.Panics(t, func() { bad.Index() })
	assert.Panics(t, func() { bad.Shift(1) })
}

// =============================================================================
// PARSING
// =============================================================================

func TestParsePillar_HanjaAndHangul(t *testing.T) {
	a, err := saju.ParsePillar("庚子")
	require.NoError(t, err)
	b, err := saju.ParsePillar("경자")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, saju.Gyeong, a.Stem)
	assert.Equal(t, saju.Ja, a.Branch)
	assert.Equal(t, "경자", a.Korean())
}

func TestParsePillar_Malformed(t *testing.T) {
	cases := []string{"", "甲", "甲子丑", "XY", "갑丑"}
	for _, raw := range cases {
		_, err := saju.ParsePillar(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, saju.ErrMalformedUpstreamData), raw)
		assert.True(t, saju.IsDataFault(err), raw)
	}
}

func TestParsePillar_ParityMismatchIsAlsoCombinationError(t *testing.T) {
	_, err := saju.ParsePillar("甲丑")
	require.Error(t, err)
	assert.True(t, errors.Is(err, saju.ErrMalformedUpstreamData))
	assert.True(t, errors.Is(err, saju.ErrInvalidPillarCombination))
}

func TestNewPillar(t *testing.T) {
	p, err := saju.NewPillar(saju.Gi, saju.Sa)
	require.NoError(t, err)
	assert.Equal(t, "己巳", p.Hanja())

	_, err = saju.NewPillar(saju.Gi, saju.O)
	assert.ErrorIs(t, err, saju.ErrInvalidPillarCombination)
	assert.Contains(t, err.Error(), "己午")

	// Out-of-range ordinals still produce a readable error.
	_, err = saju.NewPillar(saju.Stem(10), saju.Ja)
	require.ErrorIs(t, err, saju.ErrInvalidPillarCombination)
	assert.NotPanics(t, func() { _ = err.Error() })
	assert.Contains(t, err.Error(), "stem 10")
}

func TestStemBranchAttributes(t *testing.T) {
	assert.Equal(t, saju.Wood, saju.Gap.Element())
	assert.Equal(t, saju.Water, saju.Gye.Element())
	assert.True(t, saju.Gyeong.IsYang())
	assert.False(t, saju.Sin.IsYang())

	assert.Equal(t, saju.Water, saju.Ja.Element())
	assert.Equal(t, saju.Earth, saju.Mi.Element())
	assert.Equal(t, "용", saju.Jin.Animal())

	assert.Equal(t, saju.Fire, saju.Wood.Generates())
	assert.Equal(t, saju.Earth, saju.Wood.Destroys())
	assert.Equal(t, saju.Wood, saju.Metal.Destroys())
}

func TestBranchTriads(t *testing.T) {
	cases := map[saju.Branch]saju.Branch{
		saju.Shin: saju.Ja, saju.Ja: saju.Ja, saju.Jin: saju.Ja,
		saju.Hae: saju.Myo, saju.Myo: saju.Myo, saju.Mi: saju.Myo,
		saju.In: saju.O, saju.O: saju.O, saju.Sul: saju.O,
		saju.Sa: saju.Yu, saju.Yu: saju.Yu, saju.Chuk: saju.Yu,
	}
	for b, peak := range cases {
		assert.Equal(t, peak, b.Triad(), b.Hanja())
	}
}
