package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/saju-engine/saju"
	"github.com/warp/saju-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *sqlite.Store, from, to int) {
	t.Helper()
	rows, err := saju.GenerateAlmanac(context.Background(), from, to)
	require.NoError(t, err)
	require.NoError(t, s.SaveBatch(context.Background(), rows))
}

func TestStore_SaveAndFindBySolarDate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	e := saju.EntryFor(2024, 2, 4)
	e.LunarYear, e.LunarMonth, e.LunarDay = 2023, 12, 25
	e.Constellation = "角"
	e.Holiday = true
	require.NoError(t, s.Save(ctx, e))

	got, err := s.FindBySolarDate(ctx, 2024, 2, 4)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotZero(t, got.ID)
	e.ID = got.ID
	assert.Equal(t, e, *got)

	missing, err := s.FindBySolarDate(ctx, 2024, 2, 5)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	e := saju.EntryFor(2024, 2, 10)
	require.NoError(t, s.Save(ctx, e))
	e.MoonPhase = "삭"
	require.NoError(t, s.Save(ctx, e))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.FindBySolarDate(ctx, 2024, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, "삭", got.MoonPhase)
}

func TestStore_FindByLunarDate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	regular := saju.EntryFor(2023, 4, 20)
	regular.LunarYear, regular.LunarMonth, regular.LunarDay = 2023, 3, 1
	leap := saju.EntryFor(2023, 5, 20)
	leap.LunarYear, leap.LunarMonth, leap.LunarDay, leap.LunarLeapMonth = 2023, 3, 1, true
	require.NoError(t, s.SaveBatch(ctx, []saju.AlmanacEntry{regular, leap}))

	got, err := s.FindByLunarDate(ctx, 2023, 3, 1, false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2023-04-20", got.SolarDateString())

	got, err = s.FindByLunarDate(ctx, 2023, 3, 1, true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2023-05-20", got.SolarDateString())

	got, err = s.FindByLunarDate(ctx, 2023, 4, 1, false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_RangeQueries(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seed(t, s, 2023, 2024)

	feb, err := s.FindByYearMonth(ctx, 2024, 2)
	require.NoError(t, err)
	require.Len(t, feb, 29)
	assert.Equal(t, 1, feb[0].SolarDay)
	assert.Equal(t, 29, feb[28].SolarDay)

	year, err := s.FindByYearRange(ctx, 2024, 2024)
	require.NoError(t, err)
	assert.Len(t, year, 366)

	bounds, ok, err := s.YearBounds(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saju.Span{From: 2023, To: 2024}, bounds)
}

func TestStore_FindByGanzhi(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seed(t, s, 2024, 2024)

	hanja, err := s.FindByGanzhi(ctx, "甲子", saju.PillarDay, 0)
	require.NoError(t, err)
	hangul, err := s.FindByGanzhi(ctx, "갑자", saju.PillarDay, 0)
	require.NoError(t, err)
	require.NotEmpty(t, hanja)
	assert.Equal(t, hanja, hangul)

	limited, err := s.FindByGanzhi(ctx, "丙寅", saju.PillarMonth, 5)
	require.NoError(t, err)
	require.Len(t, limited, 5)
	assert.Equal(t, "2024-02-04", limited[0].SolarDateString())

	_, err = s.FindByGanzhi(ctx, "甲子", saju.PillarType("hour"), 5)
	assert.ErrorIs(t, err, saju.ErrInvalidInput)
}

func TestStore_FindMonthPillarChanges(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seed(t, s, 2024, 2024)

	from := time.Date(2024, time.February, 4, 0, 0, 0, 0, saju.KST)
	to := time.Date(2024, time.May, 31, 0, 0, 0, 0, saju.KST)
	changes, err := s.FindMonthPillarChanges(ctx, from, to)
	require.NoError(t, err)

	var names []string
	for _, c := range changes {
		names = append(names, c.SolarTermKorean)
	}
	// The change on from itself is reported.
	assert.Equal(t, []string{"입춘", "경칩", "청명", "입하"}, names)
	assert.Equal(t, "2024-02-04", changes[0].SolarDateString())
}

func TestStore_BacksAlmanacCalculator(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seed(t, s, 2000, 2000)

	ac, err := saju.NewAlmanacCalculator(s, saju.NewCalculator(saju.WithSolarTimeOffset(-32)))
	require.NoError(t, err)

	m := saju.NewSolarMoment(2000, 3, 7, 12, 34)
	fp, err := ac.FourPillars(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "경갑기경", fp.StemsKorean())

	list, err := ac.Daeun(ctx, m, saju.Male)
	require.NoError(t, err)
	assert.True(t, list.Precise)
	assert.Equal(t, "청명", list.Distance.Term)
	assert.Equal(t, 8, list.StartAge)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seed(t, s, 2024, 2024)

	require.NoError(t, s.Reset(ctx))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := s.YearBounds(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.Ping(ctx))
}
