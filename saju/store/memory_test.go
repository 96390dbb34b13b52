package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/saju-engine/saju"
	"github.com/warp/saju-engine/saju/store"
)

var _ saju.CalendarDataSource = (*store.Memory)(nil)

func TestMemory_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	e := saju.EntryFor(2024, 2, 10)
	e.LunarYear, e.LunarMonth, e.LunarDay = 2024, 1, 1
	require.NoError(t, mem.Save(ctx, e))

	got, err := mem.FindBySolarDate(ctx, 2024, 2, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "甲辰", got.YearGanzhiHanja)

	got, err = mem.FindByLunarDate(ctx, 2024, 1, 1, false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2024-02-10", got.SolarDateString())

	got, err = mem.FindBySolarDate(ctx, 2024, 2, 11)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_ReplaceKeepsIDAndMovesLunarKey(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	e := saju.EntryFor(2024, 2, 10)
	e.LunarYear, e.LunarMonth, e.LunarDay = 2024, 1, 1
	require.NoError(t, mem.Save(ctx, e))

	e.LunarDay = 2
	require.NoError(t, mem.Save(ctx, e))
	assert.Equal(t, 1, mem.Len())

	old, err := mem.FindByLunarDate(ctx, 2024, 1, 1, false)
	require.NoError(t, err)
	assert.Nil(t, old)

	moved, err := mem.FindByLunarDate(ctx, 2024, 1, 2, false)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, int64(1), moved.ID)
}

func TestMemory_RangeQueriesAreOrdered(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	rows, err := saju.GenerateAlmanac(ctx, 2023, 2024)
	require.NoError(t, err)
	require.NoError(t, mem.SaveBatch(ctx, rows))

	feb, err := mem.FindByYearMonth(ctx, 2024, 2)
	require.NoError(t, err)
	require.Len(t, feb, 29)
	for i, r := range feb {
		assert.Equal(t, i+1, r.SolarDay)
	}

	all, err := mem.FindByYearRange(ctx, 2024, 2024)
	require.NoError(t, err)
	assert.Len(t, all, 366)

	byYear, err := mem.FindByGanzhi(ctx, "계묘", saju.PillarYear, 5)
	require.NoError(t, err)
	require.Len(t, byYear, 5)
	assert.Equal(t, "2023-02-04", byYear[0].SolarDateString())
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	var wg sync.WaitGroup
	for d := 1; d <= 28; d++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_ = mem.Save(ctx, saju.EntryFor(2024, 2, day))
			_, _ = mem.FindByYearMonth(ctx, 2024, 2)
		}(d)
	}
	wg.Wait()

	assert.Equal(t, 28, mem.Len())
}
