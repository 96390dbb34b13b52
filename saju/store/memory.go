// Package store provides in-process CalendarDataSource implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/saju-engine/saju"
)

// =============================================================================
// MEMORY ALMANAC - In-memory implementation (for testing/dev)
// =============================================================================

// Memory holds almanac rows keyed by solar and lunar date.
type Memory struct {
	mu      sync.RWMutex
	bySolar map[solarKey]saju.AlmanacEntry
	byLunar map[lunarKey]solarKey
	nextID  int64
}

type solarKey struct {
	Year, Month, Day int
}

type lunarKey struct {
	Year, Month, Day int
	Leap             bool
}

func NewMemory() *Memory {
	return &Memory{
		bySolar: make(map[solarKey]saju.AlmanacEntry),
		byLunar: make(map[lunarKey]solarKey),
	}
}

// Save inserts or replaces the row for the entry's solar date.
func (m *Memory) Save(_ context.Context, e saju.AlmanacEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(e)
	return nil
}

// SaveBatch inserts many rows under one lock.
func (m *Memory) SaveBatch(_ context.Context, entries []saju.AlmanacEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.putLocked(e)
	}
	return nil
}

func (m *Memory) putLocked(e saju.AlmanacEntry) {
	k := solarKey{e.SolarYear, e.SolarMonth, e.SolarDay}
	if old, ok := m.bySolar[k]; ok {
		e.ID = old.ID
		delete(m.byLunar, lunarKey{old.LunarYear, old.LunarMonth, old.LunarDay, old.LunarLeapMonth})
	} else if e.ID == 0 {
		m.nextID++
		e.ID = m.nextID
	}
	m.bySolar[k] = e
	if e.LunarYear != 0 {
		m.byLunar[lunarKey{e.LunarYear, e.LunarMonth, e.LunarDay, e.LunarLeapMonth}] = k
	}
}

// Len returns the number of rows.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bySolar)
}

// Count is Len with the store signature shared with the SQL almanac.
func (m *Memory) Count(context.Context) (int, error) {
	return m.Len(), nil
}

// YearBounds returns the earliest and latest solar years held.
func (m *Memory) YearBounds(context.Context) (saju.Span, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var span saju.Span
	found := false
	for k := range m.bySolar {
		if !found || k.Year < span.From {
			span.From = k.Year
		}
		if !found || k.Year > span.To {
			span.To = k.Year
		}
		found = true
	}
	return span, found, nil
}

// =============================================================================
// FINDERS
// =============================================================================

func (m *Memory) FindBySolarDate(_ context.Context, year, month, day int) (*saju.AlmanacEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.bySolar[solarKey{year, month, day}]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) FindByLunarDate(_ context.Context, year, month, day int, leap bool) (*saju.AlmanacEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.byLunar[lunarKey{year, month, day, leap}]
	if !ok {
		return nil, nil
	}
	e := m.bySolar[k]
	return &e, nil
}

// FindByYearMonth returns the month's rows ascending by day.
func (m *Memory) FindByYearMonth(_ context.Context, year, month int) ([]saju.AlmanacEntry, error) {
	return m.filter(func(e *saju.AlmanacEntry) bool {
		return e.SolarYear == year && e.SolarMonth == month
	}, 0), nil
}

// FindByGanzhi matches the hanja or Hangul column of the pillar type.
func (m *Memory) FindByGanzhi(_ context.Context, ganzhi string, pt saju.PillarType, limit int) ([]saju.AlmanacEntry, error) {
	return m.filter(func(e *saju.AlmanacEntry) bool {
		switch pt {
		case saju.PillarYear:
			return e.YearGanzhiHanja == ganzhi || e.YearGanzhiKorean == ganzhi
		case saju.PillarMonth:
			return e.MonthGanzhiHanja == ganzhi || e.MonthGanzhiKorean == ganzhi
		default:
			return e.DayGanzhiHanja == ganzhi || e.DayGanzhiKorean == ganzhi
		}
	}, limit), nil
}

func (m *Memory) FindByYearRange(_ context.Context, fromYear, toYear int) ([]saju.AlmanacEntry, error) {
	return m.filter(func(e *saju.AlmanacEntry) bool {
		return e.SolarYear >= fromYear && e.SolarYear <= toYear
	}, 0), nil
}

// filter returns matching rows in date order, at most limit if limit > 0.
func (m *Memory) filter(match func(*saju.AlmanacEntry) bool, limit int) []saju.AlmanacEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []saju.AlmanacEntry
	for _, e := range m.bySolar {
		if match(&e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SolarYear != b.SolarYear {
			return a.SolarYear < b.SolarYear
		}
		if a.SolarMonth != b.SolarMonth {
			return a.SolarMonth < b.SolarMonth
		}
		return a.SolarDay < b.SolarDay
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
