/*
Package sqlite provides a SQLite-backed almanac (만세력) store.

PURPOSE:
  Implements saju.CalendarDataSource and saju.MonthChangeFinder on a single
  calendar_data table, one row per solar date. The engine only reads; the
  write path exists for seeding and imports.

KEY TABLE:
  calendar_data: solar date (unique), lunar date, year/month/day ganzhi in
                 hanja and Hangul, weekday, 28-mansion constellation, moon
                 phase, solar-term name and time on boundary days, holiday.

INDEXES:
  - idx_calendar_solar:        unique solar date (hot path)
  - idx_calendar_lunar:        lunar date resolution
  - idx_calendar_*_ganzhi:     find-by-ganzhi queries

NOT-FOUND CONVENTION:
  Finders return (nil, nil) when no row matches. Errors are reserved for
  I/O failures; the engine turns a nil row into saju.ErrNotFound.

WAL MODE:
  Opened with WAL so concurrent readers never block the seeding writer.

USAGE:
  store, err := sqlite.New("./data/almanac.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ac, err := saju.NewAlmanacCalculator(store, saju.NewCalculator())

SEE ALSO:
  - saju/almanac.go: CalendarDataSource and MonthChangeFinder
  - saju/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/saju-engine/saju"
)

// Store implements saju.CalendarDataSource using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ saju.CalendarDataSource = (*Store)(nil)
	_ saju.MonthChangeFinder  = (*Store)(nil)
)

// New opens (and migrates) the almanac at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives on one connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection (used by the health endpoint).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calendar_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		solar_year INTEGER NOT NULL,
		solar_month INTEGER NOT NULL,
		solar_day INTEGER NOT NULL,
		lunar_year INTEGER,
		lunar_month INTEGER,
		lunar_day INTEGER,
		lunar_leap_month INTEGER NOT NULL DEFAULT 0,
		year_ganzhi_hanja TEXT,
		year_ganzhi_korean TEXT,
		month_ganzhi_hanja TEXT,
		month_ganzhi_korean TEXT,
		day_ganzhi_hanja TEXT,
		day_ganzhi_korean TEXT,
		weekday_hanja TEXT,
		weekday_korean TEXT,
		constellation TEXT,
		moon_phase TEXT,
		solar_term_hanja TEXT,
		solar_term_korean TEXT,
		solar_term_time TEXT,
		holiday INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_calendar_solar
		ON calendar_data(solar_year, solar_month, solar_day);
	CREATE INDEX IF NOT EXISTS idx_calendar_lunar
		ON calendar_data(lunar_year, lunar_month, lunar_day, lunar_leap_month);
	CREATE INDEX IF NOT EXISTS idx_calendar_year_ganzhi
		ON calendar_data(year_ganzhi_hanja);
	CREATE INDEX IF NOT EXISTS idx_calendar_month_ganzhi
		ON calendar_data(month_ganzhi_hanja);
	CREATE INDEX IF NOT EXISTS idx_calendar_day_ganzhi
		ON calendar_data(day_ganzhi_hanja);
	`

	_, err := s.db.Exec(schema)
	return err
}

const entryColumns = `
	id, solar_year, solar_month, solar_day,
	lunar_year, lunar_month, lunar_day, lunar_leap_month,
	year_ganzhi_hanja, year_ganzhi_korean, month_ganzhi_hanja, month_ganzhi_korean,
	day_ganzhi_hanja, day_ganzhi_korean, weekday_hanja, weekday_korean,
	constellation, moon_phase, solar_term_hanja, solar_term_korean, solar_term_time,
	holiday`

// dateKey orders rows as YYYYMMDD integers.
const dateKey = `(solar_year * 10000 + solar_month * 100 + solar_day)`

// =============================================================================
// WRITES
// =============================================================================

// Save inserts or replaces the row for the entry's solar date.
func (s *Store) Save(ctx context.Context, e saju.AlmanacEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveEntry(ctx, s.db, e)
}

// SaveBatch writes many rows in one transaction.
func (s *Store) SaveBatch(ctx context.Context, entries []saju.AlmanacEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, e := range entries {
		if err := s.saveEntry(ctx, sqlTx, e); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

func (s *Store) saveEntry(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, e saju.AlmanacEntry) error {
	query := `
		INSERT INTO calendar_data
		(solar_year, solar_month, solar_day, lunar_year, lunar_month, lunar_day, lunar_leap_month,
		 year_ganzhi_hanja, year_ganzhi_korean, month_ganzhi_hanja, month_ganzhi_korean,
		 day_ganzhi_hanja, day_ganzhi_korean, weekday_hanja, weekday_korean,
		 constellation, moon_phase, solar_term_hanja, solar_term_korean, solar_term_time,
		 holiday, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(solar_year, solar_month, solar_day) DO UPDATE SET
			lunar_year = excluded.lunar_year,
			lunar_month = excluded.lunar_month,
			lunar_day = excluded.lunar_day,
			lunar_leap_month = excluded.lunar_leap_month,
			year_ganzhi_hanja = excluded.year_ganzhi_hanja,
			year_ganzhi_korean = excluded.year_ganzhi_korean,
			month_ganzhi_hanja = excluded.month_ganzhi_hanja,
			month_ganzhi_korean = excluded.month_ganzhi_korean,
			day_ganzhi_hanja = excluded.day_ganzhi_hanja,
			day_ganzhi_korean = excluded.day_ganzhi_korean,
			weekday_hanja = excluded.weekday_hanja,
			weekday_korean = excluded.weekday_korean,
			constellation = excluded.constellation,
			moon_phase = excluded.moon_phase,
			solar_term_hanja = excluded.solar_term_hanja,
			solar_term_korean = excluded.solar_term_korean,
			solar_term_time = excluded.solar_term_time,
			holiday = excluded.holiday
	`

	_, err := db.ExecContext(ctx, query,
		e.SolarYear, e.SolarMonth, e.SolarDay,
		nullInt(e.LunarYear), nullInt(e.LunarMonth), nullInt(e.LunarDay), e.LunarLeapMonth,
		nullString(e.YearGanzhiHanja), nullString(e.YearGanzhiKorean),
		nullString(e.MonthGanzhiHanja), nullString(e.MonthGanzhiKorean),
		nullString(e.DayGanzhiHanja), nullString(e.DayGanzhiKorean),
		nullString(e.WeekdayHanja), nullString(e.WeekdayKorean),
		nullString(e.Constellation), nullString(e.MoonPhase),
		nullString(e.SolarTermHanja), nullString(e.SolarTermKorean), nullString(e.SolarTermTime),
		e.Holiday,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save almanac row %s: %w", e.SolarDateString(), err)
	}
	return nil
}

// =============================================================================
// FINDERS (saju.CalendarDataSource)
// =============================================================================

func (s *Store) FindBySolarDate(ctx context.Context, year, month, day int) (*saju.AlmanacEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entryColumns + ` FROM calendar_data
		WHERE solar_year = ? AND solar_month = ? AND solar_day = ?`

	return s.queryOne(ctx, query, year, month, day)
}

func (s *Store) FindByLunarDate(ctx context.Context, year, month, day int, leapMonth bool) (*saju.AlmanacEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entryColumns + ` FROM calendar_data
		WHERE lunar_year = ? AND lunar_month = ? AND lunar_day = ? AND lunar_leap_month = ?
		LIMIT 1`

	return s.queryOne(ctx, query, year, month, day, leapMonth)
}

// FindByYearMonth returns the month's rows ascending by day.
func (s *Store) FindByYearMonth(ctx context.Context, year, month int) ([]saju.AlmanacEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entryColumns + ` FROM calendar_data
		WHERE solar_year = ? AND solar_month = ?
		ORDER BY solar_day ASC`

	return s.queryEntries(ctx, query, year, month)
}

// FindByGanzhi matches the hanja or Hangul column of the pillar type,
// earliest dates first.
func (s *Store) FindByGanzhi(ctx context.Context, ganzhi string, pillarType saju.PillarType, limit int) ([]saju.AlmanacEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prefix string
	switch pillarType {
	case saju.PillarYear:
		prefix = "year"
	case saju.PillarMonth:
		prefix = "month"
	case saju.PillarDay:
		prefix = "day"
	default:
		return nil, fmt.Errorf("%w: unknown pillar type %q", saju.ErrInvalidInput, pillarType)
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	query := fmt.Sprintf(`SELECT `+entryColumns+` FROM calendar_data
		WHERE %[1]s_ganzhi_hanja = ? OR %[1]s_ganzhi_korean = ?
		ORDER BY `+dateKey+` ASC
		LIMIT ?`, prefix)

	return s.queryEntries(ctx, query, ganzhi, ganzhi, limit)
}

func (s *Store) FindByYearRange(ctx context.Context, fromYear, toYear int) ([]saju.AlmanacEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entryColumns + ` FROM calendar_data
		WHERE solar_year BETWEEN ? AND ?
		ORDER BY ` + dateKey + ` ASC`

	return s.queryEntries(ctx, query, fromYear, toYear)
}

// FindMonthPillarChanges returns the first row of every new month pillar
// with a solar date in [from, to]. The row before from is consulted so a
// change on from itself is reported.
func (s *Store) FindMonthPillarChanges(ctx context.Context, from, to time.Time) ([]saju.AlmanacEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		WITH ordered AS (
			SELECT ` + entryColumns + `,
			       ` + dateKey + ` AS date_key,
			       LAG(month_ganzhi_hanja) OVER (ORDER BY ` + dateKey + `) AS prev_month
			FROM calendar_data
			WHERE ` + dateKey + ` BETWEEN ? AND ?
		)
		SELECT ` + entryColumns + `
		FROM ordered
		WHERE prev_month IS NOT NULL
		  AND month_ganzhi_hanja <> prev_month
		  AND date_key >= ?
		ORDER BY date_key ASC
	`

	fromKey := keyOf(from)
	return s.queryEntries(ctx, query, keyOf(from.AddDate(0, 0, -1)), keyOf(to), fromKey)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Count returns the number of rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_data").Scan(&n)
	return n, err
}

// YearBounds returns the earliest and latest solar years stored.
func (s *Store) YearBounds(ctx context.Context) (saju.Span, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lo, hi sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MIN(solar_year), MAX(solar_year) FROM calendar_data").Scan(&lo, &hi)
	if err != nil {
		return saju.Span{}, false, err
	}
	if !lo.Valid {
		return saju.Span{}, false, nil
	}
	return saju.Span{From: int(lo.Int64), To: int(hi.Int64)}, true, nil
}

// Reset clears all data (for testing/reseeding).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM calendar_data")
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (*saju.AlmanacEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]saju.AlmanacEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query almanac: %w", err)
	}
	defer rows.Close()

	var entries []saju.AlmanacEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func scanEntry(row rowScanner) (saju.AlmanacEntry, error) {
	var (
		e                        saju.AlmanacEntry
		lunarYear, lunarMonth    sql.NullInt64
		lunarDay                 sql.NullInt64
		yearH, yearK             sql.NullString
		monthH, monthK           sql.NullString
		dayH, dayK               sql.NullString
		weekdayH, weekdayK       sql.NullString
		constellation, moonPhase sql.NullString
		termH, termK, termTime   sql.NullString
	)

	err := row.Scan(
		&e.ID, &e.SolarYear, &e.SolarMonth, &e.SolarDay,
		&lunarYear, &lunarMonth, &lunarDay, &e.LunarLeapMonth,
		&yearH, &yearK, &monthH, &monthK,
		&dayH, &dayK, &weekdayH, &weekdayK,
		&constellation, &moonPhase, &termH, &termK, &termTime,
		&e.Holiday,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("failed to scan almanac row: %w", err)
	}

	e.LunarYear, e.LunarMonth, e.LunarDay = int(lunarYear.Int64), int(lunarMonth.Int64), int(lunarDay.Int64)
	e.YearGanzhiHanja, e.YearGanzhiKorean = yearH.String, yearK.String
	e.MonthGanzhiHanja, e.MonthGanzhiKorean = monthH.String, monthK.String
	e.DayGanzhiHanja, e.DayGanzhiKorean = dayH.String, dayK.String
	e.WeekdayHanja, e.WeekdayKorean = weekdayH.String, weekdayK.String
	e.Constellation, e.MoonPhase = constellation.String, moonPhase.String
	e.SolarTermHanja, e.SolarTermKorean = termH.String, termK.String
	e.SolarTermTime = strings.TrimSpace(termTime.String)

	return e, nil
}

func keyOf(t time.Time) int {
	t = t.In(saju.KST)
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
