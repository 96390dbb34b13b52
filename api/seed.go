/*
seed.go - Almanac seeding

PURPOSE:
  Fills an almanac store with formula-generated rows so the almanac path
  can run without an external calendar dataset. Rows are generated in
  chunks of years (in parallel within a chunk) and written one batch per
  chunk.

ENDPOINTS:
  POST /api/almanac/seed           Queue a run for {fromYear, toYear}
                                   (?wait=true blocks until it finishes)
  GET  /api/almanac/seed/runs      List runs, newest first
  GET  /api/almanac/seed/runs/{id} Get one run

SEE ALSO:
  - scheduler.go: SeedRunner
  - saju/generate.go: row generation
  - cmd/saju: `saju seed` calls Seed directly
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/saju-engine/saju"
)

// AlmanacWriter is the write side of an almanac store.
type AlmanacWriter interface {
	SaveBatch(ctx context.Context, entries []saju.AlmanacEntry) error
}

// CountingWriter is an AlmanacWriter that can report how many rows it holds.
type CountingWriter interface {
	AlmanacWriter
	Count(ctx context.Context) (int, error)
}

// seedChunkYears bounds how many years are generated before a write.
const seedChunkYears = 10

// Seed generates and writes rows for [fromYear, toYear]. It returns the
// number of rows written, which is partial when an error interrupts it.
func Seed(ctx context.Context, w AlmanacWriter, fromYear, toYear int) (int, error) {
	if err := checkSeedRange(fromYear, toYear); err != nil {
		return 0, err
	}

	written := 0
	for from := fromYear; from <= toYear; from += seedChunkYears {
		to := min(from+seedChunkYears-1, toYear)

		rows, err := saju.GenerateAlmanac(ctx, from, to)
		if err != nil {
			return written, fmt.Errorf("generate %d-%d: %w", from, to, err)
		}
		if err := w.SaveBatch(ctx, rows); err != nil {
			return written, fmt.Errorf("save %d-%d: %w", from, to, err)
		}
		written += len(rows)
		almanacRowsSeeded.Add(float64(len(rows)))
	}
	return written, nil
}

// =============================================================================
// SEED ENDPOINTS
// =============================================================================

// SeedAlmanac queues a seed run.
// POST /api/almanac/seed
func (h *Handler) SeedAlmanac(w http.ResponseWriter, r *http.Request) {
	if h.seeder == nil {
		h.fail(w, "seed", saju.ErrUnconfigured)
		return
	}

	var req SeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", err)
		return
	}
	if err := requestValidate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid seed range", "invalid_input", err)
		return
	}

	run, err := h.seeder.Submit(req.FromYear, req.ToYear)
	if err != nil {
		h.fail(w, "seed", err)
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		run, err = h.seeder.Wait(r.Context(), run.ID)
		if err != nil {
			h.fail(w, "seed", err)
			return
		}
		status := http.StatusOK
		if run.Status == SeedFailed {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, toSeedRunDTO(run))
		return
	}

	writeJSON(w, http.StatusAccepted, toSeedRunDTO(run))
}

// ListSeedRuns returns the seed run history.
// GET /api/almanac/seed/runs
func (h *Handler) ListSeedRuns(w http.ResponseWriter, r *http.Request) {
	if h.seeder == nil {
		h.fail(w, "seed", saju.ErrUnconfigured)
		return
	}

	runs := h.seeder.Runs()
	dtos := make([]SeedRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toSeedRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// GetSeedRun returns one seed run.
// GET /api/almanac/seed/runs/{id}
func (h *Handler) GetSeedRun(w http.ResponseWriter, r *http.Request) {
	if h.seeder == nil {
		h.fail(w, "seed", saju.ErrUnconfigured)
		return
	}

	id := chi.URLParam(r, "id")
	run, ok := h.seeder.Get(id)
	if !ok {
		h.fail(w, "seed", &saju.NotFoundError{Kind: "seed run", Key: id})
		return
	}
	writeJSON(w, http.StatusOK, toSeedRunDTO(run))
}

func toSeedRunDTO(run SeedRun) SeedRunDTO {
	dto := SeedRunDTO{
		ID:        run.ID,
		FromYear:  run.FromYear,
		ToYear:    run.ToYear,
		Status:    string(run.Status),
		Rows:      run.Rows,
		Error:     run.Error,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
	if run.StartedAt != nil {
		dto.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

// SeedIfEmpty seeds the range when the store has no rows yet. Used on
// server start.
func SeedIfEmpty(ctx context.Context, store CountingWriter, fromYear, toYear int, logger *zap.Logger) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count almanac rows: %w", err)
	}
	if n > 0 {
		logger.Info("almanac already populated, skipping seed", zap.Int("rows", n))
		return 0, nil
	}
	written, err := Seed(ctx, store, fromYear, toYear)
	if err != nil {
		return written, err
	}
	logger.Info("seeded almanac",
		zap.Int("from", fromYear),
		zap.Int("to", toYear),
		zap.Int("rows", written))
	return written, nil
}
