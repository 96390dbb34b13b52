package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/saju-engine/saju"
	"github.com/warp/saju-engine/saju/store"
)

// failingWriter rejects every batch.
type failingWriter struct{}

func (failingWriter) SaveBatch(context.Context, []saju.AlmanacEntry) error {
	return errors.New("disk full")
}

func seedRouter(t *testing.T) (*store.Memory, http.Handler) {
	t.Helper()
	mem := store.NewMemory()
	runner := NewSeedRunner(mem, zap.NewNop())
	runner.Start()
	t.Cleanup(runner.Stop)
	return mem, NewRouter(NewHandler(nil, WithSeeder(runner)))
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSeed_WritesEveryDayInChunks(t *testing.T) {
	// GIVEN: An empty store
	mem := store.NewMemory()

	// WHEN: Seeding twelve years (two chunks)
	n, err := Seed(context.Background(), mem, 2000, 2011)

	// THEN: Every day is written once
	require.NoError(t, err)
	assert.Equal(t, 4383, n)
	assert.Equal(t, 4383, mem.Len())
}

func TestSeed_RejectsBadRange(t *testing.T) {
	_, err := Seed(context.Background(), store.NewMemory(), 2010, 2000)
	assert.ErrorIs(t, err, saju.ErrInvalidInput)

	_, err = Seed(context.Background(), store.NewMemory(), 1899, 1900)
	assert.ErrorIs(t, err, saju.ErrInvalidInput)
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	// GIVEN: An empty store, seeding fills it
	n, err := SeedIfEmpty(ctx, mem, 2024, 2024, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 366, n)

	// WHEN: Seeding again
	n, err = SeedIfEmpty(ctx, mem, 2000, 2030, zap.NewNop())

	// THEN: Nothing is written
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 366, mem.Len())
}

func TestSeedRunner_RunCompletes(t *testing.T) {
	// GIVEN: A running seeder
	mem := store.NewMemory()
	runner := NewSeedRunner(mem, nil)
	runner.Start()
	defer runner.Stop()

	// WHEN: Submitting a run and waiting for it
	run, err := runner.Submit(2024, 2024)
	require.NoError(t, err)
	assert.Equal(t, SeedPending, run.Status)
	assert.Len(t, run.ID, 36)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done, err := runner.Wait(ctx, run.ID)

	// THEN: The run is complete and recorded
	require.NoError(t, err)
	assert.Equal(t, SeedCompleted, done.Status)
	assert.Equal(t, 366, done.Rows)
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, 366, mem.Len())
	assert.Len(t, runner.Runs(), 1)
}

func TestSeedRunner_FailedRun(t *testing.T) {
	runner := NewSeedRunner(failingWriter{}, nil)
	runner.Start()
	defer runner.Stop()

	run, err := runner.Submit(2024, 2024)
	require.NoError(t, err)

	done, err := runner.Wait(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, SeedFailed, done.Status)
	assert.Contains(t, done.Error, "disk full")
	assert.Zero(t, done.Rows)
}

func TestSeedRunner_Lifecycle(t *testing.T) {
	runner := NewSeedRunner(store.NewMemory(), nil)

	// GIVEN: A runner that was never started
	_, err := runner.Submit(2024, 2024)
	assert.ErrorIs(t, err, ErrSeederStopped)

	// WHEN: Started twice and stopped twice
	runner.Start()
	runner.Start()
	runner.Stop()
	runner.Stop()

	// THEN: Submissions are refused again
	_, err = runner.Submit(2024, 2024)
	assert.ErrorIs(t, err, ErrSeederStopped)

	// AND: A bad range is refused before the state check
	_, err = runner.Submit(2024, 2023)
	assert.ErrorIs(t, err, saju.ErrInvalidInput)

	_, err = runner.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, saju.ErrNotFound)
}

func TestSeedAlmanac_Wait(t *testing.T) {
	mem, h := seedRouter(t)

	// WHEN: Seeding 2024 synchronously
	rec := post(t, h, "/api/almanac/seed?wait=true", `{"fromYear":2024,"toYear":2024}`)

	// THEN: The completed run is returned
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decode[SeedRunDTO](t, rec)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, 366, run.Rows)
	assert.NotEmpty(t, run.CompletedAt)
	assert.Equal(t, 366, mem.Len())

	// AND: The run can be fetched by id and appears in the list
	rec = get(t, h, "/api/almanac/seed/runs/"+run.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, run.ID, decode[SeedRunDTO](t, rec).ID)

	rec = get(t, h, "/api/almanac/seed/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]SeedRunDTO](t, rec)["runs"], 1)
}

func TestSeedAlmanac_Async(t *testing.T) {
	mem, h := seedRouter(t)

	// WHEN: Seeding without waiting
	rec := post(t, h, "/api/almanac/seed", `{"fromYear":2023,"toYear":2023}`)

	// THEN: The run is accepted and eventually completes
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id := decode[SeedRunDTO](t, rec).ID
	require.Eventually(t, func() bool {
		rec := get(t, h, "/api/almanac/seed/runs/"+id)
		return decode[SeedRunDTO](t, rec).Status == "completed"
	}, 10*time.Second, 10*time.Millisecond)
	assert.Equal(t, 365, mem.Len())
}

func TestSeedAlmanac_Errors(t *testing.T) {
	_, h := seedRouter(t)

	cases := map[string]string{
		"not json":      `{"fromYear":`,
		"reversed":      `{"fromYear":2024,"toYear":2023}`,
		"out of range":  `{"fromYear":1800,"toYear":1801}`,
		"missing years": `{}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h, "/api/almanac/seed", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/almanac/seed/runs/nope").Code)
}

func TestSeedAlmanac_Unconfigured(t *testing.T) {
	h := formulaRouter(t)

	rec := post(t, h, "/api/almanac/seed", `{"fromYear":2024,"toYear":2024}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/almanac/seed/runs").Code)
}
