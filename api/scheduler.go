/*
scheduler.go - Background almanac seed runner

PURPOSE:
  Runs almanac seed jobs off the request path. A POST to the seed endpoint
  enqueues a run and returns its id; a single worker goroutine generates
  and writes the rows, and the run record tracks progress.

DESIGN:
  - One worker goroutine drains a bounded queue, one run at a time
  - Each run gets a uuid and a status: pending, running, completed, failed
  - Stop cancels the in-flight run and fails whatever is still queued
  - Run records stay in memory for the life of the process

USAGE:
  runner := NewSeedRunner(store, logger)
  runner.Start()
  run, err := runner.Submit(2000, 2010)
  // ... later
  runner.Stop()

SEE ALSO:
  - seed.go: Seed (the work a run performs) and the HTTP endpoints
  - saju/generate.go: GenerateAlmanac
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/saju-engine/saju"
)

var (
	// ErrSeedQueueFull is returned when too many runs are pending.
	ErrSeedQueueFull = errors.New("seed queue full")

	// ErrSeederStopped is returned when submitting to a runner that is not running.
	ErrSeederStopped = errors.New("seed runner not running")
)

// SeedStatus is the lifecycle state of a seed run.
type SeedStatus string

const (
	SeedPending   SeedStatus = "pending"
	SeedRunning   SeedStatus = "running"
	SeedCompleted SeedStatus = "completed"
	SeedFailed    SeedStatus = "failed"
)

// SeedRun is a snapshot of one seed job.
type SeedRun struct {
	ID          string
	FromYear    int
	ToYear      int
	Status      SeedStatus
	Rows        int
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Done reports whether the run reached a terminal state.
func (r SeedRun) Done() bool {
	return r.Status == SeedCompleted || r.Status == SeedFailed
}

type seedJob struct {
	run  SeedRun
	done chan struct{}
}

// SeedRunner executes seed runs on a background worker.
type SeedRunner struct {
	writer    AlmanacWriter
	logger    *zap.Logger
	QueueSize int

	queue   chan *seedJob
	jobs    map[string]*seedJob
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewSeedRunner creates a runner writing to w. A nil logger is replaced
// by a no-op one.
func NewSeedRunner(w AlmanacWriter, logger *zap.Logger) *SeedRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedRunner{
		writer:    w,
		logger:    logger,
		QueueSize: 16,
		jobs:      make(map[string]*seedJob),
	}
}

// Start launches the worker. Calling Start on a running runner is a no-op.
func (sr *SeedRunner) Start() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	sr.cancel = cancel
	sr.queue = make(chan *seedJob, sr.QueueSize)
	sr.running = true
	sr.wg.Add(1)

	go sr.run(ctx, sr.queue)

	sr.logger.Info("seed runner started", zap.Int("queue_size", sr.QueueSize))
}

// Stop cancels the in-flight run, fails queued runs and waits for the
// worker to exit.
func (sr *SeedRunner) Stop() {
	sr.mu.Lock()
	if !sr.running {
		sr.mu.Unlock()
		return
	}
	sr.running = false
	sr.cancel()
	queue := sr.queue
	sr.mu.Unlock()

	sr.wg.Wait()

	// The worker has exited; nothing else reads the queue.
	for {
		select {
		case job := <-queue:
			sr.finish(job, 0, context.Canceled)
		default:
			sr.logger.Info("seed runner stopped")
			return
		}
	}
}

// Submit validates the range and enqueues a run.
func (sr *SeedRunner) Submit(fromYear, toYear int) (SeedRun, error) {
	if err := checkSeedRange(fromYear, toYear); err != nil {
		return SeedRun{}, err
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	if !sr.running {
		return SeedRun{}, ErrSeederStopped
	}
	job := &seedJob{
		run: SeedRun{
			ID:        uuid.NewString(),
			FromYear:  fromYear,
			ToYear:    toYear,
			Status:    SeedPending,
			CreatedAt: time.Now(),
		},
		done: make(chan struct{}),
	}
	select {
	case sr.queue <- job:
	default:
		return SeedRun{}, ErrSeedQueueFull
	}
	sr.jobs[job.run.ID] = job

	sr.logger.Info("seed run queued",
		zap.String("run_id", job.run.ID),
		zap.Int("from", fromYear),
		zap.Int("to", toYear))
	return job.run, nil
}

// Get returns a snapshot of a run.
func (sr *SeedRunner) Get(id string) (SeedRun, bool) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	job, ok := sr.jobs[id]
	if !ok {
		return SeedRun{}, false
	}
	return job.run, true
}

// Runs lists all known runs, newest first.
func (sr *SeedRunner) Runs() []SeedRun {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	out := make([]SeedRun, 0, len(sr.jobs))
	for _, job := range sr.jobs {
		out = append(out, job.run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Wait blocks until the run finishes or ctx is done.
func (sr *SeedRunner) Wait(ctx context.Context, id string) (SeedRun, error) {
	sr.mu.Lock()
	job, ok := sr.jobs[id]
	sr.mu.Unlock()
	if !ok {
		return SeedRun{}, &saju.NotFoundError{Kind: "seed run", Key: id}
	}

	select {
	case <-job.done:
	case <-ctx.Done():
		return SeedRun{}, ctx.Err()
	}
	run, _ := sr.Get(id)
	return run, nil
}

func (sr *SeedRunner) run(ctx context.Context, queue <-chan *seedJob) {
	defer sr.wg.Done()

	for {
		select {
		case job := <-queue:
			sr.process(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

func (sr *SeedRunner) process(ctx context.Context, job *seedJob) {
	sr.mu.Lock()
	now := time.Now()
	job.run.Status = SeedRunning
	job.run.StartedAt = &now
	from, to := job.run.FromYear, job.run.ToYear
	sr.mu.Unlock()

	rows, err := Seed(ctx, sr.writer, from, to)
	sr.finish(job, rows, err)
}

func (sr *SeedRunner) finish(job *seedJob, rows int, err error) {
	sr.mu.Lock()
	now := time.Now()
	job.run.Rows = rows
	job.run.CompletedAt = &now
	if err != nil {
		job.run.Status = SeedFailed
		job.run.Error = err.Error()
	} else {
		job.run.Status = SeedCompleted
	}
	run := job.run
	sr.mu.Unlock()
	close(job.done)

	if err != nil {
		sr.logger.Warn("seed run failed",
			zap.String("run_id", run.ID),
			zap.Int("rows", rows),
			zap.Error(err))
		return
	}
	sr.logger.Info("seed run completed",
		zap.String("run_id", run.ID),
		zap.Int("rows", rows),
		zap.Duration("elapsed", run.CompletedAt.Sub(*run.StartedAt)))
}

func checkSeedRange(fromYear, toYear int) error {
	if fromYear < saju.MinYear || toYear > saju.MaxYear || fromYear > toYear {
		return fmt.Errorf("%w: seed range %d-%d (supported %d-%d)",
			saju.ErrInvalidInput, fromYear, toYear, saju.MinYear, saju.MaxYear)
	}
	return nil
}
