package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/bounceaction/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// ErrNoWorkers is returned by New for a non-positive worker count.
var ErrNoWorkers = errors.New("executor: worker count must be positive")

// Job is a single unit of work. Task owns everything it touches; jobs never
// share mutable state.
type Job struct {
	Name string
	Task func(ctx context.Context) error
}

// Executor runs jobs with bounded concurrency.
type Executor struct {
	workers int
}

// New creates an executor running at most workers jobs at a time.
func New(workers int) (*Executor, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWorkers, workers)
	}
	return &Executor{workers: workers}, nil
}

// Workers returns the concurrency limit.
func (e *Executor) Workers() int { return e.workers }

type runIDKey struct{}

// RunIDFromContext returns the run ID assigned to the job owning ctx, or an
// empty string outside a job.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Run executes all jobs and waits for them. The first job error cancels the
// context of the remaining jobs; jobs that have not started yet are skipped.
// Run returns the first error encountered.
func (e *Executor) Run(ctx context.Context, jobs ...Job) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executor starting.", "jobs", len(jobs), "workers", e.workers)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id := uuid.NewString()
			jctx := context.WithValue(gctx, runIDKey{}, id)
			jctx = ctxlog.With(jctx, "run_id", id, "job", job.Name)
			jlog := ctxlog.FromContext(jctx)

			jlog.Debug("Job started.")
			jobStart := time.Now()
			if err := job.Task(jctx); err != nil {
				jlog.Error("Job failed.", "error", err)
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			jlog.Debug("Job finished.", "duration", time.Since(jobStart))
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		// The parent may have been cancelled after every job finished.
		err = ctx.Err()
	}
	logger.Debug("Executor finished.", "duration", time.Since(start), "error", err)
	return err
}
