package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/bounceaction/internal/ctxlog"
	"github.com/vk/bounceaction/internal/executor"
)

// ErrExpectationFailed is returned by Run when a result violates the
// benchmark expectation of its scenario.
var ErrExpectationFailed = errors.New("benchmark expectation failed")

// Run compiles every scenario, computes all of its temperatures and writes
// the report. The report is written even when expectations fail.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	problems := make([]*problem, len(a.model.Scenarios))
	total := 0
	for i, sc := range a.model.Scenarios {
		p, err := compile(ctx, a.converter, sc)
		if err != nil {
			return fmt.Errorf("scenario %q in %s: %w", sc.Name, sc.Source, err)
		}
		problems[i] = p
		total += len(sc.Temperatures)
	}

	results := make([]Result, total)
	jobs := buildJobs(problems, results)

	exec, err := executor.New(a.cfg.WorkerCount)
	if err != nil {
		return err
	}
	a.logger.Info("Starting bounce computations.", "scenarios", len(problems), "jobs", len(jobs), "workers", exec.Workers())
	if err := exec.Run(ctx, jobs...); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("Computations finished.", "results", len(results))

	failed := 0
	for _, r := range results {
		if r.Check == CheckFail {
			failed++
			a.logger.Warn("Benchmark expectation failed.", "scenario", r.Scenario, "temperature", r.Temperature, "status", r.Status)
		}
	}

	if a.cfg.Output == OutputJSON {
		err = writeJSON(a.outW, results, failed)
	} else {
		err = writeText(a.outW, results)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d results", ErrExpectationFailed, failed, len(results))
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// buildJobs creates one job per scenario and temperature, or one sequential
// job per scenario that follows its path through the temperatures. Each job
// writes only its own slots of results.
func buildJobs(problems []*problem, results []Result) []executor.Job {
	var jobs []executor.Job
	slot := 0
	for _, p := range problems {
		temps := p.sc.Temperatures
		first := slot
		slot += len(temps)

		if p.sc.FollowPath {
			jobs = append(jobs, executor.Job{
				Name: p.sc.Name,
				Task: func(ctx context.Context) error {
					var prev *seed
					for i, t := range temps {
						if err := ctx.Err(); err != nil {
							return err
						}
						res, next, err := p.solve(ctx, t, prev)
						if err != nil {
							return fmt.Errorf("temperature %g: %w", t, err)
						}
						results[first+i] = res
						prev = next
					}
					return nil
				},
			})
			continue
		}

		for i, t := range temps {
			jobs = append(jobs, executor.Job{
				Name: fmt.Sprintf("%s@%g", p.sc.Name, t),
				Task: func(ctx context.Context) error {
					res, _, err := p.solve(ctx, t, nil)
					if err != nil {
						return fmt.Errorf("temperature %g: %w", t, err)
					}
					results[first+i] = res
					return nil
				},
			})
		}
	}
	return jobs
}
