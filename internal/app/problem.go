package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vk/bounceaction/internal/bounce"
	"github.com/vk/bounceaction/internal/config"
	"github.com/vk/bounceaction/internal/ctxlog"
	"github.com/vk/bounceaction/internal/executor"
	"github.com/vk/bounceaction/internal/pathguess"
)

// problem is a scenario with its expressions compiled.
type problem struct {
	sc       *config.Scenario
	conv     config.Converter
	v        config.ScalarFunc
	grad     config.VectorFunc
	settings bounce.Settings
}

// seed is the final path of a previous temperature together with the vacua
// it connects.
type seed struct {
	path   [][]float64
	tv, fv []float64
}

// engineSettings applies the scenario overrides to the engine defaults.
func engineSettings(sc *config.Scenario) bounce.Settings {
	s := bounce.DefaultSettings()
	s.Alpha = sc.Alpha
	o := sc.Settings
	if o.Error != nil {
		s.Error = *o.Error
	}
	if o.ShootingIterations != nil {
		s.ShootingIterations = *o.ShootingIterations
	}
	if o.IntegrationIterations != nil {
		s.IntegrationIterations = *o.IntegrationIterations
	}
	if o.MaxStep != nil {
		s.MaxStep = *o.MaxStep
	}
	if o.MaxPathIntegrations != nil {
		s.MaxPathIntegrations = *o.MaxPathIntegrations
	}
	if o.MaxSinglePathDeformations != nil {
		s.MaxSinglePathDeformations = *o.MaxSinglePathDeformations
	}
	if o.BernsteinDegree != nil {
		s.BernsteinDegree = *o.BernsteinDegree
	}
	if o.PathKnots != nil {
		s.PathKnots = *o.PathKnots
	}
	if o.GradientStep != nil {
		s.GradientStep = *o.GradientStep
	}
	return s
}

// compile type checks the expressions of sc and validates its settings.
func compile(ctx context.Context, conv config.Converter, sc *config.Scenario) (*problem, error) {
	v, err := conv.Scalar(ctx, sc.Potential, sc.Fields)
	if err != nil {
		return nil, fmt.Errorf("potential: %w", err)
	}
	p := &problem{sc: sc, conv: conv, v: v, settings: engineSettings(sc)}
	if sc.Gradient != nil {
		if p.grad, err = conv.Vector(ctx, sc.Gradient, sc.Fields); err != nil {
			return nil, fmt.Errorf("gradient: %w", err)
		}
	}
	if err := p.settings.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// at binds the potential and its gradient to the temperature t.
func (p *problem) at(t float64) bounce.Potential {
	v := p.v
	pot := bounce.Potential{V: func(phi []float64) float64 { return v(phi, t) }}
	if p.grad != nil {
		g := p.grad
		pot.Gradient = func(phi []float64) []float64 { return g(phi, t) }
	}
	return pot
}

// vacua evaluates both vacuum expressions at t. With RefineVacua each is
// moved to the nearby minimum of V.
func (p *problem) vacua(ctx context.Context, t float64, v bounce.ScalarFunc) (tv, fv []float64, err error) {
	logger := ctxlog.FromContext(ctx)
	eval := func(name string, which func() ([]float64, error)) ([]float64, error) {
		x, err := which()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(x) != len(p.sc.Fields) {
			return nil, fmt.Errorf("%s has %d entries, want %d", name, len(x), len(p.sc.Fields))
		}
		if p.sc.RefineVacua {
			refined, err := pathguess.LocateMinimum(v, x)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			logger.Debug("Refined vacuum.", "vacuum", name, "guess", x, "minimum", refined)
			x = refined
		}
		if e := v(x); math.IsNaN(e) || math.IsInf(e, 0) {
			return nil, fmt.Errorf("potential is not finite at the %s %v", name, x)
		}
		return x, nil
	}

	tv, err = eval("true_vacuum", func() ([]float64, error) { return p.conv.Point(ctx, p.sc.TrueVacuum, t) })
	if err != nil {
		return nil, nil, err
	}
	fv, err = eval("false_vacuum", func() ([]float64, error) { return p.conv.Point(ctx, p.sc.FalseVacuum, t) })
	if err != nil {
		return nil, nil, err
	}
	return tv, fv, nil
}

// initialPath picks the explicit path, the warped previous path or the
// generated guess, in that order.
func (p *problem) initialPath(ctx context.Context, t float64, v bounce.ScalarFunc, tv, fv []float64, prev *seed) ([][]float64, error) {
	logger := ctxlog.FromContext(ctx)
	switch {
	case p.sc.Path != nil:
		path, err := p.conv.Points(ctx, p.sc.Path, t)
		if err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}
		return path, nil
	case prev != nil:
		logger.Debug("Seeding path from the previous temperature.")
		return pathguess.Warp(prev.path, prev.tv, prev.fv, tv, fv)
	case p.sc.InitialPath == config.PathPlanes:
		return pathguess.Planes(v, tv, fv, p.sc.Knots)
	default:
		return pathguess.Straight(tv, fv, p.sc.Knots)
	}
}

// solve runs one bounce computation at the temperature t. Configuration
// problems are returned as errors; a failed computation is a result.
func (p *problem) solve(ctx context.Context, t float64, prev *seed) (Result, *seed, error) {
	logger := ctxlog.FromContext(ctx).With("scenario", p.sc.Name, "temperature", t)
	ctx = ctxlog.WithLogger(ctx, logger)
	start := time.Now()

	pot := p.at(t)
	tv, fv, err := p.vacua(ctx, t, pot.V)
	if err != nil {
		return Result{}, prev, err
	}
	path, err := p.initialPath(ctx, t, pot.V, tv, fv, prev)
	if err != nil {
		return Result{}, prev, err
	}

	act, err := bounce.New(ctx, bounce.Input{
		Path:        path,
		TrueVacuum:  tv,
		FalseVacuum: fv,
		Potential:   pot,
		Temperature: t,
	}, p.settings)
	if err != nil {
		return Result{}, prev, err
	}
	act.Calculate()

	res := newResult(p.sc, act, executor.RunIDFromContext(ctx), time.Since(start))
	if act.Status().Failed() {
		logger.Warn("Bounce computation failed.", "status", res.Status)
		return res, prev, nil
	}
	logger.Info("Bounce computation finished.", "action", act.Action(), "duration", time.Since(start))
	return res, &seed{path: act.Path(), tv: tv, fv: fv}, nil
}
