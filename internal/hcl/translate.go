package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/bounceaction/internal/config"
	"github.com/vk/bounceaction/internal/ctxlog"
	"github.com/vk/bounceaction/internal/schema"
)

const (
	defaultAlpha     = 2
	defaultKnots     = 20
	defaultTolerance = 0.05
)

// isExprDefined reports whether an optional attribute was written in the
// source. gohcl fills omitted optional expressions with a zero-width
// placeholder, so a nil check alone is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// translateScenario converts the HCL-specific scenario schema into the
// agnostic model, applying defaults and validating plain values.
func translateScenario(ctx context.Context, s *schema.Scenario, file string) (*config.Scenario, error) {
	logger := ctxlog.FromContext(ctx)
	fail := func(format string, args ...any) error {
		return fmt.Errorf("scenario %q in %s: %s", s.Name, file, fmt.Sprintf(format, args...))
	}

	if len(s.Fields) == 0 {
		return nil, fail("at least one field is required")
	}
	names := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		switch {
		case !hclsyntax.ValidIdentifier(f):
			return nil, fail("field %q is not a valid identifier", f)
		case f == temperatureVar:
			return nil, fail("field name %q is reserved for the temperature", f)
		}
		if _, dup := names[f]; dup {
			return nil, fail("field %q is declared twice", f)
		}
		names[f] = struct{}{}
	}

	var diags hcl.Diagnostics
	for _, req := range []struct {
		name string
		expr hcl.Expression
	}{
		{"potential", s.Potential},
		{"true_vacuum", s.TrueVacuum},
		{"false_vacuum", s.FalseVacuum},
	} {
		if isExprDefined(req.expr) {
			continue
		}
		d := &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing required argument",
			Detail:   fmt.Sprintf("The argument %q is required, but no definition was found.", req.name),
		}
		if req.expr != nil {
			r := req.expr.Range()
			d.Subject = &r
		}
		diags = diags.Append(d)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("scenario %q in %s: %w", s.Name, file, diags)
	}

	sc := &config.Scenario{
		Name:        s.Name,
		Source:      file,
		Fields:      append([]string(nil), s.Fields...),
		Potential:   s.Potential,
		TrueVacuum:  s.TrueVacuum,
		FalseVacuum: s.FalseVacuum,
		Alpha:       defaultAlpha,
		InitialPath: config.PathStraight,
		Knots:       defaultKnots,
	}
	if s.Description != nil {
		sc.Description = *s.Description
	}
	if isExprDefined(s.Gradient) {
		sc.Gradient = s.Gradient
	}
	if isExprDefined(s.Path) {
		sc.Path = s.Path
	}

	switch {
	case s.Temperature != nil && len(s.Temperatures) > 0:
		return nil, fail("temperature and temperatures are mutually exclusive")
	case len(s.Temperatures) > 0:
		sc.Temperatures = append([]float64(nil), s.Temperatures...)
	case s.Temperature != nil:
		sc.Temperatures = []float64{*s.Temperature}
	default:
		sc.Temperatures = []float64{0}
	}

	if s.Alpha != nil {
		if *s.Alpha != 2 && *s.Alpha != 3 {
			return nil, fail("alpha must be 2 or 3, got %d", *s.Alpha)
		}
		sc.Alpha = *s.Alpha
	}
	if s.InitialPath != nil {
		switch m := config.PathMethod(*s.InitialPath); m {
		case config.PathStraight, config.PathPlanes:
			sc.InitialPath = m
		default:
			return nil, fail("initial_path must be %q or %q, got %q", config.PathStraight, config.PathPlanes, *s.InitialPath)
		}
	}
	if s.Knots != nil {
		if *s.Knots < 2 || *s.Knots == 3 {
			return nil, fail("knots must be 2 or at least 4, got %d", *s.Knots)
		}
		sc.Knots = *s.Knots
	}
	if s.RefineVacua != nil {
		sc.RefineVacua = *s.RefineVacua
	}
	if s.FollowPath != nil {
		sc.FollowPath = *s.FollowPath
	}

	if s.Settings != nil {
		sc.Settings = config.Settings{
			Error:                     s.Settings.Error,
			ShootingIterations:        s.Settings.ShootingIterations,
			IntegrationIterations:     s.Settings.IntegrationIterations,
			MaxStep:                   s.Settings.MaxStep,
			MaxPathIntegrations:       s.Settings.MaxPathIntegrations,
			MaxSinglePathDeformations: s.Settings.MaxDeformations,
			BernsteinDegree:           s.Settings.BernsteinDegree,
			PathKnots:                 s.Settings.PathKnots,
			GradientStep:              s.Settings.Step,
		}
	}

	if s.Expect != nil {
		exp := &config.Expectation{Tolerance: defaultTolerance, Status: "success"}
		if s.Expect.Status != nil {
			exp.Status = *s.Expect.Status
		}
		if s.Expect.Tolerance != nil {
			if !(*s.Expect.Tolerance > 0) {
				return nil, fail("expect.tolerance must be positive")
			}
			exp.Tolerance = *s.Expect.Tolerance
		}
		switch {
		case s.Expect.Action != nil:
			exp.Action = *s.Expect.Action
		case exp.Status == "success":
			return nil, fail("expect.action is required unless a failure status is expected")
		}
		sc.Expect = exp
	}

	logger.Debug("Translated scenario.", "scenario", sc.Name, "fields", len(sc.Fields), "temperatures", len(sc.Temperatures))
	return sc, nil
}
