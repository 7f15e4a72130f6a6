package hcl

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/bounceaction/internal/config"
	"github.com/vk/bounceaction/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// temperatureVar is the variable name bound to the temperature.
const temperatureVar = "T"

var errNotNumeric = errors.New("expression does not evaluate to a number")

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

func evalContext(fields []string, phi []float64, t float64) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(fields)+1)
	for i, name := range fields {
		vars[name] = cty.NumberFloatVal(phi[i])
	}
	vars[temperatureVar] = cty.NumberFloatVal(t)
	return &hcl.EvalContext{Variables: vars, Functions: functions}
}

// typeCheck evaluates expr with unknown variables. It catches references to
// undeclared names, unknown functions and results of the wrong type before any
// computation starts.
func typeCheck(expr hcl.Expression, fields []string, want cty.Type) error {
	vars := make(map[string]cty.Value, len(fields)+1)
	for _, name := range fields {
		vars[name] = cty.UnknownVal(cty.Number)
	}
	vars[temperatureVar] = cty.UnknownVal(cty.Number)

	val, diags := expr.Value(&hcl.EvalContext{Variables: vars, Functions: functions})
	if diags.HasErrors() {
		return diags
	}
	if _, err := convert.Convert(val, want); err != nil {
		return fmt.Errorf("%s: cannot convert %s to %s: %w",
			expr.Range(), val.Type().FriendlyName(), want.FriendlyName(), err)
	}
	return nil
}

func finite(phi []float64, t float64) bool {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return false
	}
	for _, v := range phi {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// decode converts val to the Go value behind target.
func decode(val cty.Value, want cty.Type, target any) error {
	if !val.IsWhollyKnown() || val.IsNull() {
		return errNotNumeric
	}
	converted, err := convert.Convert(val, want)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}

// Scalar compiles a number-valued expression over the named fields. The
// returned function yields NaN where the expression cannot be evaluated.
func (c *Converter) Scalar(ctx context.Context, expr hcl.Expression, fields []string) (config.ScalarFunc, error) {
	if err := typeCheck(expr, fields, cty.Number); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Compiled scalar expression.", "range", expr.Range().String(), "fields", fields)

	n := len(fields)
	return func(phi []float64, t float64) float64 {
		if len(phi) != n {
			panic(fmt.Sprintf("hcl: expression of %d fields called with %d values", n, len(phi)))
		}
		if !finite(phi, t) {
			return math.NaN()
		}
		val, diags := expr.Value(evalContext(fields, phi, t))
		if diags.HasErrors() {
			return math.NaN()
		}
		var out float64
		if err := decode(val, cty.Number, &out); err != nil {
			return math.NaN()
		}
		return out
	}, nil
}

// Vector compiles a list of numbers with one entry per field. The returned
// function yields NaN entries where the expression cannot be evaluated.
func (c *Converter) Vector(ctx context.Context, expr hcl.Expression, fields []string) (config.VectorFunc, error) {
	want := cty.List(cty.Number)
	if err := typeCheck(expr, fields, want); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Compiled vector expression.", "range", expr.Range().String(), "fields", fields)

	n := len(fields)
	nan := func() []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	return func(phi []float64, t float64) []float64 {
		if len(phi) != n {
			panic(fmt.Sprintf("hcl: expression of %d fields called with %d values", n, len(phi)))
		}
		if !finite(phi, t) {
			return nan()
		}
		val, diags := expr.Value(evalContext(fields, phi, t))
		if diags.HasErrors() {
			return nan()
		}
		var out []float64
		if err := decode(val, want, &out); err != nil || len(out) != n {
			return nan()
		}
		return out
	}, nil
}

// Point evaluates a list of numbers that may only depend on T.
func (c *Converter) Point(ctx context.Context, expr hcl.Expression, t float64) ([]float64, error) {
	val, diags := expr.Value(evalContext(nil, nil, t))
	if diags.HasErrors() {
		return nil, diags
	}
	var out []float64
	if err := decode(val, cty.List(cty.Number), &out); err != nil {
		return nil, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	return out, nil
}

// Points evaluates a list of lists of numbers that may only depend on T.
func (c *Converter) Points(ctx context.Context, expr hcl.Expression, t float64) ([][]float64, error) {
	val, diags := expr.Value(evalContext(nil, nil, t))
	if diags.HasErrors() {
		return nil, diags
	}
	var out [][]float64
	if err := decode(val, cty.List(cty.List(cty.Number)), &out); err != nil {
		return nil, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	return out, nil
}
