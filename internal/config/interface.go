package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
)

// Loader is the interface for a format-specific scenario loader.
type Loader interface {
	// Load reads scenarios from the given paths, translates them into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// ScalarFunc is a compiled scalar expression of the fields and T.
type ScalarFunc func(phi []float64, t float64) float64

// VectorFunc is a compiled list expression of the fields and T.
type VectorFunc func(phi []float64, t float64) []float64

// Converter binds the raw expressions of a scenario to Go values. Compiled
// functions are safe for concurrent use.
type Converter interface {
	// Scalar compiles a number-valued expression over the named fields.
	Scalar(ctx context.Context, expr hcl.Expression, fields []string) (ScalarFunc, error)

	// Vector compiles a list of numbers with one entry per field.
	Vector(ctx context.Context, expr hcl.Expression, fields []string) (VectorFunc, error)

	// Point evaluates a list of numbers that may only depend on T.
	Point(ctx context.Context, expr hcl.Expression, t float64) ([]float64, error)

	// Points evaluates a list of lists of numbers that may only depend on T.
	Points(ctx context.Context, expr hcl.Expression, t float64) ([][]float64, error)
}
