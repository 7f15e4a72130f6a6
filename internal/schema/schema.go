// Package schema holds the gohcl decoding targets of scenario files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File is the top-level structure of a scenario file.
type File struct {
	Scenarios []*Scenario `hcl:"scenario,block"`
	Remain    hcl.Body    `hcl:",remain"`
}

// Scenario represents a `scenario` block. Expressions that may refer to the
// field variables or to T are kept raw and compiled later.
type Scenario struct {
	Name        string  `hcl:"name,label"`
	Description *string `hcl:"description,optional"`

	Fields      []string       `hcl:"fields"`
	Potential   hcl.Expression `hcl:"potential"`
	Gradient    hcl.Expression `hcl:"gradient,optional"`
	TrueVacuum  hcl.Expression `hcl:"true_vacuum"`
	FalseVacuum hcl.Expression `hcl:"false_vacuum"`
	Path        hcl.Expression `hcl:"path,optional"`

	Temperature  *float64  `hcl:"temperature,optional"`
	Temperatures []float64 `hcl:"temperatures,optional"`
	Alpha        *int      `hcl:"alpha,optional"`
	InitialPath  *string   `hcl:"initial_path,optional"`
	Knots        *int      `hcl:"knots,optional"`
	RefineVacua  *bool     `hcl:"refine_vacua,optional"`
	FollowPath   *bool     `hcl:"follow_path,optional"`

	Settings *Settings `hcl:"settings,block"`
	Expect   *Expect   `hcl:"expect,block"`
}

// Settings represents the optional `settings` block of a scenario.
type Settings struct {
	Error                 *float64 `hcl:"error,optional"`
	ShootingIterations    *int     `hcl:"shooting_iterations,optional"`
	IntegrationIterations *int     `hcl:"integration_iterations,optional"`
	MaxStep               *float64 `hcl:"max_step,optional"`
	MaxPathIntegrations   *int     `hcl:"max_path_integrations,optional"`
	MaxDeformations       *int     `hcl:"max_deformations,optional"`
	BernsteinDegree       *int     `hcl:"bernstein_degree,optional"`
	PathKnots             *int     `hcl:"path_knots,optional"`
	Step                  *float64 `hcl:"step,optional"`
}

// Expect represents the optional `expect` block of a scenario.
type Expect struct {
	Action    *float64 `hcl:"action,optional"`
	Tolerance *float64 `hcl:"tolerance,optional"`
	Status    *string  `hcl:"status,optional"`
}
