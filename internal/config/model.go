package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of all scenarios
// found in the configuration.
type Model struct {
	Scenarios []*Scenario
}

// PathMethod selects how the initial path of a scenario is generated when
// no explicit path is given.
type PathMethod string

const (
	PathStraight PathMethod = "straight"
	PathPlanes   PathMethod = "planes"
)

// Scenario is the format-agnostic representation of a `scenario` block: one
// potential, one vacuum pair and a list of temperatures.
type Scenario struct {
	Name        string
	Description string
	Source      string

	Fields      []string
	Potential   hcl.Expression
	Gradient    hcl.Expression // nil selects the numerical gradient
	TrueVacuum  hcl.Expression
	FalseVacuum hcl.Expression
	Path        hcl.Expression // nil selects InitialPath

	Temperatures []float64
	Alpha        int
	InitialPath  PathMethod
	Knots        int
	RefineVacua  bool
	// FollowPath runs the temperatures in order, seeding each computation
	// with the previous path mapped onto the new vacua.
	FollowPath bool

	Settings Settings
	Expect   *Expectation
}

// Settings carries the numerical overrides of a scenario. Nil keeps the
// engine default.
type Settings struct {
	Error                     *float64
	ShootingIterations        *int
	IntegrationIterations     *int
	MaxStep                   *float64
	MaxPathIntegrations       *int
	MaxSinglePathDeformations *int
	BernsteinDegree           *int
	PathKnots                 *int
	GradientStep              *float64
}

// Expectation is a benchmark check applied to every result of a scenario.
type Expectation struct {
	// Action is the expected value; it is ignored when Status names a failure.
	Action float64
	// Tolerance is relative.
	Tolerance float64
	// Status is the expected status name, "success" by default.
	Status string
}
