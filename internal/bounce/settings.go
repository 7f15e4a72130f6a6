package bounce

import (
	"errors"
	"fmt"
	"math"
)

// Settings holds the numerical parameters of one computation.
type Settings struct {
	// Alpha is D-1: 2 for the O(3) finite temperature bounce, 3 for O(4).
	Alpha int
	// Error is the relative tolerance of the shooting method.
	Error float64
	// ShootingIterations caps the outer binary search.
	ShootingIterations int
	// IntegrationIterations caps the Runge-Kutta steps of one shot.
	IntegrationIterations int
	// MaxStep caps the radial step. Zero leaves the step unbounded.
	MaxStep float64
	// MaxPathIntegrations bounds the deform/solve cycles.
	MaxPathIntegrations int
	// MaxSinglePathDeformations caps the relaxation steps of one deformation.
	MaxSinglePathDeformations int
	BernsteinDegree           int
	PathKnots                 int
	// GradientStep is the finite difference step used when the gradient or
	// the Hessian has to be computed numerically.
	GradientStep float64
}

// DefaultSettings returns the settings used by the literature benchmarks.
func DefaultSettings() Settings {
	return Settings{
		Alpha:                     2,
		Error:                     1e-6,
		ShootingIterations:        100,
		IntegrationIterations:     100000,
		MaxPathIntegrations:       6,
		MaxSinglePathDeformations: 200,
		BernsteinDegree:           10,
		PathKnots:                 50,
		GradientStep:              0.01,
	}
}

// ErrInvalidSettings is wrapped by every Settings.Validate failure.
var ErrInvalidSettings = errors.New("bounce: invalid settings")

// Validate checks that the settings describe a computation the engine can run.
func (s Settings) Validate() error {
	switch {
	case s.Alpha != 2 && s.Alpha != 3:
		return fmt.Errorf("%w: alpha must be 2 or 3, got %d", ErrInvalidSettings, s.Alpha)
	case !(s.Error > 0):
		return fmt.Errorf("%w: error must be positive, got %g", ErrInvalidSettings, s.Error)
	case s.ShootingIterations < 1:
		return fmt.Errorf("%w: shooting iterations must be positive", ErrInvalidSettings)
	case s.IntegrationIterations < 5:
		return fmt.Errorf("%w: integration iterations must be at least 5", ErrInvalidSettings)
	case s.MaxStep < 0:
		return fmt.Errorf("%w: max step must not be negative", ErrInvalidSettings)
	case s.MaxPathIntegrations < 1:
		return fmt.Errorf("%w: max path integrations must be positive", ErrInvalidSettings)
	case s.MaxSinglePathDeformations < 1:
		return fmt.Errorf("%w: max single path deformations must be positive", ErrInvalidSettings)
	case s.BernsteinDegree < 2:
		return fmt.Errorf("%w: bernstein degree must be at least 2, got %d", ErrInvalidSettings, s.BernsteinDegree)
	case s.PathKnots < 4:
		return fmt.Errorf("%w: path knots must be at least 4, got %d", ErrInvalidSettings, s.PathKnots)
	case !(s.GradientStep > 0):
		return fmt.Errorf("%w: gradient step must be positive", ErrInvalidSettings)
	}
	return nil
}

// solidAngle returns the area of the unit sphere in D = Alpha+1 dimensions.
func solidAngle(alpha int) float64 {
	switch alpha {
	case 2:
		return 4 * math.Pi
	case 3:
		return 2 * math.Pi * math.Pi
	}
	panic(fmt.Sprintf("bounce: unsupported alpha %d", alpha))
}
