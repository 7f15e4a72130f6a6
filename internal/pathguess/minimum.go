package pathguess

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// ErrNoMinimum is returned when neither minimiser produced a finite result.
var ErrNoMinimum = errors.New("pathguess: minimisation failed")

const (
	majorIterations   = 2000
	gradientThreshold = 1e-8
)

// minimize runs BFGS with a finite difference gradient on f from x0 and
// retries with Nelder-Mead when BFGS fails or does not improve on x0.
func minimize(f func([]float64) float64, x0 []float64) ([]float64, float64, error) {
	start := f(x0)
	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, f, x, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := optimize.Settings{
		MajorIterations:   majorIterations,
		GradientThreshold: gradientThreshold,
	}

	result, err := optimize.Minimize(problem, x0, &settings, &optimize.BFGS{})
	if err != nil || result == nil || !(result.F <= start) {
		result, err = optimize.Minimize(optimize.Problem{Func: f}, x0, &settings, &optimize.NelderMead{})
	}
	if result == nil || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		if err == nil {
			err = errors.New("no finite result")
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrNoMinimum, err)
	}
	if result.F > start {
		// Neither method moved downhill; the start point is the best estimate.
		return append([]float64(nil), x0...), start, nil
	}
	return append([]float64(nil), result.X...), result.F, nil
}

// LocateMinimum refines a vacuum guess to the nearest local minimum of v.
func LocateMinimum(v func([]float64) float64, guess []float64) ([]float64, error) {
	if len(guess) == 0 {
		return nil, fmt.Errorf("%w: empty guess", ErrDimensionMismatch)
	}
	x, _, err := minimize(v, guess)
	if err != nil {
		return nil, err
	}
	return x, nil
}
