package bounce

import "math"

const (
	newtonIterations   = 100
	gradientIterations = 1000
	gradientDamping    = 100
	backwardsTolerance = 1e-8
)

// backwardsPropagation locates the point near the true vacuum where dV/dl
// vanishes with positive curvature. It tries Newton iteration, then a damped
// gradient descent, and otherwise returns -L/1000 with the exact threshold
// disabled. On success the threshold is calibrated.
func (a *Action) backwardsPropagation() float64 {
	length := a.spline.Length()

	accept := func(l, prev float64) bool {
		return math.Abs(l-prev)/length < backwardsTolerance &&
			a.d2Vdl2(l) > 0 &&
			math.Abs(l) <= length/100
	}

	l := 0.0
	for i := 0; i < newtonIterations; i++ {
		prev := l
		l -= a.dVdl(l) / a.d2Vdl2(l)
		if math.IsNaN(l) || math.IsInf(l, 0) {
			break
		}
		if accept(l, prev) {
			a.log.Debug("Backwards propagation converged.", "method", "newton", "l", l, "iterations", i+1)
			return a.acceptMinimum(l)
		}
	}

	a.log.Debug("Backwards propagation did not converge, using minus gradient method instead.", "l", l)
	l = 0
	for i := 0; i < gradientIterations; i++ {
		prev := l
		l -= a.dVdl(l) / gradientDamping
		if math.IsNaN(l) || math.IsInf(l, 0) {
			break
		}
		if accept(l, prev) {
			a.log.Debug("Backwards propagation converged.", "method", "gradient", "l", l, "iterations", i+1)
			return a.acceptMinimum(l)
		}
	}

	l = -length / 1000
	a.log.Debug("Backwards propagation failed, using a fixed offset.", "l", l)
	a.lmin = l
	a.threshold = exactThreshold{}
	return l
}

func (a *Action) acceptMinimum(l float64) float64 {
	a.lmin = l
	a.threshold = a.calibrateThreshold()
	return l
}
