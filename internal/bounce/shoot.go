package bounce

import (
	"math"

	"github.com/vk/bounceaction/internal/ode"
)

const (
	// minShotSteps is the number of steps taken before the stop conditions apply.
	minShotSteps = 5
	// epsAbsFactor scales the shooting tolerance into the step control target.
	epsAbsFactor = 0.0015
	// minProfilePoints is the size below which a shot is considered broken.
	minProfilePoints = 7
	// upperLimitResolution is the number of samples used to bound the search.
	upperLimitResolution = 1000
	// logModeFloor is the lower end of the logarithmic search, log(l0 - lmin).
	logModeFloor = -200
)

// d2ldrho2 is the right-hand side of the bounce equation
// l'' = dV/dl - α l'/ρ, using the rasterised dV/dl.
func (a *Action) d2ldrho2(l, rho, dldrho float64) float64 {
	if dldrho == 0 {
		return a.dVdlFast(l)
	}
	return a.dVdlFast(l) - float64(a.settings.Alpha)*dldrho/rho
}

// integrateBounce runs one shot from l0 = lmin + delta and classifies it.
func (a *Action) integrateBounce(l0, delta float64) (Profile, Shot) {
	length := a.spline.Length()
	tol := a.settings.Error
	epsAbs := tol * epsAbsFactor

	s, ok := a.exactSolution(l0, delta)
	if !ok || a.status != NotCalculated {
		return Profile{}, ShotNotConverged
	}

	p := Profile{
		Rho:      []float64{0, s.rho},
		L:        []float64{l0, s.l},
		DLDRho:   []float64{0, s.slope},
		D2LDRho2: []float64{a.d2ldrho2(l0, 0, 0), a.d2ldrho2(s.l, s.rho, s.slope)},
	}
	step := s.rho / 100

	stepper := ode.NewCashKarp(2, func(rho float64, y, dydx []float64) {
		dydx[0] = y[1]
		dydx[1] = a.d2ldrho2(y[0], rho, y[1])
	})
	y := make([]float64, 2)
	dydx := make([]float64, 2)
	next := make([]float64, 2)
	yerr := make([]float64, 2)

	last := func(xs []float64) float64 { return xs[len(xs)-1] }

	it := 0
	for ; it < a.settings.IntegrationIterations &&
		((last(p.DLDRho) > tol && (last(p.L)-length)/length < tol) || it < minShotSteps); it++ {
		rho := last(p.Rho)
		y[0], y[1] = last(p.L), last(p.DLDRho)
		dydx[0], dydx[1] = y[1], last(p.D2LDRho2)
		stepper.Step(rho, step, y, dydx, next, yerr)

		delta1 := math.Max(math.Abs(yerr[0]), math.Abs(yerr[1]))
		delta0 := epsAbs * math.Max(math.Abs(y[0]+next[0]), math.Abs(y[1]+next[1]))

		p.Rho = append(p.Rho, rho+step)
		p.L = append(p.L, next[0])
		p.DLDRho = append(p.DLDRho, next[1])
		p.D2LDRho2 = append(p.D2LDRho2, a.d2ldrho2(next[0], rho+step, next[1]))

		factor := 2.0
		if delta1 > 0 {
			factor = math.Pow(delta0/delta1, 0.2)
		}
		if a.settings.MaxStep > 0 {
			step = math.Min(step*factor, a.settings.MaxStep)
		} else {
			step = step * factor / 2
		}
	}

	dl, l := last(p.DLDRho), last(p.L)
	var shot Shot
	switch {
	case math.Abs(dl) <= tol && math.Abs(l-length)/length <= tol:
		shot = Converged
	case dl <= tol:
		shot = Undershoot
		n := p.Len() - 1
		p.Rho, p.L, p.DLDRho, p.D2LDRho2 = p.Rho[:n], p.L[:n], p.DLDRho[:n], p.D2LDRho2[:n]
		a.undershotOnce = true
	case (l-length)/length >= tol:
		shot = Overshoot
		a.overshotOnce = true
	default:
		// Iteration cap reached while still rolling.
		shot = Overshoot
	}
	a.log.Debug("Shot.", "result", shot.String(), "steps", it, "l0", l0,
		"rho", last(p.Rho), "l", l, "dldrho", dl)
	return p, shot
}

// solve1D runs the shooting search on the current path and returns the last
// profile. It updates the integration status and may set a failure status.
func (a *Action) solve1D() Profile {
	a.integration = Integration1DNotConverged
	if a.status != NotCalculated {
		return Profile{}
	}
	length := a.spline.Length()
	tol := a.settings.Error

	a.lmin = a.backwardsPropagation()
	a.rasterize(a.lmin)

	lmin, lmax := a.lmin, length
	if vmin, vmax := a.potentialAt(lmin), a.potentialAt(lmax); vmin > vmax {
		a.fail(BackwardsPropagationFailed, "Backwards propagation produced V(lmin) > V(L).",
			"lmin", lmin, "v_lmin", vmin, "v_L", vmax)
		return Profile{}
	}

	// Only one solution exists between the minimum and the first point where
	// V rises above the false vacuum or dV/dl turns negative.
	for j := 1; j <= upperLimitResolution; j++ {
		edge := lmin + (length-lmin)*float64(j)/upperLimitResolution
		if a.potentialAt(edge) > 0 || a.dVdl(edge) < 0 {
			lmax = edge
			break
		}
	}
	a.log.Debug("Shooting interval.", "lmin", lmin, "lmax", lmax, "length", length)

	a.undershotOnce = false
	a.overshotOnce = false

	muMin := float64(logModeFloor)
	muMax := math.Log(lmax - lmin)
	logMode := false

	var prof Profile
	var shot Shot
	broken := func(i int, l0 float64) bool {
		if prof.Len() <= minProfilePoints {
			a.fail(Integration1DFailed, "Overshoot/undershoot method failed.",
				"iteration", i, "l0", l0, "points", prof.Len())
			return true
		}
		return false
	}

	for i := 0; i < a.settings.ShootingIterations; i++ {
		if !logMode {
			l0 := (lmax + lmin) / 2
			prof, shot = a.integrateBounce(l0, l0-a.lmin)
			if a.status != NotCalculated || broken(i, l0) {
				return prof
			}
			if shot == Converged {
				a.log.Debug("Found solution.", "l0", l0, "iterations", i)
				a.integration = Integration1DConverged
				return prof
			}
			if (lmax-lmin)/length < tol*1e-7 {
				if a.overshotOnce {
					a.log.Debug("Converged due to proximity.", "l0", l0, "iterations", i)
					a.integration = Integration1DConverged
					return prof
				}
				// Never overshot: continue in log(l0 - lmin).
				logMode = true
				muMax = math.Log(lmax-lmin) + 2
			}
			switch shot {
			case Undershoot:
				lmax = l0
			case Overshoot:
				lmin = l0
			}
		}
		if logMode {
			mu := (muMin + muMax) / 2
			delta := math.Exp(mu)
			l0 := a.lmin + delta
			prof, shot = a.integrateBounce(l0, delta)
			if a.status != NotCalculated || broken(i, l0) {
				return prof
			}
			if shot == Converged {
				a.log.Debug("Found solution.", "l0", l0, "iterations", i, "mode", "log")
				a.integration = Integration1DConverged
				return prof
			}
			if math.Abs(muMax-muMin) < 1e-7 {
				a.log.Debug("Converged due to proximity.", "l0", l0, "iterations", i, "mode", "log")
				a.integration = Integration1DConverged
				return prof
			}
			switch shot {
			case Undershoot:
				muMax = mu
			case Overshoot:
				muMin = mu
			}
		}
	}
	a.log.Debug("Shooting search exhausted its iterations.", "iterations", a.settings.ShootingIterations)
	return prof
}
