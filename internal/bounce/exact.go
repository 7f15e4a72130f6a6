package bounce

import (
	"fmt"
	"math"

	"github.com/vk/bounceaction/internal/special"
	"gonum.org/v1/gonum/floats"
)

// seed is the starting point (ρ, l, dl/dρ) of a shooting run.
type seed struct {
	rho, l, slope float64
}

const (
	// seedFraction places the seed target at l0 + L/seedFraction.
	seedFraction = 20000
	// flatGradient is the |dV/dl| below which the potential is treated as
	// quadratic around its minimum.
	flatGradient = 1e-3
	// nearMinimum is the offset from the minimum below which the quadratic
	// form is used when no calibrated threshold exists.
	nearMinimum = 1e-2

	rhoFloor      = 1e-100
	bisectWidth   = 1e-10
	bisectMaxIter = 150
	smallStep     = 1e-5

	// maxBracket caps the upward search for the radius at which a closed
	// form crosses its target.
	maxBracket = 100.0
)

// branchKind tags the closed form of the linearised solution.
type branchKind int

const (
	branchSinh    branchKind = iota // Alpha 2, positive curvature
	branchSin                       // Alpha 2, negative curvature
	branchBesselI                   // Alpha 3, positive curvature
	branchBesselJ                   // Alpha 3, negative curvature
)

func (k branchKind) String() string {
	switch k {
	case branchSinh:
		return "sinh"
	case branchSin:
		return "sin"
	case branchBesselI:
		return "bessel_i"
	case branchBesselJ:
		return "bessel_j"
	}
	return fmt.Sprintf("branch(%d)", int(k))
}

// linearBranch solves l'' + α/ρ l' = dV + k(l - l0) with l(0) = l0.
type linearBranch struct {
	kind branchKind
	l0   float64
	dV   float64
	k    float64
}

// newLinearBranch selects the closed form. It reports false for a flat
// curvature, which has no closed form here.
func newLinearBranch(alpha int, l0, dV, k float64) (linearBranch, bool) {
	b := linearBranch{l0: l0, dV: dV, k: k}
	switch {
	case k == 0 || math.IsNaN(k):
		return b, false
	case alpha == 2 && k > 0:
		b.kind = branchSinh
	case alpha == 2:
		b.kind = branchSin
	case alpha == 3 && k > 0:
		b.kind = branchBesselI
	case alpha == 3:
		b.kind = branchBesselJ
	default:
		panic(fmt.Sprintf("bounce: unsupported alpha %d", alpha))
	}
	return b, true
}

func (b linearBranch) at(rho float64) float64 {
	a := math.Abs(b.k)
	x := math.Sqrt(a) * rho
	base := b.l0 - b.dV/b.k
	switch b.kind {
	case branchSinh:
		return base + b.dV*math.Sinh(x)/(math.Pow(a, 1.5)*rho)
	case branchSin:
		return base - b.dV*math.Sin(x)/(math.Pow(a, 1.5)*rho)
	case branchBesselI:
		return base + 2*b.dV*special.BesselI(1, x)/(math.Pow(a, 1.5)*rho)
	default:
		return base - 2*b.dV*special.BesselJ1(x)/(math.Pow(a, 1.5)*rho)
	}
}

func (b linearBranch) slope(rho float64) float64 {
	a := math.Abs(b.k)
	x := math.Sqrt(a) * rho
	switch b.kind {
	case branchSinh:
		return b.dV*math.Cosh(x)/(a*rho) - b.dV*math.Sinh(x)/(math.Pow(a, 1.5)*rho*rho)
	case branchSin:
		return -b.dV*math.Cos(x)/(a*rho) + b.dV*math.Sin(x)/(math.Pow(a, 1.5)*rho*rho)
	case branchBesselI:
		return -2*b.dV*special.BesselI(1, x)/(math.Pow(a, 1.5)*rho*rho) +
			b.dV*(special.BesselI(0, x)+special.BesselI(2, x))/(a*rho)
	default:
		const h = 0.001
		return (b.at(rho+h) - b.at(rho-h)) / (2 * h)
	}
}

// upper returns the initial upper bracket and whether it may be expanded.
// The oscillatory forms have their first maximum at the returned radius.
func (b linearBranch) upper() (float64, bool) {
	a := math.Abs(b.k)
	switch b.kind {
	case branchSin:
		// First root of tan(x) = x.
		return 4.493409457909 / math.Sqrt(a), false
	case branchBesselJ:
		// First root of J0(x) - 2J1(x)/x - J2(x).
		return 5.13562230184068 / math.Sqrt(a), false
	default:
		return 1, true
	}
}

// bisect finds the root of f, positive at lo and non-positive at hi.
func bisect(f func(float64) float64, lo, hi float64) float64 {
	mid := 0.0
	for i := 0; hi-lo > bisectWidth && i < bisectMaxIter; i++ {
		mid = (lo + hi) / 2
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return mid
}

// smallStepSeed is the best-effort estimate used when no closed form applies.
func smallStepSeed(l0, dV float64) seed {
	return seed{rho: smallStep, l: l0 + smallStep*smallStep*dV/2, slope: smallStep * dV}
}

// linearSolution is the linearised seed reaching target from l0. It reports
// false when it had to fall back to the small-step estimate.
func (a *Action) linearSolution(l0, target, dV, k float64) (seed, bool) {
	for shrink := 0; shrink < 5; shrink++ {
		b, ok := newLinearBranch(a.settings.Alpha, l0, dV, k)
		if !ok {
			a.log.Debug("Flat curvature, using small step estimate.", "l0", l0, "dVdl", dV)
			return smallStepSeed(l0, dV), false
		}
		f := func(rho float64) float64 { return target - b.at(rho) }
		if f(rhoFloor) < 0 {
			a.log.Debug("Linearised solution has no viable lower bracket.", "l0", l0, "branch", b.kind.String())
			return smallStepSeed(l0, dV), false
		}

		up, expand := b.upper()
		if expand {
			for f(up) > 0 && up < maxBracket {
				up++
			}
			if f(up) > 0 {
				a.log.Warn("Linearised solution never reaches its target, using small step estimate.",
					"l0", l0, "target", target, "branch", b.kind.String())
				return smallStepSeed(l0, dV), false
			}
		} else if f(up) > 0 {
			// The oscillation never reaches target; aim closer.
			a.log.Debug("Linearised solution does not reach target, retrying closer.",
				"l0", l0, "target", target, "branch", b.kind.String())
			target = l0 + (target-l0)/10
			continue
		}

		rho := bisect(f, rhoFloor, up)
		return seed{rho: rho, l: target, slope: b.slope(rho)}, true
	}
	return smallStepSeed(l0, dV), false
}

// fromMinimum is the harmonic seed around the backwards propagated minimum:
// l(ρ) = lmin + Δ·Γ(ν+1)(2/x)^ν I_ν(x) with x = √H ρ and ν = (α-1)/2.
// delta is the start offset l0 - lmin, carried separately because it can be
// far below the resolution of l0.
func (a *Action) fromMinimum(l0, delta, target float64) (seed, bool) {
	h := a.d2Vdl2(a.lmin)
	if !(h > 0) {
		a.log.Debug("Non-positive curvature at the minimum, using small step estimate.", "hessian", h)
		return smallStepSeed(l0, a.dVdl(l0)), false
	}
	sq := math.Sqrt(h)

	var shape, dshape func(x float64) float64
	switch a.settings.Alpha {
	case 2:
		shape = func(x float64) float64 { return math.Sinh(x) / x }
		dshape = func(x float64) float64 { return math.Cosh(x)/x - math.Sinh(x)/(x*x) }
	case 3:
		shape = func(x float64) float64 { return 2 * special.BesselI(1, x) / x }
		dshape = func(x float64) float64 { return 2 * special.BesselI(2, x) / x }
	default:
		panic(fmt.Sprintf("bounce: unsupported alpha %d", a.settings.Alpha))
	}

	f := func(rho float64) float64 { return (target - a.lmin) - delta*shape(sq*rho) }
	if f(rhoFloor) < 0 {
		return smallStepSeed(l0, a.dVdl(l0)), false
	}
	up := 1.0
	for f(up) > 0 && up < maxBracket {
		up++
	}
	if f(up) > 0 {
		a.log.Warn("Harmonic seed never reaches its target, using small step estimate.",
			"l0", l0, "delta", delta, "target", target, "rho", up)
		return smallStepSeed(l0, a.dVdl(l0)), false
	}
	rho := bisect(f, rhoFloor, up)
	return seed{rho: rho, l: target, slope: delta * sq * dshape(sq*rho)}, true
}

// exactThreshold is the calibrated offset from the minimum at which the two
// closed forms agree. ok is false when calibration failed or was disabled.
type exactThreshold struct {
	value float64
	ok    bool
}

// linearWeight is the logistic weight of the linearised branch at offset delta.
func linearWeight(delta, threshold float64) float64 {
	return 1 / (1 + math.Exp(-10*(delta-threshold)/threshold))
}

// exactSolution seeds a shooting run started at l0 = lmin + delta. It returns
// false and sets UndershootOvershootNegativeGrad when the gradient points the
// wrong way.
func (a *Action) exactSolution(l0, delta float64) (seed, bool) {
	dV := a.dVdl(l0)
	k := a.d2Vdl2(l0)
	target := l0 + a.spline.Length()/seedFraction

	if dV <= -flatGradient {
		a.fail(UndershootOvershootNegativeGrad, "Negative gradient at the shooting start.",
			"l0", l0, "dVdl", dV, "d2Vdl2", k)
		return seed{}, false
	}
	harmonic := func() seed {
		s, ok := a.fromMinimum(l0, delta, target)
		if !ok && dV > 0 {
			s, _ = a.linearSolution(l0, target, dV, k)
		}
		return s
	}
	if math.Abs(dV) < flatGradient {
		return harmonic(), true
	}
	if !a.threshold.ok {
		if delta < nearMinimum {
			return harmonic(), true
		}
		s, _ := a.linearSolution(l0, target, dV, k)
		return s, true
	}

	w := linearWeight(delta, a.threshold.value)
	switch {
	case w < 1e-3:
		return harmonic(), true
	case w > 1-1e-3:
		s, _ := a.linearSolution(l0, target, dV, k)
		return s, true
	}
	lin, linOK := a.linearSolution(l0, target, dV, k)
	low, lowOK := a.fromMinimum(l0, delta, target)
	switch {
	case linOK && !lowOK:
		return lin, true
	case lowOK && !linOK:
		return low, true
	}
	return seed{
		rho:   w*lin.rho + (1-w)*low.rho,
		l:     target,
		slope: w*lin.slope + (1-w)*low.slope,
	}, true
}

const (
	calibrationOffsets   = 40
	calibrationShrinks   = 6
	calibrationTolerance = 0.01
)

// calibrateThreshold scans log-spaced offsets above the minimum for the one
// where the linearised and the harmonic radii agree best.
func (a *Action) calibrateThreshold() exactThreshold {
	length := a.spline.Length()
	offsets := make([]float64, calibrationOffsets)
	frac := 1e-2
	for attempt := 0; attempt <= calibrationShrinks; attempt++ {
		floats.LogSpan(offsets, frac*length*1e-8, frac*length)
		best, bestErr := 0.0, math.Inf(1)
		for _, delta := range offsets {
			l0 := a.lmin + delta
			target := l0 + length/seedFraction
			dV := a.dVdl(l0)
			if !(dV > 0) {
				continue
			}
			lin, ok := a.linearSolution(l0, target, dV, a.d2Vdl2(l0))
			if !ok {
				continue
			}
			low, ok := a.fromMinimum(l0, delta, target)
			if !ok || low.rho == 0 {
				continue
			}
			if rel := math.Abs(lin.rho-low.rho) / low.rho; rel < bestErr {
				best, bestErr = delta, rel
			}
		}
		if bestErr < calibrationTolerance {
			a.log.Debug("Calibrated exact solution threshold.", "threshold", best, "relative_error", bestErr)
			return exactThreshold{value: best, ok: true}
		}
		frac *= 0.1
	}
	a.log.Debug("Exact solution threshold calibration failed, using the linearised branch.")
	return exactThreshold{}
}
