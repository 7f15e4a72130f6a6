package bounce

import (
	"fmt"
	"math"

	"github.com/vk/bounceaction/internal/spline"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
)

const (
	satisfactoryError = 0.05
	divergedError     = 5
	maxNoBestPath     = 20
	initialStepSize   = 2e-5

	stepIncrease = 1.5
	stepDecrease = 5.0
	reverseCheck = 0.15
	maxStepSize  = 0.1
	minStepSize  = 1e-4

	// projectionIntervals is the Simpson grid of the Bernstein projection.
	projectionIntervals = 300
)

// rhoOfL interpolates ρ(l) over the monotone part of a profile.
func (a *Action) rhoOfL(p Profile) (*spline.Cubic, error) {
	ls, rhos := spline.Increasing(p.L, p.Rho)
	return spline.NewCubic(ls, rhos, spline.Natural)
}

// normalForce is (dl/dρ)² φ'' - (∇V - (∇V·φ')φ'). It vanishes along a path
// that solves the Euler-Lagrange equation.
func normalForce(dldrho float64, grad, tangent, curvature []float64) []float64 {
	along := floats.Dot(grad, tangent)
	f := make([]float64, len(grad))
	for i := range f {
		f[i] = dldrho*dldrho*curvature[i] - (grad[i] - along*tangent[i])
	}
	return f
}

// deformationCheck measures the largest |F|/|∇V| on a fine grid of the
// current path and marks the deformation converged below tolerance.
func (a *Action) deformationCheck(p Profile, rhoOfL *spline.Cubic) bool {
	first, last := p.L[0], p.L[p.Len()-1]
	delta := (last - first) / float64(10*a.settings.PathKnots)
	if !(delta > 0) {
		a.fail(PathDeformationCrashed, "Radial profile spans no length of the path.",
			"first", first, "last", last)
		return false
	}

	var maxG, maxF, maxRel float64
	for k := 1; ; k++ {
		l := first + float64(k)*delta
		if l > last-delta/10 {
			break
		}
		g := a.gradient(a.spline.At(l))
		f := normalForce(1/rhoOfL.Deriv(1, l), g, a.spline.Tangent(l), a.spline.Curvature(l))
		gn, fn := floats.Norm(g, 2), floats.Norm(f, 2)
		maxG = math.Max(maxG, gn)
		maxF = math.Max(maxF, fn)
		if gn > 0 {
			maxRel = math.Max(maxRel, fn/gn)
		}
	}
	a.log.Debug("Path deformation check.", "max_gradient", maxG, "max_force", maxF,
		"max_relative_error", maxRel, "reductor", maxG/a.spline.Length(), "length", a.spline.Length())

	if maxRel < satisfactoryError {
		a.deformation = DeformationConverged
		return true
	}
	return false
}

// deformState is the working set of one path deformation. Knots are stored
// relative to the false vacuum, which stays fixed.
type deformState struct {
	l0, lf   float64
	knotL    []float64
	inverseK *mat.Dense
	rhoOfL   *spline.Cubic

	stepsize float64
	maxG     float64
	maxF     float64
	maxRel   float64

	best   [][]float64
	next   [][]float64
	forces [][]float64
}

// pathDeformation relaxes the path against the normal force of the given
// profile and installs the best path found.
func (a *Action) pathDeformation(p Profile, rhoOfL *spline.Cubic) {
	a.deformedWithout1D = false
	a.deformationHistory = a.deformationHistory[:0]

	n := a.settings.PathKnots
	first, last := p.L[0], p.L[p.Len()-1]
	delta := (last - first) / float64(n)

	inv, err := inverseGram(a.settings.BernsteinDegree, last-first)
	if err != nil {
		a.fail(PathDeformationCrashed, "Bernstein Gram matrix is singular.", "error", err)
		return
	}

	st := &deformState{
		l0:       first,
		lf:       last,
		inverseK: inv,
		rhoOfL:   rhoOfL,
		stepsize: initialStepSize,
		maxRel:   math.Inf(1),
	}
	for k := 0; k < n; k++ {
		l := first + float64(k)*delta
		phi := a.spline.At(l)
		g := a.gradient(phi)
		f := normalForce(1/rhoOfL.Deriv(1, l), g, a.spline.Tangent(l), a.spline.Curvature(l))
		st.maxG = math.Max(st.maxG, floats.Norm(g, 2))
		st.maxF = math.Max(st.maxF, floats.Norm(f, 2))

		floats.Sub(phi, a.falseVacuum)
		st.best = append(st.best, phi)
		st.knotL = append(st.knotL, l)
	}
	st.best = append(st.best, make([]float64, a.dim))
	st.knotL = append(st.knotL, a.spline.Length())
	st.next = cloneKnots(st.best)

	length := a.spline.Length()
	noBest := 0
	for it := 0; it < a.settings.MaxSinglePathDeformations; it++ {
		noBest++
		reductor := st.maxG / length / st.stepsize
		old := st.maxRel

		if err := a.singlePathDeformation(st, reductor); err != nil {
			a.fail(PathDeformationCrashed, "Path deformation step failed.", "iteration", it, "error", err)
			return
		}
		if st.maxRel != old {
			noBest = 0
		}
		if st.maxRel < satisfactoryError {
			a.log.Debug("Enough convergence.", "error", st.maxRel, "iteration", it)
			a.deformedWithout1D = true
			break
		}
		if st.maxRel > divergedError || noBest > maxNoBestPath {
			break
		}
	}

	if len(st.best) == 0 {
		a.fail(PathDeformationCrashed, "Path deformation exploded.")
		return
	}
	if st.maxRel > satisfactoryError {
		a.log.Debug("Path deformation stopped above tolerance, integrating again.", "error", st.maxRel)
	}
	for _, k := range st.best {
		floats.Add(k, a.falseVacuum)
	}
	if err := a.SetPath(st.best); err != nil {
		a.fail(PathDeformationCrashed, "Deformed path is not a valid spline.", "error", err)
	}
}

// singlePathDeformation projects st.next on the Bernstein basis, displaces
// its knots by F/reductor and updates the best path and the step size.
func (a *Action) singlePathDeformation(st *deformState, reductor float64) error {
	n := a.settings.PathKnots
	deg := a.settings.BernsteinDegree
	width := st.lf - st.l0

	grid := make([]float64, 2*projectionIntervals+1)
	floats.Span(grid, st.l0, st.lf)
	basis := make([][]float64, deg)
	for b := range basis {
		basis[b] = make([]float64, len(grid))
		for i, l := range grid {
			basis[b][i] = bernstein(deg, b, (l-st.l0)/width)
		}
	}

	coeffs := make([][]float64, a.dim)
	column := make([]float64, len(st.knotL))
	samples := make([]float64, len(grid))
	integrand := make([]float64, len(grid))
	for d := 0; d < a.dim; d++ {
		for k := range st.next {
			column[k] = st.next[k][d]
		}
		s, err := spline.NewCubic(st.knotL, column, spline.Natural)
		if err != nil {
			return fmt.Errorf("field %d: %w", d, err)
		}
		for i, l := range grid {
			samples[i] = s.At(l)
		}

		proj := make([]float64, deg)
		for b := range proj {
			floats.MulTo(integrand, basis[b], samples)
			proj[b] = integrate.Simpsons(grid, integrand)
		}
		var c mat.VecDense
		c.MulVec(st.inverseK, mat.NewVecDense(deg, proj))
		coeffs[d] = append([]float64(nil), c.RawVector().Data...)

		for k := 0; k < n; k++ {
			u := (st.knotL[k] - st.l0) / width
			var v float64
			for b := 0; b < deg; b++ {
				v += bernstein(deg, b, u) * coeffs[d][b]
			}
			st.next[k][d] = v
		}
	}

	lastForces := st.forces
	forces := make([][]float64, n)
	var maxG, maxF, maxRel float64
	phi := make([]float64, a.dim)
	dphi := make([]float64, a.dim)
	d2phi := make([]float64, a.dim)
	for k := 0; k < n; k++ {
		u := (st.knotL[k] - st.l0) / width
		for d := 0; d < a.dim; d++ {
			phi[d], dphi[d], d2phi[d] = 0, 0, 0
			for b := 0; b < deg; b++ {
				d1, d2 := bernsteinDeriv(deg, b, u)
				phi[d] += bernstein(deg, b, u) * coeffs[d][b]
				dphi[d] += d1 * coeffs[d][b] / width
				d2phi[d] += d2 * coeffs[d][b] / (width * width)
			}
		}

		at := make([]float64, a.dim)
		floats.AddTo(at, a.falseVacuum, phi)
		g := a.gradient(at)
		f := normalForce(1/st.rhoOfL.Deriv(1, st.knotL[k]), g, dphi, d2phi)
		forces[k] = f
		floats.AddScaled(st.next[k], 1/reductor, f)

		maxG = math.Max(maxG, floats.Norm(g, 2))
		maxF = math.Max(maxF, floats.Norm(f, 2))
		maxRel = maxF / maxG
	}
	a.log.Debug("Path deformation error (before integrating).", "error", maxRel, "stepsize", st.stepsize)

	if st.maxRel > maxRel {
		st.best = cloneKnots(st.next)
		st.maxG, st.maxF, st.maxRel = maxG, maxF, maxRel
		a.deformationHistory = append(a.deformationHistory, maxRel)
		a.log.Debug("Next best path found.", "error", maxRel)
	}

	if len(lastForces) > 0 {
		reversed := 0
		for k := range forces {
			if floats.Dot(forces[k], lastForces[k]) < 0 {
				reversed++
			}
		}
		if float64(reversed) > float64(len(forces))*reverseCheck {
			st.next = cloneKnots(st.best)
			st.stepsize /= stepDecrease
		} else {
			st.stepsize *= stepIncrease
		}
		st.stepsize = math.Max(math.Min(st.stepsize, maxStepSize), minStepSize)
	}
	st.forces = forces
	return nil
}

func cloneKnots(knots [][]float64) [][]float64 {
	out := make([][]float64, len(knots))
	for i, k := range knots {
		out[i] = append([]float64(nil), k...)
	}
	return out
}
