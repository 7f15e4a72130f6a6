package bounce

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// ScalarFunc is a potential V(φ).
type ScalarFunc func(phi []float64) float64

// VectorFunc is a gradient ∇V(φ).
type VectorFunc func(phi []float64) []float64

// MatrixFunc is a Hessian ∂²V/∂φᵢ∂φⱼ(φ).
type MatrixFunc func(phi []float64) *mat.SymDense

// Potential bundles the callables the engine consumes. Only V is required;
// missing derivatives are computed by finite differences.
type Potential struct {
	V        ScalarFunc
	Gradient VectorFunc
	Hessian  MatrixFunc
}

// fivePoint is the fourth-order central stencil for a first derivative.
func fivePoint(step float64) fd.Formula {
	return fd.Formula{
		Stencil: []fd.Point{
			{Loc: -2, Coeff: 1.0 / 12},
			{Loc: -1, Coeff: -8.0 / 12},
			{Loc: 1, Coeff: 8.0 / 12},
			{Loc: 2, Coeff: -1.0 / 12},
		},
		Derivative: 1,
		Step:       step,
	}
}

// NumericalGradient returns the gradient of v by the five-point stencil.
func NumericalGradient(v ScalarFunc, step float64) VectorFunc {
	settings := &fd.Settings{Formula: fivePoint(step), Step: step}
	return func(phi []float64) []float64 {
		return fd.Gradient(nil, v, phi, settings)
	}
}

// NumericalHessian returns the Hessian of v by central differences.
func NumericalHessian(v ScalarFunc, step float64) MatrixFunc {
	settings := &fd.Settings{Formula: fd.Central, Step: step}
	return func(phi []float64) *mat.SymDense {
		h := mat.NewSymDense(len(phi), nil)
		fd.Hessian(h, v, phi, settings)
		return h
	}
}

// HessianFromGradient differentiates an analytic gradient once more and
// symmetrises the resulting Jacobian.
func HessianFromGradient(grad VectorFunc, step float64) MatrixFunc {
	settings := &fd.JacobianSettings{Formula: fivePoint(step), Step: step}
	return func(phi []float64) *mat.SymDense {
		n := len(phi)
		jac := mat.NewDense(n, n, nil)
		fd.Jacobian(jac, func(y, x []float64) { copy(y, grad(x)) }, phi, settings)
		h := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				h.SetSym(i, j, (jac.At(i, j)+jac.At(j, i))/2)
			}
		}
		return h
	}
}

// complete fills the missing derivatives of p and shifts V so that it
// vanishes at the false vacuum. It returns the shifted potential and the
// original value at the false vacuum.
func (p Potential) complete(falseVacuum []float64, step float64) (Potential, float64) {
	raw := p.V
	vfalse := raw(falseVacuum)
	out := Potential{
		V:        func(phi []float64) float64 { return raw(phi) - vfalse },
		Gradient: p.Gradient,
		Hessian:  p.Hessian,
	}
	if out.Gradient == nil {
		out.Gradient = NumericalGradient(out.V, step)
	}
	if out.Hessian == nil {
		if p.Gradient != nil {
			out.Hessian = HessianFromGradient(p.Gradient, step)
		} else {
			out.Hessian = NumericalHessian(raw, step)
		}
	}
	return out, vfalse
}
