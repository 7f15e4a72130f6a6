package bounce

import (
	"fmt"

	"github.com/vk/bounceaction/internal/spline"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rasterIntervals is the number of grid intervals of the dV/dl cache.
const rasterIntervals = 1000

// raster is dV/dl sampled on [start, L] of one path and re-interpolated.
// It belongs to the spline it was built from and is dropped with it.
type raster struct {
	start float64
	dVdl  *spline.Cubic
}

// rasterize rebuilds the dV/dl cache on [start, L].
func (a *Action) rasterize(start float64) {
	length := a.spline.Length()
	ls := make([]float64, rasterIntervals+1)
	vs := make([]float64, rasterIntervals+1)
	for i := range ls {
		ls[i] = start + float64(i)/rasterIntervals*(length-start)
		vs[i] = a.dVdl(ls[i])
	}
	s, err := spline.NewCubic(ls, vs, spline.NotAKnot)
	if err != nil {
		a.log.Warn("Could not rasterize dV/dl, using direct evaluation.", "start", start, "length", length, "error", err)
		a.raster = nil
		return
	}
	a.raster = &raster{start: start, dVdl: s}
}

// dVdlFast evaluates dV/dl from the cache, falling back to the composition.
func (a *Action) dVdlFast(l float64) float64 {
	if a.raster != nil {
		return a.raster.dVdl.At(l)
	}
	return a.dVdl(l)
}

func (a *Action) gradient(phi []float64) []float64 {
	g := a.pot.Gradient(phi)
	if len(g) != a.dim {
		panic(fmt.Sprintf("bounce: gradient has %d components, want %d", len(g), a.dim))
	}
	return g
}

// dVdl is ∇V·φ' at arc length l.
func (a *Action) dVdl(l float64) float64 {
	return floats.Dot(a.gradient(a.spline.At(l)), a.spline.Tangent(l))
}

// d2Vdl2 is ∇V·φ'' + φ'ᵀHφ' at arc length l.
func (a *Action) d2Vdl2(l float64) float64 {
	phi := a.spline.At(l)
	t := a.spline.Tangent(l)
	h := a.pot.Hessian(phi)
	if r, c := h.Dims(); r != a.dim || c != a.dim {
		panic(fmt.Sprintf("bounce: hessian is %dx%d, want %dx%d", r, c, a.dim, a.dim))
	}
	tv := mat.NewVecDense(a.dim, t)
	return floats.Dot(a.gradient(phi), a.spline.Curvature(l)) + mat.Inner(tv, h, tv)
}

// potentialAt is V at arc length l of the current path.
func (a *Action) potentialAt(l float64) float64 {
	return a.pot.V(a.spline.At(l))
}
