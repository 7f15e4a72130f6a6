package spline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultArcSteps is the number of Simpson 3/8 sub-intervals used to build
// the arc-length map.
const DefaultArcSteps = 10000

var (
	// ErrTooFewKnots is returned for paths that cannot carry a cubic spline.
	ErrTooFewKnots = errors.New("spline: a path needs two or at least four knots")
	// ErrDimensionMismatch is returned when knots disagree on their dimension.
	ErrDimensionMismatch = errors.New("spline: knots have different dimensions")
	// ErrDegeneratePath is returned when consecutive knots coincide.
	ErrDegeneratePath = errors.New("spline: consecutive knots coincide")
)

// Path is a curve through field space parameterised by arc length.
type Path struct {
	knots    [][]float64
	dim      int
	fields   []*Cubic
	chord    []float64
	xToL     *Cubic
	lToX     *Cubic
	length   float64
	knotArcs []float64
}

// NewPath builds the arc-length parameterisation of knots with the default
// quadrature resolution. A two-knot path is densified to four knots placed at
// thirds of the segment.
func NewPath(knots [][]float64) (*Path, error) {
	return NewPathWithSteps(knots, DefaultArcSteps)
}

// NewPathWithSteps is NewPath with an explicit number of quadrature steps.
func NewPathWithSteps(knots [][]float64, steps int) (*Path, error) {
	switch {
	case len(knots) == 2:
		knots = densify(knots)
	case len(knots) < 4:
		return nil, fmt.Errorf("%w: got %d", ErrTooFewKnots, len(knots))
	}
	if steps < 1 {
		steps = DefaultArcSteps
	}

	dim := len(knots[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimensional knot", ErrDimensionMismatch)
	}
	p := &Path{dim: dim, knots: make([][]float64, len(knots))}
	for i, k := range knots {
		if len(k) != dim {
			return nil, fmt.Errorf("%w: knot %d has %d components, want %d", ErrDimensionMismatch, i, len(k), dim)
		}
		p.knots[i] = append([]float64(nil), k...)
	}

	p.chord = make([]float64, len(knots))
	for i := 1; i < len(knots); i++ {
		d := floats.Distance(p.knots[i], p.knots[i-1], 2)
		if d == 0 {
			return nil, fmt.Errorf("%w: knots %d and %d", ErrDegeneratePath, i-1, i)
		}
		p.chord[i] = p.chord[i-1] + d
	}

	column := make([]float64, len(knots))
	p.fields = make([]*Cubic, dim)
	for j := 0; j < dim; j++ {
		for i := range p.knots {
			column[i] = p.knots[i][j]
		}
		s, err := NewCubic(p.chord, column, NotAKnot)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", j, err)
		}
		p.fields[j] = s
	}

	// Integrate the speed |φ'(x)| to map chord length x to arc length l.
	total := p.chord[len(p.chord)-1]
	h := total / float64(steps)
	xs := make([]float64, steps+1)
	ls := make([]float64, steps+1)
	for i := 1; i <= steps; i++ {
		x0 := float64(i-1) * h
		x1 := float64(i) * h
		xs[i] = x1
		ls[i] = ls[i-1] + (p.speed(x0)+3*p.speed((2*x0+x1)/3)+3*p.speed((x0+2*x1)/3)+p.speed(x1))*(x1-x0)/8
	}
	p.length = ls[steps]

	var err error
	if p.xToL, err = NewCubic(xs, ls, Natural); err != nil {
		return nil, fmt.Errorf("chord to arc map: %w", err)
	}
	if p.lToX, err = NewCubic(ls, xs, Natural); err != nil {
		return nil, fmt.Errorf("arc to chord map: %w", err)
	}

	p.knotArcs = make([]float64, len(p.chord))
	for i, x := range p.chord {
		p.knotArcs[i] = p.xToL.At(x)
	}
	return p, nil
}

func densify(knots [][]float64) [][]float64 {
	a, b := knots[0], knots[1]
	first := make([]float64, len(a))
	second := make([]float64, len(a))
	for i := range a {
		first[i] = a[i]*2/3 + b[i]/3
		second[i] = a[i]/3 + b[i]*2/3
	}
	return [][]float64{a, first, second, b}
}

func (p *Path) speed(x float64) float64 {
	var r float64
	for _, s := range p.fields {
		d := s.Deriv(1, x)
		r += d * d
	}
	return math.Sqrt(r)
}

// Length returns the total arc length L.
func (p *Path) Length() float64 { return p.length }

// Dim returns the field-space dimension.
func (p *Path) Dim() int { return p.dim }

// Knots returns a copy of the knots carried by the spline, including the
// ones inserted by densification.
func (p *Path) Knots() [][]float64 {
	out := make([][]float64, len(p.knots))
	for i, k := range p.knots {
		out[i] = append([]float64(nil), k...)
	}
	return out
}

// KnotPositions returns the arc length of every knot.
func (p *Path) KnotPositions() []float64 {
	return append([]float64(nil), p.knotArcs...)
}

// At returns the field-space point at arc length l.
func (p *Path) At(l float64) []float64 {
	x := p.lToX.At(l)
	out := make([]float64, p.dim)
	for j, s := range p.fields {
		out[j] = s.At(x)
	}
	return out
}

// Tangent returns the unit tangent dφ/dl at arc length l.
func (p *Path) Tangent(l float64) []float64 {
	return p.tangentAt(p.lToX.At(l))
}

func (p *Path) tangentAt(x float64) []float64 {
	out := make([]float64, p.dim)
	for j, s := range p.fields {
		out[j] = s.Deriv(1, x)
	}
	if n := floats.Norm(out, 2); n > 0 {
		floats.Scale(1/n, out)
	}
	return out
}

// Curvature returns d²φ/dl² at arc length l. For a unit-speed curve it is
// orthogonal to the tangent up to discretisation error.
func (p *Path) Curvature(l float64) []float64 {
	x := p.lToX.At(l)
	t := p.tangentAt(x)
	dl := p.xToL.Deriv(1, x)
	d2l := p.xToL.Deriv(2, x)
	out := make([]float64, p.dim)
	for j, s := range p.fields {
		out[j] = (s.Deriv(2, x) - t[j]*d2l) / (dl * dl)
	}
	return out
}
