package spline

import (
	"errors"
	"fmt"
	"sort"
)

// Boundary selects the end condition of a cubic spline.
type Boundary int

const (
	// Natural sets the second derivative to zero at both ends.
	Natural Boundary = iota
	// NotAKnot forces a continuous third derivative at the second and the
	// penultimate abscissa.
	NotAKnot
)

var (
	// ErrTooFewPoints is returned when fewer than two samples are supplied.
	ErrTooFewPoints = errors.New("spline: at least two points are required")
	// ErrNotIncreasing is returned when the abscissae are not strictly increasing.
	ErrNotIncreasing = errors.New("spline: abscissae must be strictly increasing")
)

// Cubic is an interpolating cubic spline. On interval i the spline is
// y[i] + b[i]t + c[i]t² + d[i]t³ with t = x - xs[i].
type Cubic struct {
	xs, ys  []float64
	b, c, d []float64
}

// NewCubic fits a cubic spline through (xs, ys). Not-a-knot needs four points;
// with three it degrades to Natural and with two the spline is linear.
func NewCubic(xs, ys []float64, bc Boundary) (*Cubic, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("spline: %d abscissae but %d ordinates", n, len(ys))
	}
	if n < 2 {
		return nil, ErrTooFewPoints
	}

	h := make([]float64, n-1)
	slope := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
		if !(h[i] > 0) {
			return nil, fmt.Errorf("%w: x[%d]=%g, x[%d]=%g", ErrNotIncreasing, i, xs[i], i+1, xs[i+1])
		}
		slope[i] = (ys[i+1] - ys[i]) / h[i]
	}

	m := secondDerivatives(h, slope, bc)

	s := &Cubic{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
		b:  make([]float64, n),
		c:  make([]float64, n),
		d:  make([]float64, n),
	}
	for i := 0; i < n-1; i++ {
		s.b[i] = slope[i] - h[i]*(2*m[i]+m[i+1])/6
		s.c[i] = m[i] / 2
		s.d[i] = (m[i+1] - m[i]) / (6 * h[i])
	}
	// The last slot only serves right-hand extrapolation.
	last := n - 2
	s.b[n-1] = s.b[last] + 2*s.c[last]*h[last] + 3*s.d[last]*h[last]*h[last]
	s.c[n-1] = m[n-1] / 2
	return s, nil
}

// secondDerivatives solves the tridiagonal system for the knot second
// derivatives. The not-a-knot rows are folded into the first and last
// equations so the system stays tridiagonal.
func secondDerivatives(h, slope []float64, bc Boundary) []float64 {
	n := len(h) + 1
	m := make([]float64, n)
	if n == 2 {
		return m
	}
	if n == 3 {
		bc = Natural
	}

	k := n - 2
	lower := make([]float64, k)
	diag := make([]float64, k)
	upper := make([]float64, k)
	rhs := make([]float64, k)
	for j := 0; j < k; j++ {
		i := j + 1
		lower[j] = h[i-1]
		diag[j] = 2 * (h[i-1] + h[i])
		upper[j] = h[i]
		rhs[j] = 6 * (slope[i] - slope[i-1])
	}

	if bc == NotAKnot {
		h0, h1 := h[0], h[1]
		diag[0] += h0 * (h0 + h1) / h1
		upper[0] -= h0 * h0 / h1

		hp, hl := h[n-3], h[n-2]
		diag[k-1] += hl * (hp + hl) / hp
		lower[k-1] -= hl * hl / hp
	}

	for j := 1; j < k; j++ {
		w := lower[j] / diag[j-1]
		diag[j] -= w * upper[j-1]
		rhs[j] -= w * rhs[j-1]
	}
	m[k] = rhs[k-1] / diag[k-1]
	for j := k - 2; j >= 0; j-- {
		m[j+1] = (rhs[j] - upper[j]*m[j+2]) / diag[j]
	}

	if bc == NotAKnot {
		h0, h1 := h[0], h[1]
		m[0] = ((h0+h1)*m[1] - h0*m[2]) / h1

		hp, hl := h[n-3], h[n-2]
		m[n-1] = ((hp+hl)*m[n-2] - hl*m[n-3]) / hp
	}
	return m
}

// segment returns the polynomial piece that covers x.
func (s *Cubic) segment(x float64) (i int, t, d float64) {
	n := len(s.xs)
	switch {
	case x < s.xs[0]:
		return 0, x - s.xs[0], 0
	case x >= s.xs[n-1]:
		return n - 1, x - s.xs[n-1], 0
	}
	i = sort.Search(n, func(k int) bool { return s.xs[k] > x }) - 1
	return i, x - s.xs[i], s.d[i]
}

// At evaluates the spline at x.
func (s *Cubic) At(x float64) float64 {
	i, t, d := s.segment(x)
	return s.ys[i] + t*(s.b[i]+t*(s.c[i]+t*d))
}

// Deriv evaluates the derivative of the given order at x. Order zero is At.
func (s *Cubic) Deriv(order int, x float64) float64 {
	i, t, d := s.segment(x)
	switch order {
	case 0:
		return s.ys[i] + t*(s.b[i]+t*(s.c[i]+t*d))
	case 1:
		return s.b[i] + t*(2*s.c[i]+3*d*t)
	case 2:
		return 2*s.c[i] + 6*d*t
	case 3:
		return 6 * d
	default:
		return 0
	}
}

// Domain returns the first and last abscissa.
func (s *Cubic) Domain() (float64, float64) {
	return s.xs[0], s.xs[len(s.xs)-1]
}

// Increasing returns the longest prefix-preserving subsequence of (xs, ys)
// whose abscissae increase strictly. Profiles produced by an integrator can
// repeat a coordinate when the velocity stalls; the spline needs them removed.
func Increasing(xs, ys []float64) ([]float64, []float64) {
	if len(xs) == 0 {
		return nil, nil
	}
	outX := []float64{xs[0]}
	outY := []float64{ys[0]}
	for i := 1; i < len(xs); i++ {
		if xs[i] > outX[len(outX)-1] {
			outX = append(outX, xs[i])
			outY = append(outY, ys[i])
		}
	}
	return outX, outY
}
