package pathguess

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when the vacua or the knots disagree on
// the number of fields.
var ErrDimensionMismatch = errors.New("pathguess: dimension mismatch")

// Straight returns n evenly spaced knots on the segment from tv to fv. The
// end knots are copies of the vacua.
func Straight(tv, fv []float64, n int) ([][]float64, error) {
	if len(tv) != len(fv) || len(tv) == 0 {
		return nil, fmt.Errorf("%w: %d and %d fields", ErrDimensionMismatch, len(tv), len(fv))
	}
	if n < 2 {
		return nil, fmt.Errorf("pathguess: straight path needs at least 2 knots, got %d", n)
	}
	path := make([][]float64, n)
	for k := range path {
		s := float64(k) / float64(n-1)
		p := make([]float64, len(tv))
		for i := range p {
			p[i] = tv[i] + s*(fv[i]-tv[i])
		}
		path[k] = p
	}
	copy(path[0], tv)
	copy(path[n-1], fv)
	return path, nil
}

// Warp maps a path between the vacua (t1, f1) onto the vacua (t2, f2) by an
// affine map per field. A field in which t1 and f1 coincide is translated.
// Scans over a parameter use it to carry the previous path to the next point.
func Warp(path [][]float64, t1, f1, t2, f2 []float64) ([][]float64, error) {
	n := len(t1)
	if len(f1) != n || len(t2) != n || len(f2) != n {
		return nil, fmt.Errorf("%w: vacua of %d, %d, %d and %d fields",
			ErrDimensionMismatch, len(t1), len(f1), len(t2), len(f2))
	}
	out := make([][]float64, len(path))
	for k, knot := range path {
		if len(knot) != n {
			return nil, fmt.Errorf("%w: knot %d has %d fields, want %d", ErrDimensionMismatch, k, len(knot), n)
		}
		w := make([]float64, n)
		for d := range w {
			if f1[d] == t1[d] {
				w[d] = t2[d] + (knot[d] - t1[d])
			} else {
				w[d] = t2[d] + (f2[d]-t2[d])*(knot[d]-t1[d])/(f1[d]-t1[d])
			}
		}
		out[k] = w
	}
	return out, nil
}
