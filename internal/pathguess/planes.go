package pathguess

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultPlanes is the number of base points between the vacua.
const DefaultPlanes = 50

// ErrCoincidentVacua is returned when the vacua are too close to define a
// normal direction.
var ErrCoincidentVacua = errors.New("pathguess: true and false vacuum coincide")

// normalThreshold is the smallest normal component used to solve for the
// constrained coordinate.
const normalThreshold = 1e-3

// plane is the hyperplane through base with the given normal. The field at
// index is solved from the others.
type plane struct {
	base   []float64
	normal []float64
	index  int
}

// point lifts the free coordinates onto the plane.
func (p plane) point(free []float64) []float64 {
	x := make([]float64, len(p.base))
	for i, j := 0, 0; i < len(x); i++ {
		if i == p.index {
			continue
		}
		x[i] = free[j]
		j++
	}
	c := floats.Dot(p.normal, p.base) - floats.Dot(p.normal, x)
	x[p.index] = c / p.normal[p.index]
	return x
}

func (p plane) free(x []float64) []float64 {
	out := make([]float64, 0, len(x)-1)
	for i, v := range x {
		if i != p.index {
			out = append(out, v)
		}
	}
	return out
}

// Planes approximates the tunnelling path by the minima of v on n evenly
// spaced hyperplanes normal to fv - tv. The first and last knots are the
// vacua themselves. With a single field the straight path is returned.
func Planes(v func([]float64) float64, tv, fv []float64, n int) ([][]float64, error) {
	if n < 2 {
		n = DefaultPlanes
	}
	path, err := Straight(tv, fv, n)
	if err != nil || len(tv) == 1 {
		return path, err
	}

	normal := make([]float64, len(tv))
	floats.SubTo(normal, fv, tv)
	index := -1
	for i, c := range normal {
		if math.Abs(c) >= normalThreshold {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrCoincidentVacua
	}

	for k := 1; k < n-1; k++ {
		p := plane{base: path[k], normal: normal, index: index}
		free, _, err := minimize(func(x []float64) float64 { return v(p.point(x)) }, p.free(path[k]))
		if err != nil {
			return nil, fmt.Errorf("pathguess: plane %d: %w", k, err)
		}
		path[k] = p.point(free)
	}
	return path, nil
}
