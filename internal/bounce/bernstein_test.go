package bounce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
)

func TestNChooseK(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, nChooseK(10, 0))
	assert.Equal(t, 10.0, nChooseK(10, 1))
	assert.Equal(t, 252.0, nChooseK(10, 5))
	assert.Equal(t, 184756.0, nChooseK(20, 10))
	assert.Equal(t, 0.0, nChooseK(3, 4))
	assert.Equal(t, 0.0, nChooseK(3, -1))
}

func TestBernstein_PartitionOfUnity(t *testing.T) {
	t.Parallel()

	for _, x := range []float64{0, 0.1, 0.37, 0.5, 0.99, 1} {
		var sum, d1sum, d2sum float64
		for nu := 0; nu <= 10; nu++ {
			sum += bernstein(10, nu, x)
			d1, d2 := bernsteinDeriv(10, nu, x)
			d1sum += d1
			d2sum += d2
		}
		assert.InDelta(t, 1, sum, 1e-12, "x=%g", x)
		assert.InDelta(t, 0, d1sum, 1e-9, "x=%g", x)
		assert.InDelta(t, 0, d2sum, 1e-7, "x=%g", x)
	}
}

func TestBernsteinDeriv_MatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	const h = 1e-5
	for nu := 0; nu <= 6; nu++ {
		x := 0.3
		d1, d2 := bernsteinDeriv(6, nu, x)
		fd1 := (bernstein(6, nu, x+h) - bernstein(6, nu, x-h)) / (2 * h)
		fd2 := (bernstein(6, nu, x+h) - 2*bernstein(6, nu, x) + bernstein(6, nu, x-h)) / (h * h)
		assert.InDelta(t, fd1, d1, 1e-6, "nu=%d", nu)
		assert.InDelta(t, fd2, d2, 1e-3, "nu=%d", nu)
	}
}

func TestInverseGram(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	const n, width = 6, 2.5
	xs := make([]float64, 2001)
	floats.Span(xs, 0, width)
	k := mat.NewDense(n, n, nil)
	f := make([]float64, len(xs))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for s, x := range xs {
				f[s] = bernstein(n, i, x/width) * bernstein(n, j, x/width)
			}
			k.Set(i, j, integrate.Simpsons(xs, f))
		}
	}

	// --- Act ---
	inv, err := inverseGram(n, width)

	// --- Assert ---
	require.NoError(t, err)
	var id mat.Dense
	id.Mul(k, inv)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, id.At(i, j), 1e-6, "(%d,%d)", i, j)
		}
	}
}
