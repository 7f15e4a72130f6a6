package bounce

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// nChooseK is the binomial coefficient as a float.
func nChooseK(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if 2*k > n {
		k = n - k
	}
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return math.Round(r)
}

// bernstein is the basis polynomial B_{n,ν}(x); it vanishes for ν outside [0, n].
func bernstein(n, nu int, x float64) float64 {
	if nu < 0 || nu > n {
		return 0
	}
	return nChooseK(n, nu) * math.Pow(x, float64(nu)) * math.Pow(1-x, float64(n-nu))
}

// bernsteinDeriv returns the first and second derivative of B_{n,ν} with
// respect to x.
func bernsteinDeriv(n, nu int, x float64) (float64, float64) {
	d1 := float64(n) * (bernstein(n-1, nu-1, x) - bernstein(n-1, nu, x))
	d2 := float64(n*(n-1)) * (bernstein(n-2, nu-2, x) - 2*bernstein(n-2, nu-1, x) + bernstein(n-2, nu, x))
	return d1, d2
}

// inverseGram returns the inverse of K_ij = ∫ B_{n,i} B_{n,j} dl over an
// interval of the given width, for i, j < n. B_{n,n} is left out so that the
// projection vanishes at the end of the interval.
func inverseGram(n int, width float64) (*mat.Dense, error) {
	k := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			k.Set(i, j, width*nChooseK(n, i)*nChooseK(n, j)/(nChooseK(2*n, i+j)*float64(2*n+1)))
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(k); err != nil {
		return nil, err
	}
	return &inv, nil
}
