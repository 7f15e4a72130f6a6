// Package special implements the Bessel functions needed by the closed-form
// bounce solutions.
//
// I_ν is summed from its power series, which converges to machine precision
// in a few hundred terms for the moderate arguments met by the bounce engine.
package special

import "math"

const (
	maxTerms  = 500
	tolerance = 1e-16
)

// BesselI returns the modified Bessel function of the first kind I_ν(x) for
// ν ≥ 0 and x ≥ 0.
func BesselI(nu, x float64) float64 {
	if x == 0 {
		if nu == 0 {
			return 1
		}
		return 0
	}
	half := x / 2
	q := half * half
	term := math.Exp(nu*math.Log(half) - lgamma(nu+1))
	sum := term
	for m := 0; m < maxTerms; m++ {
		term *= q / (float64(m+1) * (float64(m+1) + nu))
		sum += term
		if term <= tolerance*sum {
			break
		}
	}
	return sum
}

// BesselJ1 returns the Bessel function of the first kind J₁(x).
func BesselJ1(x float64) float64 {
	return math.J1(x)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
