package special

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBesselI_ReferenceValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		nu, x, want float64
	}{
		{nu: 0, x: 1, want: 1.2660658777520082},
		{nu: 1, x: 1, want: 0.5651591039924851},
		{nu: 2, x: 1, want: 0.13574766976703828},
		{nu: 0, x: 2, want: 2.2795853023360673},
		{nu: 1, x: 2, want: 1.5906368546373291},
		{nu: 0.5, x: 3, want: math.Sqrt(2/(math.Pi*3)) * math.Sinh(3)},
		{nu: 1.5, x: 0.7, want: math.Sqrt(2/(math.Pi*0.7)) * (math.Cosh(0.7) - math.Sinh(0.7)/0.7)},
	}

	for _, tc := range testCases {
		got := BesselI(tc.nu, tc.x)
		assert.InEpsilon(t, tc.want, got, 1e-10, "I_%g(%g)", tc.nu, tc.x)
	}
}

func TestBesselI_Origin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, BesselI(0, 0))
	assert.Equal(t, 0.0, BesselI(1, 0))
}

func TestBesselI_Recurrence(t *testing.T) {
	t.Parallel()

	// I_{ν-1}(x) - I_{ν+1}(x) = 2ν/x · I_ν(x)
	for _, x := range []float64{0.3, 1.7, 6.5, 20} {
		lhs := BesselI(0, x) - BesselI(2, x)
		rhs := 2 / x * BesselI(1, x)
		assert.InEpsilon(t, rhs, lhs, 1e-9, "x=%g", x)
	}
}

func TestBesselJ1(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		x, want float64
	}{
		{x: 0, want: 0},
		{x: 0.5, want: 0.24226845767487387},
		{x: 1, want: 0.44005058574493355},
		{x: 2, want: 0.5767248077568734},
		{x: 2.5, want: 0.4970941024642741},
		{x: 3.8317059702075125, want: 0},
		{x: 5, want: -0.3275791375914652},
		{x: 8, want: 0.23463634685391462},
	}

	for _, tc := range testCases {
		assert.InDelta(t, tc.want, BesselJ1(tc.x), 1e-12, "J_1(%g)", tc.x)
	}
	// Odd function.
	assert.Equal(t, -BesselJ1(1.3), BesselJ1(-1.3))
}
