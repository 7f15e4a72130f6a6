package pathguess

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStraight(t *testing.T) {
	t.Parallel()

	t.Run("evenly spaced", func(t *testing.T) {
		t.Parallel()
		// --- Act ---
		path, err := Straight([]float64{1, 1}, []float64{0, 0}, 5)

		// --- Assert ---
		require.NoError(t, err)
		want := [][]float64{{1, 1}, {0.75, 0.75}, {0.5, 0.5}, {0.25, 0.25}, {0, 0}}
		if diff := cmp.Diff(want, path, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("path mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("copies the vacua", func(t *testing.T) {
		t.Parallel()
		tv := []float64{2}
		path, err := Straight(tv, []float64{0}, 2)
		require.NoError(t, err)
		path[0][0] = 7
		assert.Equal(t, 2.0, tv[0])
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		_, err := Straight([]float64{1}, []float64{0, 0}, 4)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		_, err = Straight([]float64{1}, []float64{0}, 1)
		assert.Error(t, err)
	})
}

func TestWarp(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := [][]float64{{1, 1}, {0.6, 0.4}, {0, 1}}
	t1, f1 := []float64{1, 1}, []float64{0, 1}
	t2, f2 := []float64{2, 3}, []float64{0, 4}

	// --- Act ---
	got, err := Warp(path, t1, f1, t2, f2)

	// --- Assert ---
	require.NoError(t, err)
	want := [][]float64{{2, 3}, {1.2, 2.4}, {0, 3}}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("warped path mismatch (-want +got):\n%s", diff)
	}

	_, err = Warp([][]float64{{1}}, t1, f1, t2, f2)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLocateMinimum(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	v := func(x []float64) float64 { return math.Pow(x[0]-1, 2) + 2*math.Pow(x[1]+0.5, 2) }

	// --- Act ---
	x, err := LocateMinimum(v, []float64{0, 0})

	// --- Assert ---
	require.NoError(t, err)
	assert.InDelta(t, 1, x[0], 1e-4)
	assert.InDelta(t, -0.5, x[1], 1e-4)

	_, err = LocateMinimum(v, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestPlanes_FollowsValley(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	valley := func(x float64) float64 { return 0.3 * math.Sin(math.Pi*x) }
	v := func(x []float64) float64 { return 50 * math.Pow(x[1]-valley(x[0]), 2) }

	// --- Act ---
	path, err := Planes(v, []float64{0, 0}, []float64{1, 0}, 11)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, path, 11)
	assert.Equal(t, []float64{0, 0}, path[0])
	assert.Equal(t, []float64{1, 0}, path[10])
	for k, p := range path {
		assert.InDelta(t, float64(k)/10, p[0], 1e-12, "knot %d stays on its plane", k)
		assert.InDelta(t, valley(p[0]), p[1], 1e-4, "knot %d", k)
	}
}

func TestPlanes_Degenerate(t *testing.T) {
	t.Parallel()

	v := func(x []float64) float64 { return x[0] * x[0] }

	path, err := Planes(v, []float64{1}, []float64{0}, 4)
	require.NoError(t, err)
	assert.Len(t, path, 4)

	_, err = Planes(v, []float64{0, 0}, []float64{1e-5, 0}, 4)
	assert.ErrorIs(t, err, ErrCoincidentVacua)
}
