package bounce

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bounceaction/internal/ctxlog"
)

const benchmarkThickWall = 4.5011952256

func quietContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func twoFieldInput(fy float64, grad VectorFunc) Input {
	return Input{
		TrueVacuum:  []float64{1, 1},
		FalseVacuum: []float64{0, 0},
		Potential:   Potential{V: twoField(fy), Gradient: grad},
	}
}

// oneFieldInput is V = φ²/2 - φ³ + φ⁴/4 with its false vacuum at 0 and the
// true vacuum at (3+√5)/2.
func oneFieldInput() Input {
	return Input{
		TrueVacuum:  []float64{(3 + math.Sqrt(5)) / 2},
		FalseVacuum: []float64{0},
		Potential: Potential{V: func(x []float64) float64 {
			p := x[0]
			return p*p/2 - p*p*p + p*p*p*p/4
		}},
	}
}

func newTestAction(t *testing.T, in Input, s Settings) *Action {
	t.Helper()
	a, err := New(quietContext(), in, s)
	require.NoError(t, err)
	return a
}

func requireAction(t *testing.T, a *Action, want float64) {
	t.Helper()
	a.Calculate()
	require.Equal(t, Success, a.Status(), "status %s", a.Status())
	assert.InEpsilon(t, want, a.Action(), 5e-2)
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	v := twoField(80)
	testCases := []struct {
		name    string
		in      Input
		s       Settings
		wantErr error
	}{
		{
			name:    "no potential",
			in:      Input{TrueVacuum: []float64{1}, FalseVacuum: []float64{0}},
			s:       DefaultSettings(),
			wantErr: ErrNoPotential,
		},
		{
			name:    "vacua disagree",
			in:      Input{TrueVacuum: []float64{1}, FalseVacuum: []float64{0, 0}, Potential: Potential{V: v}},
			s:       DefaultSettings(),
			wantErr: ErrDimensionMismatch,
		},
		{
			name: "knot dimension",
			in: Input{
				Path:        [][]float64{{1, 1}, {0.5}, {0, 0}},
				TrueVacuum:  []float64{1, 1},
				FalseVacuum: []float64{0, 0},
				Potential:   Potential{V: v},
			},
			s:       DefaultSettings(),
			wantErr: ErrDimensionMismatch,
		},
		{
			name: "three knots",
			in: Input{
				Path:        [][]float64{{1, 1}, {0.5, 0.4}, {0, 0}},
				TrueVacuum:  []float64{1, 1},
				FalseVacuum: []float64{0, 0},
				Potential:   Potential{V: v},
			},
			s:       DefaultSettings(),
			wantErr: ErrTooFewKnots,
		},
		{
			name:    "invalid settings",
			in:      twoFieldInput(80, nil),
			s:       Settings{},
			wantErr: ErrInvalidSettings,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Act ---
			a, err := New(quietContext(), tc.in, tc.s)

			// --- Assert ---
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, a)
		})
	}
}

func TestNew_DefaultPathAndShift(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	in := twoFieldInput(80, nil)
	in.Potential.V = func(x []float64) float64 { return twoField(80)(x) + 2 }
	in.Temperature = 42

	// --- Act ---
	a := newTestAction(t, in, DefaultSettings())

	// --- Assert ---
	assert.InDelta(t, math.Sqrt2, a.Length(), 1e-6)
	assert.InDelta(t, 2, a.FalseVacuumEnergy(), 1e-12)
	assert.Equal(t, 42.0, a.Temperature())
	assert.Equal(t, NotCalculated, a.Status())
	assert.True(t, math.IsNaN(a.Action()))
	path := a.Path()
	assert.Equal(t, []float64{1, 1}, path[0])
	assert.Equal(t, []float64{0, 0}, path[len(path)-1])
}

func TestSetPath_WarnsOnBackwardsPath(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	in := twoFieldInput(80, nil)
	in.TrueVacuum, in.FalseVacuum = in.FalseVacuum, in.TrueVacuum

	// --- Act ---
	_, err := New(ctx, in, DefaultSettings())

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Path might be backwards.")
}

func TestCalculate_OneField(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a := newTestAction(t, oneFieldInput(), DefaultSettings())

	// --- Act ---
	a.Calculate()

	// --- Assert ---
	require.Equal(t, Success, a.Status(), "status %s", a.Status())
	assert.InEpsilon(t, 8.9706, a.Action(), 1e-2)
	kin, pot := a.Terms()
	// Derrick's theorem for α = 2: K = -3P and S = 2K/3.
	assert.InEpsilon(t, -3, kin/pot, 0.1)
	assert.InEpsilon(t, 2*kin/3, a.Action(), 0.1)
	assert.Equal(t, Integration1DConverged, a.Integration1DStatus())

	prof := a.Profile()
	require.Greater(t, prof.Len(), 10)
	assert.Equal(t, 0.0, prof.Rho[0])
	for i := 1; i < prof.Len(); i++ {
		require.Greater(t, prof.Rho[i], prof.Rho[i-1])
	}
}

func TestCalculate_OneFieldO4(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	s := DefaultSettings()
	s.Alpha = 3
	a := newTestAction(t, oneFieldInput(), s)

	// --- Act ---
	a.Calculate()

	// --- Assert ---
	require.Equal(t, Success, a.Status(), "status %s", a.Status())
	assert.InEpsilon(t, 67.025, a.Action(), 1e-2)
	kin, pot := a.Terms()
	// Derrick's theorem for α = 3: K = -2P and S = K/2.
	assert.InEpsilon(t, -2, kin/pot, 0.1)
	assert.InEpsilon(t, kin/2, a.Action(), 0.1)
}

func TestCalculate_FailureStatuses(t *testing.T) {
	t.Parallel()

	t.Run("short shots fail the integration", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		s := DefaultSettings()
		s.IntegrationIterations = 5
		a := newTestAction(t, oneFieldInput(), s)

		// --- Act ---
		a.Calculate()

		// --- Assert ---
		assert.Equal(t, Integration1DFailed, a.Status())
		assert.Equal(t, Integration1DNotConverged, a.Integration1DStatus())
		assert.True(t, math.IsNaN(a.Action()))
	})

	t.Run("unbracketed search", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		a := newTestAction(t, twoFieldInput(80, nil), DefaultSettings())
		a.undershotOnce = true

		// --- Act ---
		ok := a.bracketed()

		// --- Assert ---
		assert.False(t, ok)
		assert.Equal(t, NeverUndershootOvershoot, a.Status())
	})

	t.Run("bracketed search", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		a := newTestAction(t, twoFieldInput(80, nil), DefaultSettings())
		a.undershotOnce, a.overshotOnce = true, true

		// --- Act ---
		ok := a.bracketed()

		// --- Assert ---
		assert.True(t, ok)
		assert.Equal(t, NotCalculated, a.Status())
	})

	t.Run("too few points for the action integral", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		a := newTestAction(t, oneFieldInput(), DefaultSettings())
		p := Profile{
			Rho:      []float64{0, 1, 2},
			L:        []float64{0, 0.1, 0.2},
			DLDRho:   []float64{0, 0.1, 0.1},
			D2LDRho2: []float64{0, 0, 0},
		}

		// --- Act ---
		a.integrateAction(p)

		// --- Assert ---
		assert.Equal(t, NotEnoughPointsForSpline, a.Status())
	})

	t.Run("profile resting in the true vacuum is rejected", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		a := newTestAction(t, oneFieldInput(), DefaultSettings())
		n := 11
		p := Profile{
			Rho:      make([]float64, n),
			L:        make([]float64, n),
			DLDRho:   make([]float64, n),
			D2LDRho2: make([]float64, n),
		}
		for i := range p.Rho {
			p.Rho[i] = float64(i)
		}

		// --- Act ---
		a.integrateAction(p)

		// --- Assert ---
		assert.Equal(t, Integration1DFailed, a.Status())
		assert.True(t, math.IsNaN(a.Action()))
	})

	t.Run("zero length profile crashes the deformation check", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		a := newTestAction(t, twoFieldInput(80, nil), DefaultSettings())
		p := Profile{
			Rho:      []float64{0, 1, 2, 3},
			L:        []float64{0.5, 0.5, 0.5, 0.5},
			DLDRho:   []float64{0, 0, 0, 0},
			D2LDRho2: []float64{0, 0, 0, 0},
		}

		// --- Act ---
		converged := a.deformationCheck(p, nil)

		// --- Assert ---
		assert.False(t, converged)
		assert.Equal(t, PathDeformationCrashed, a.Status())
	})

	t.Run("deformation budget exhausted", func(t *testing.T) {
		if testing.Short() {
			t.Skip("runs a shooting search")
		}
		t.Parallel()
		// --- Arrange ---
		s := DefaultSettings()
		s.MaxPathIntegrations = 1
		a := newTestAction(t, twoFieldInput(80, twoFieldGradient(80)), s)

		// --- Act ---
		a.Calculate()

		// --- Assert ---
		assert.Equal(t, PathDeformationNotConverged, a.Status())
		assert.Equal(t, Integration1DConverged, a.Integration1DStatus())
		assert.Equal(t, DeformationNotConverged, a.DeformationStatus())
	})
}

func TestCalculate_Idempotent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	in := twoFieldInput(80, nil)
	in.TrueVacuum, in.FalseVacuum = in.FalseVacuum, in.TrueVacuum
	a := newTestAction(t, in, DefaultSettings())
	a.Calculate()
	first := a.Status()

	// --- Act ---
	a.Calculate()

	// --- Assert ---
	assert.Equal(t, first, a.Status())
}

func TestCalculate_SwappedVacuaFail(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	in := twoFieldInput(80, nil)
	in.TrueVacuum, in.FalseVacuum = in.FalseVacuum, in.TrueVacuum
	in.Path = [][]float64{in.TrueVacuum, in.FalseVacuum}
	a := newTestAction(t, in, DefaultSettings())

	// --- Act ---
	a.Calculate()

	// --- Assert ---
	assert.Equal(t, BackwardsPropagationFailed, a.Status())
	assert.ErrorIs(t, a.Status().Err(), ErrCalculationFailed)
	assert.True(t, math.IsNaN(a.Action()))
}

func TestCalculate_FalseVacuumNotMinimum(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The origin is a maximum of V; the minima lie on the circle r² = 1/2.
	v := func(x []float64) float64 {
		r2 := x[0]*x[0] + x[1]*x[1]
		return -r2 + r2*r2
	}
	a := newTestAction(t, Input{
		TrueVacuum:  []float64{0.5, 0.5},
		FalseVacuum: []float64{0, 0},
		Potential:   Potential{V: v},
	}, DefaultSettings())

	// --- Act ---
	a.Calculate()

	// --- Assert ---
	assert.Equal(t, FalseVacuumNotMinimum, a.Status())
}

func TestCalculate_Benchmarks(t *testing.T) {
	if testing.Short() {
		t.Skip("benchmark potentials run the full deformation")
	}
	t.Parallel()

	settings := DefaultSettings()
	settings.MaxPathIntegrations = 6

	t.Run("thick wall with analytic gradient", func(t *testing.T) {
		t.Parallel()
		a := newTestAction(t, twoFieldInput(80, twoFieldGradient(80)), settings)
		requireAction(t, a, benchmarkThickWall)
		assert.Equal(t, DeformationConverged, a.DeformationStatus())
	})

	t.Run("thick wall with numerical gradient", func(t *testing.T) {
		t.Parallel()
		a := newTestAction(t, twoFieldInput(80, nil), settings)
		requireAction(t, a, benchmarkThickWall)
	})

	t.Run("displaced fields", func(t *testing.T) {
		t.Parallel()
		v := twoField(80)
		in := Input{
			TrueVacuum:  []float64{0, 0},
			FalseVacuum: []float64{-1, -1},
			Potential: Potential{V: func(x []float64) float64 {
				return v([]float64{x[0] + 1, x[1] + 1})
			}},
		}
		a := newTestAction(t, in, settings)
		requireAction(t, a, benchmarkThickWall)
	})

	t.Run("displaced energy", func(t *testing.T) {
		t.Parallel()
		v := twoField(80)
		in := twoFieldInput(80, nil)
		in.Potential.V = func(x []float64) float64 { return v(x) - 1 }
		a := newTestAction(t, in, settings)
		requireAction(t, a, benchmarkThickWall)
		assert.InDelta(t, -1, a.FalseVacuumEnergy(), 1e-12)
	})

	t.Run("displaced fields and energy", func(t *testing.T) {
		t.Parallel()
		v := twoField(80)
		in := Input{
			TrueVacuum:  []float64{0, 0},
			FalseVacuum: []float64{-1, -1},
			Potential: Potential{V: func(x []float64) float64 {
				return v([]float64{x[0] + 1, x[1] + 1}) - 1
			}},
		}
		a := newTestAction(t, in, settings)
		requireAction(t, a, benchmarkThickWall)
	})

	t.Run("thin wall", func(t *testing.T) {
		t.Parallel()
		a := newTestAction(t, twoFieldInput(2, nil), settings)
		requireAction(t, a, 1946.3823079011)
		kin, pot := a.Terms()
		assert.Greater(t, kin, 0.0)
		assert.InEpsilon(t, -3, kin/pot, 0.1)
	})

	t.Run("thin wall with analytic gradient", func(t *testing.T) {
		t.Parallel()
		a := newTestAction(t, twoFieldInput(2, twoFieldGradient(2)), settings)
		requireAction(t, a, 1946.3823079011)
	})

	t.Run("thick wall in four dimensions", func(t *testing.T) {
		t.Parallel()
		s := settings
		s.Alpha = 3
		a := newTestAction(t, twoFieldInput(80, twoFieldGradient(80)), s)
		a.Calculate()
		require.Equal(t, Success, a.Status(), "status %s", a.Status())
		kin, pot := a.Terms()
		// Derrick's theorem for α = 3: K = -2P and S = K/2.
		assert.InEpsilon(t, -2, kin/pot, 0.1)
		assert.InEpsilon(t, kin/2, a.Action(), 0.1)
	})
}

func TestPathDeformation_BestErrorDecreases(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a shooting search and a deformation")
	}
	t.Parallel()

	// --- Arrange ---
	a := newTestAction(t, twoFieldInput(80, twoFieldGradient(80)), DefaultSettings())
	prof := a.solve1D()
	require.Equal(t, NotCalculated, a.Status())
	rhoOfL, err := a.rhoOfL(prof)
	require.NoError(t, err)
	before := a.Path()

	// --- Act ---
	a.pathDeformation(prof, rhoOfL)

	// --- Assert ---
	require.Equal(t, NotCalculated, a.Status())
	require.NotEmpty(t, a.deformationHistory)
	for i := 1; i < len(a.deformationHistory); i++ {
		assert.Less(t, a.deformationHistory[i], a.deformationHistory[i-1], "step %d", i)
	}
	after := a.Path()
	assert.Equal(t, a.falseVacuum, after[len(after)-1])
	assert.NotEqual(t, before, after)
}

func TestNormalForce(t *testing.T) {
	t.Parallel()

	t.Run("straight path takes the transverse gradient", func(t *testing.T) {
		f := normalForce(3, []float64{2, 5}, []float64{1, 0}, []float64{0, 0})
		assert.Equal(t, []float64{0, -5}, f)
	})

	t.Run("curvature balances the gradient", func(t *testing.T) {
		f := normalForce(2, []float64{0, 4}, []float64{1, 0}, []float64{0, 1})
		assert.Equal(t, []float64{0, 0}, f)
	})
}
