package hcl

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func TestConverter_Scalar(t *testing.T) {
	t.Parallel()

	c := NewConverter()
	ctx := context.Background()

	t.Run("evaluates fields and temperature", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		f, err := c.Scalar(ctx, parseExpr(t, "x*x + pow(y, 3) - T*sinh(x) + exp(0)"), []string{"x", "y"})
		require.NoError(t, err)

		// --- Act ---
		v := f([]float64{0.5, 2}, 3)

		// --- Assert ---
		assert.InDelta(t, 0.25+8-3*math.Sinh(0.5)+1, v, 1e-12)
	})

	t.Run("number functions from the cty library", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		f, err := c.Scalar(ctx, parseExpr(t, "abs(x) + max(x, 2) + min(x, 2) + floor(1.5) + ceil(0.5) + signum(x)"), []string{"x"})
		require.NoError(t, err)

		// --- Act ---
		v := f([]float64{-3}, 0)

		// --- Assert ---
		assert.InDelta(t, 3+2-3+1+1-1, v, 1e-12)
	})

	t.Run("spaced subtraction", func(t *testing.T) {
		t.Parallel()
		f, err := c.Scalar(ctx, parseExpr(t, "pow(x - 1, 2)"), []string{"x"})
		require.NoError(t, err)

		assert.InDelta(t, 4, f([]float64{3}, 0), 1e-12)
	})

	t.Run("NaN on domain errors", func(t *testing.T) {
		t.Parallel()
		f, err := c.Scalar(ctx, parseExpr(t, "log(x)"), []string{"x"})
		require.NoError(t, err)

		assert.InDelta(t, 0, f([]float64{1}, 0), 1e-15)
		assert.True(t, math.IsNaN(f([]float64{-1}, 0)))
		assert.True(t, math.IsNaN(f([]float64{math.NaN()}, 0)))
	})

	t.Run("safe for concurrent use", func(t *testing.T) {
		t.Parallel()
		f, err := c.Scalar(ctx, parseExpr(t, "x*T"), []string{"x"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]float64, 16)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = f([]float64{float64(i)}, 2)
			}(i)
		}
		wg.Wait()
		for i, r := range results {
			assert.Equal(t, float64(2*i), r)
		}
	})

	t.Run("dimension mismatch panics", func(t *testing.T) {
		t.Parallel()
		f, err := c.Scalar(ctx, parseExpr(t, "x"), []string{"x"})
		require.NoError(t, err)
		assert.Panics(t, func() { f([]float64{1, 2}, 0) })
	})
}

func TestConverter_Scalar_CompileErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		src  string
	}{
		{"unknown variable", "x + z"},
		{"hyphen joins an identifier", "pow(x-1, 2)"},
		{"unknown function", "gamma(x)"},
		{"wrong type", `"hello"`},
		{"list instead of number", "[x, x]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewConverter().Scalar(context.Background(), parseExpr(t, tc.src), []string{"x"})
			assert.Error(t, err)
		})
	}
}

func TestConverter_Vector(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	c := NewConverter()
	f, err := c.Vector(context.Background(), parseExpr(t, "[2*x, 3*y*T]"), []string{"x", "y"})
	require.NoError(t, err)

	// --- Act ---
	g := f([]float64{1, 2}, 0.5)

	// --- Assert ---
	assert.Equal(t, []float64{2, 3}, g)

	short, err := c.Vector(context.Background(), parseExpr(t, "[x]"), []string{"x", "y"})
	require.NoError(t, err)
	got := short([]float64{1, 2}, 0)
	require.Len(t, got, 2)
	assert.True(t, math.IsNaN(got[0]))

	_, err = c.Vector(context.Background(), parseExpr(t, "x"), []string{"x"})
	assert.Error(t, err)
}

func TestConverter_Points(t *testing.T) {
	t.Parallel()

	c := NewConverter()
	ctx := context.Background()

	p, err := c.Point(ctx, parseExpr(t, "[T/100, 1]"), 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1}, p)

	ps, err := c.Points(ctx, parseExpr(t, "[[1, 1], [0.5, T], [0, 0]]"), 0.25)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 1}, {0.5, 0.25}, {0, 0}}, ps)

	_, err = c.Point(ctx, parseExpr(t, "[x]"), 0)
	assert.Error(t, err)
	_, err = c.Points(ctx, parseExpr(t, "[1, 2]"), 0)
	assert.Error(t, err)
}
