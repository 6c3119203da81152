package attribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrapezoid(t *testing.T) {
	alphas, weights, err := trapezoid(5)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, alphas)
	assert.Equal(t, []float64{0.125, 0.25, 0.25, 0.25, 0.125}, weights)

	alphas, weights, err = trapezoid(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, alphas)
	assert.Equal(t, []float64{0.5, 0.5}, weights)

	_, _, err = trapezoid(1)
	assert.Error(t, err)
}

func TestGaussLegendreKnownRules(t *testing.T) {
	alphas, weights, err := gaussLegendre(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, alphas[0], 1e-12)
	assert.InDelta(t, 1.0, weights[0], 1e-12)

	// Two-point rule: nodes (1 -/+ 1/sqrt(3))/2, equal weights.
	alphas, weights, err = gaussLegendre(2)
	require.NoError(t, err)
	assert.InDelta(t, (1-1/math.Sqrt(3))/2, alphas[0], 1e-12)
	assert.InDelta(t, (1+1/math.Sqrt(3))/2, alphas[1], 1e-12)
	assert.InDelta(t, 0.5, weights[0], 1e-12)
	assert.InDelta(t, 0.5, weights[1], 1e-12)

	// Three-point rule: 5/18, 8/18, 5/18 on the unit interval.
	alphas, weights, err = gaussLegendre(3)
	require.NoError(t, err)
	assert.InDelta(t, 0.5-math.Sqrt(0.6)/2, alphas[0], 1e-12)
	assert.InDelta(t, 0.5, alphas[1], 1e-12)
	assert.InDelta(t, 5.0/18.0, weights[0], 1e-12)
	assert.InDelta(t, 8.0/18.0, weights[1], 1e-12)
}

func TestQuadratureWeightsSumToOne(t *testing.T) {
	for _, method := range []Method{MethodTrapezoid, MethodGaussLegendre} {
		for _, n := range []int{2, 5, 17, 50} {
			alphas, weights, err := quadrature(method, n)
			require.NoError(t, err)
			require.Len(t, alphas, n)

			sum := 0.0
			for _, w := range weights {
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-12, "%s n=%d", method, n)

			for i := 1; i < n; i++ {
				assert.Greater(t, alphas[i], alphas[i-1], "%s n=%d nodes must ascend", method, n)
			}
			assert.GreaterOrEqual(t, alphas[0], 0.0)
			assert.LessOrEqual(t, alphas[n-1], 1.0)
		}
	}
}

func TestGaussLegendreIntegratesCubicExactly(t *testing.T) {
	// A 2-point rule is exact through degree 3: integral of x^3 over [0,1]
	// is 1/4.
	alphas, weights, err := gaussLegendre(2)
	require.NoError(t, err)

	sum := 0.0
	for i, a := range alphas {
		sum += weights[i] * a * a * a
	}
	assert.InDelta(t, 0.25, sum, 1e-12)
}

func TestQuadratureUnknownMethod(t *testing.T) {
	_, _, err := quadrature("simpson", 10)
	assert.Error(t, err)
}

func TestSumHidden(t *testing.T) {
	attr := []float64{1, 2, 3, 4, 5, 6}
	got := SumHidden(attr, 3, 2)
	assert.Equal(t, []float64{3, 7, 11}, got)
}

func TestL2Normalize(t *testing.T) {
	got := L2Normalize([]float64{3, -4})
	assert.InDelta(t, 0.6, got[0], 1e-12)
	assert.InDelta(t, -0.8, got[1], 1e-12)

	norm := 0.0
	for _, v := range got {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-12)

	assert.Equal(t, []float64{0, 0, 0}, L2Normalize([]float64{0, 0, 0}))
}
