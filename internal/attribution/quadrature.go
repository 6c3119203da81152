package attribution

import (
	"fmt"
	"math"
)

// quadrature returns the interpolation points and weights for a rule on
// [0, 1]. Weights always sum to 1.
func quadrature(method Method, n int) (alphas, weights []float64, err error) {
	switch method {
	case MethodTrapezoid:
		return trapezoid(n)
	case MethodGaussLegendre:
		return gaussLegendre(n)
	default:
		return nil, nil, fmt.Errorf("unknown quadrature method %q", method)
	}
}

// trapezoid places n uniform points from 0 to 1 inclusive, with half
// weights at the endpoints.
func trapezoid(n int) ([]float64, []float64, error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("trapezoid quadrature needs at least 2 steps, got %d", n)
	}
	alphas := make([]float64, n)
	weights := make([]float64, n)
	h := 1.0 / float64(n-1)
	for i := range alphas {
		alphas[i] = float64(i) * h
		weights[i] = h
	}
	weights[0] = h / 2
	weights[n-1] = h / 2
	return alphas, weights, nil
}

// gaussLegendre computes the n-point Gauss-Legendre rule mapped to [0, 1].
// Roots of the Legendre polynomial are found by Newton iteration from the
// Chebyshev initial guess; the rule is symmetric so only half the roots are
// solved.
func gaussLegendre(n int) ([]float64, []float64, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("gauss-legendre quadrature needs at least 1 step, got %d", n)
	}
	alphas := make([]float64, n)
	weights := make([]float64, n)

	m := (n + 1) / 2
	for i := 0; i < m; i++ {
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		var pp float64
		for {
			// Evaluate P_n(z) and its derivative via the recurrence.
			p1, p2 := 1.0, 0.0
			for j := 0; j < n; j++ {
				p3 := p2
				p2 = p1
				p1 = ((2*float64(j)+1)*z*p2 - float64(j)*p3) / (float64(j) + 1)
			}
			pp = float64(n) * (z*p1 - p2) / (z*z - 1)
			z1 := z
			z = z1 - p1/pp
			if math.Abs(z-z1) < 1e-14 {
				break
			}
		}
		alphas[i] = (1 - z) / 2
		alphas[n-1-i] = (1 + z) / 2
		// Standard [-1,1] weight halved for the unit interval.
		weights[i] = 1 / ((1 - z*z) * pp * pp)
		weights[n-1-i] = weights[i]
	}
	return alphas, weights, nil
}
