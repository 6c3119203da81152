// Package attribution explains model scores by decomposing them over input
// tokens with layer integrated gradients.
//
// The integral runs at the embedding layer: scores are differentiated with
// respect to the embedding output while interpolating between a reference
// sequence (padding in place of content) and the actual input. Token
// attributions therefore answer "how much did this token move the score
// away from the empty-text baseline".
package attribution

import (
	"github.com/verdict-ml/verdict/internal/tensor"
)

// Method selects the quadrature rule for the path integral.
type Method string

const (
	// MethodTrapezoid integrates on a uniform grid with trapezoid weights.
	// It is the default and matches what most reference implementations use.
	MethodTrapezoid Method = "riemann_trapezoid"

	// MethodGaussLegendre integrates on Gauss-Legendre nodes, which buys
	// more accuracy per step for smooth models.
	MethodGaussLegendre Method = "gausslegendre"
)

// DefaultSteps is the interpolation step count when Config leaves it unset.
const DefaultSteps = 50

// Config controls the integration.
type Config struct {
	// Steps is the number of interpolation points. Zero means DefaultSteps.
	Steps int

	// Method is the quadrature rule. Empty means MethodTrapezoid.
	Method Method
}

func (c Config) withDefaults() Config {
	if c.Steps <= 0 {
		c.Steps = DefaultSteps
	}
	if c.Method == "" {
		c.Method = MethodTrapezoid
	}
	return c
}

// Result is one attribution run over a single sequence.
type Result struct {
	// PerToken sums each token's attribution over the hidden dimension.
	// Positive values pushed the score up relative to the baseline.
	PerToken []float64

	// Normalized is PerToken scaled to unit L2 norm, the form reports
	// render.
	Normalized []float64

	// InputScore and RefScore are the model outputs at the input and the
	// reference sequence.
	InputScore float64
	RefScore   float64

	// Delta is the convergence check: the attribution total minus
	// (InputScore - RefScore). Near zero means the quadrature resolved the
	// integral; grow Steps when it does not.
	Delta float64

	// Steps and Method record what the integral actually used.
	Steps  int
	Method Method
}

// ScoreModel is the slice of the model attribution needs: a way to compute
// the embedding-layer output, and a way to run the rest of the network from
// it. The two must compose to the full forward pass.
type ScoreModel[B tensor.Backend] interface {
	EmbedOnly(ids, typeIDs *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B]
	ForwardFromEmbeddings(embeds *tensor.Tensor[float32, B], mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}
