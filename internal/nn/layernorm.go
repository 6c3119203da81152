package nn

import (
	"github.com/verdict-ml/verdict/internal/tensor"
)

// LayerNorm normalizes the last dimension of its input:
//
//	Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Mean and variance are computed per position over the feature dimension.
// Encoder transformers apply this after every attention and feed-forward
// sub-layer.
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Beta    *Parameter[B] // learnable shift [d_model]
	Epsilon float32
	backend B
}

// NewLayerNorm creates a LayerNorm over the given feature size. Gamma starts
// at ones, beta at zeros; eps is typically 1e-12 for BERT-family checkpoints.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return &LayerNorm[B]{
		Gamma:   NewParameter("weight", Ones(tensor.Shape{normalizedShape}, backend)),
		Beta:    NewParameter("bias", Zeros(tensor.Shape{normalizedShape}, backend)),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward applies layer normalization over the last dimension.
//
// Input and output shapes are identical: [..., d_model]. Variance is the
// biased estimator (divide by d_model), matching transformer checkpoints.
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(-1, true)

	// 1 / sqrt(var + eps), then scale and shift. Gamma and beta are
	// [d_model] and broadcast over the leading dimensions.
	norm := centered.Mul(variance.AddScalar(l.Epsilon).Rsqrt())
	return norm.Mul(l.Gamma.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns [gamma, beta].
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}

// StateDict returns the parameter tensors keyed by name.
func (l *LayerNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.Gamma.Tensor().Raw(),
		"bias":   l.Beta.Tensor().Raw(),
	}
}

// LoadStateDict copies checkpoint tensors into gamma and beta.
func (l *LayerNorm[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	d := l.Gamma.Tensor().Shape()[0]
	if err := loadParam(l.Gamma, state, "weight", tensor.Shape{d}); err != nil {
		return err
	}
	return loadParam(l.Beta, state, "bias", tensor.Shape{d})
}
