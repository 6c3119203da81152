// Package nn implements the neural network modules that make up an encoder
// classifier: embeddings, linear projections, layer normalization, multi-head
// self-attention, and the feed-forward block.
//
// Modules are generic over the tensor backend, so the same model code runs on
// a plain compute backend for scoring and on an autodiff decorator when
// gradients are needed for attribution.
package nn

import (
	"github.com/verdict-ml/verdict/internal/tensor"
)

// Module is the interface shared by single-input layers.
//
// Layers with extra inputs (attention takes a mask, embedding takes indices)
// expose their own Forward signatures and only share Parameters.
type Module[B tensor.Backend] interface {
	// Forward computes the layer output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including those of nested modules. Parameter-free layers return nil.
	Parameters() []*Parameter[B]
}
