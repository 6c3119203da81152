package nn

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// GELU applies the exact Gaussian Error Linear Unit:
//
//	GELU(x) = 0.5 * x * (1 + erf(x / sqrt(2)))
//
// This is the erf formulation used by BERT checkpoints, not the tanh
// approximation.
type GELU[B tensor.Backend] struct{}

// NewGELU creates a GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies GELU element-wise.
func (g *GELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.GELU()
}

// Parameters returns nil; GELU has no trainable parameters.
func (g *GELU[B]) Parameters() []*Parameter[B] {
	return nil
}

// Tanh applies the hyperbolic tangent element-wise. Encoder classifiers use
// it in the pooler that squashes the [CLS] representation.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies tanh element-wise.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Tanh()
}

// Parameters returns nil; Tanh has no trainable parameters.
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return nil
}

// ActivationFor returns the activation module named by a checkpoint config,
// e.g. the hidden_act field. Only the activations the backend implements are
// supported.
func ActivationFor[B tensor.Backend](name string) (Module[B], error) {
	switch name {
	case "gelu":
		return NewGELU[B](), nil
	case "tanh":
		return NewTanh[B](), nil
	default:
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
}
