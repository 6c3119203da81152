package nn

import (
	"github.com/verdict-ml/verdict/internal/tensor"
)

// FFN is the position-wise feed-forward block of a transformer layer:
//
//	FFN(x) = Linear2(Act(Linear1(x)))
//
// Linear1 expands embed_dim to ffn_dim (4x for BERT-family models), Linear2
// projects back. The activation comes from the checkpoint config.
type FFN[B tensor.Backend] struct {
	Linear1 *Linear[B] // [embed_dim -> ffn_dim]
	Linear2 *Linear[B] // [ffn_dim -> embed_dim]
	Act     Module[B]
	backend B
}

// NewFFN creates a feed-forward block with the given activation.
func NewFFN[B tensor.Backend](embedDim, ffnDim int, act Module[B], backend B) *FFN[B] {
	return &FFN[B]{
		Linear1: NewLinear[B](embedDim, ffnDim, backend),
		Linear2: NewLinear[B](ffnDim, embedDim, backend),
		Act:     act,
		backend: backend,
	}
}

// Forward applies expand, activate, project. Accepts [batch, embed_dim] or
// [batch, seq, embed_dim] and returns the same shape.
func (f *FFN[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	origShape := x.Shape()
	is3D := len(origShape) == 3
	if is3D {
		x = x.Reshape(origShape[0]*origShape[1], origShape[2])
	}

	x = f.Linear2.Forward(f.Act.Forward(f.Linear1.Forward(x)))

	if is3D {
		x = x.Reshape(origShape[0], origShape[1], origShape[2])
	}
	return x
}

// Parameters returns the parameters of both linears.
func (f *FFN[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 4)
	params = append(params, f.Linear1.Parameters()...)
	params = append(params, f.Linear2.Parameters()...)
	return params
}
