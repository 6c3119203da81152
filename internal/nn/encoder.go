package nn

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// EncoderLayer is one post-norm transformer encoder layer:
//
//	x -> MHA -> + -> LayerNorm -> FFN -> + -> LayerNorm -> output
//	      ^____|                   ^____|
//	   (residual)               (residual)
//
// Post-norm (normalize after each residual add) is the original Transformer
// arrangement and the one BERT-family checkpoints were trained with, so the
// order here must not change when loading them.
type EncoderLayer[B tensor.Backend] struct {
	Attention *MultiHeadAttention[B]
	AttnNorm  *LayerNorm[B]
	FFN       *FFN[B]
	FFNNorm   *LayerNorm[B]
	backend   B
}

// NewEncoderLayer creates an encoder layer. act is the FFN activation from
// the checkpoint config; normEps the LayerNorm epsilon (1e-12 for BERT).
func NewEncoderLayer[B tensor.Backend](
	embedDim, numHeads, ffnDim int,
	normEps float32,
	act Module[B],
	backend B,
) *EncoderLayer[B] {
	if embedDim <= 0 || numHeads <= 0 || ffnDim <= 0 {
		panic(fmt.Sprintf("EncoderLayer: dimensions must be positive, got embed=%d heads=%d ffn=%d",
			embedDim, numHeads, ffnDim))
	}
	if embedDim%numHeads != 0 {
		panic(fmt.Sprintf("EncoderLayer: embedDim (%d) must be divisible by numHeads (%d)", embedDim, numHeads))
	}

	return &EncoderLayer[B]{
		Attention: NewMultiHeadAttention[B](embedDim, numHeads, backend),
		AttnNorm:  NewLayerNorm[B](embedDim, normEps, backend),
		FFN:       NewFFN[B](embedDim, ffnDim, act, backend),
		FFNNorm:   NewLayerNorm[B](embedDim, normEps, backend),
		backend:   backend,
	}
}

// Forward runs self-attention and the feed-forward block, each followed by a
// residual add and layer norm.
//
// x is [batch, seq, embed_dim]; mask is an additive attention mask
// broadcastable to [batch, heads, seq, seq], or nil.
func (l *EncoderLayer[B]) Forward(x, mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	attnOut := l.Attention.Forward(x, x, x, mask)
	x = l.AttnNorm.Forward(x.Add(attnOut))

	ffnOut := l.FFN.Forward(x)
	x = l.FFNNorm.Forward(x.Add(ffnOut))

	return x
}

// Parameters returns all parameters of the layer in submodule order.
func (l *EncoderLayer[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 16)
	params = append(params, l.Attention.Parameters()...)
	params = append(params, l.AttnNorm.Parameters()...)
	params = append(params, l.FFN.Parameters()...)
	params = append(params, l.FFNNorm.Parameters()...)
	return params
}
