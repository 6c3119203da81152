package nn

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// MultiHeadAttention implements bidirectional multi-head self-attention:
//
//	MHA(Q, K, V) = Concat(head_1, ..., head_h) @ W_O
//	head_i = SDPA(Q @ W_Q_i, K @ W_K_i, V @ W_V_i)
//
// Projections are stored as full [embed_dim, embed_dim] linears and split
// into heads by reshape, the layout transformer checkpoints use.
type MultiHeadAttention[B tensor.Backend] struct {
	WQ       *Linear[B]
	WK       *Linear[B]
	WV       *Linear[B]
	WO       *Linear[B]
	NumHeads int
	HeadDim  int
	EmbedDim int
	backend  B
}

// NewMultiHeadAttention creates a multi-head attention module.
// embedDim must be divisible by numHeads.
func NewMultiHeadAttention[B tensor.Backend](
	embedDim, numHeads int,
	backend B,
) *MultiHeadAttention[B] {
	if embedDim%numHeads != 0 {
		panic(fmt.Sprintf("MultiHeadAttention: embed_dim (%d) must be divisible by num_heads (%d)", embedDim, numHeads))
	}

	return &MultiHeadAttention[B]{
		WQ:       NewLinear[B](embedDim, embedDim, backend),
		WK:       NewLinear[B](embedDim, embedDim, backend),
		WV:       NewLinear[B](embedDim, embedDim, backend),
		WO:       NewLinear[B](embedDim, embedDim, backend),
		NumHeads: numHeads,
		HeadDim:  embedDim / numHeads,
		EmbedDim: embedDim,
		backend:  backend,
	}
}

// Forward computes multi-head attention.
//
// query is [batch, seq_q, embed_dim]; key and value are
// [batch, seq_k, embed_dim]. For self-attention pass the same tensor three
// times. mask is an additive mask broadcastable to
// [batch, heads, seq_q, seq_k], or nil.
//
// Returns [batch, seq_q, embed_dim].
func (m *MultiHeadAttention[B]) Forward(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	output, _ := m.forward(query, key, value, mask)
	return output
}

// ForwardWithWeights is Forward plus the attention weights
// [batch, num_heads, seq_q, seq_k], for inspection.
func (m *MultiHeadAttention[B]) ForwardWithWeights(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	return m.forward(query, key, value, mask)
}

func (m *MultiHeadAttention[B]) forward(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	batch := query.Shape()[0]
	seqQ := query.Shape()[1]
	seqK := key.Shape()[1]

	// Project, then split into heads:
	// [batch, seq, embed] -> [batch, seq, heads, head_dim] -> [batch, heads, seq, head_dim]
	q := m.projectAndReshape(query, m.WQ, batch, seqQ)
	k := m.projectAndReshape(key, m.WK, batch, seqK)
	v := m.projectAndReshape(value, m.WV, batch, seqK)

	q = q.Reshape(batch, seqQ, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)
	k = k.Reshape(batch, seqK, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)
	v = v.Reshape(batch, seqK, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)

	attnOut, weights := ScaledDotProductAttention(q, k, v, mask, 0)

	// Merge heads back and project.
	attnOut = attnOut.Transpose(0, 2, 1, 3).Reshape(batch*seqQ, m.EmbedDim)
	output := m.WO.Forward(attnOut).Reshape(batch, seqQ, m.EmbedDim)

	return output, weights
}

// projectAndReshape runs a 3D tensor through a 2D linear projection.
func (m *MultiHeadAttention[B]) projectAndReshape(
	input *tensor.Tensor[float32, B],
	linear *Linear[B],
	batch, seq int,
) *tensor.Tensor[float32, B] {
	input2D := input.Reshape(batch*seq, m.EmbedDim)
	return linear.Forward(input2D).Reshape(batch, seq, m.EmbedDim)
}

// Parameters returns the weights and biases of all four projections.
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 8)
	params = append(params, m.WQ.Parameters()...)
	params = append(params, m.WK.Parameters()...)
	params = append(params, m.WV.Parameters()...)
	params = append(params, m.WO.Parameters()...)
	return params
}
