package nn

import (
	"math"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// ScaledDotProductAttention computes
//
//	Attention(Q, K, V) = softmax(QK^T / sqrt(d_k) + mask) @ V
//
// over 4D head-split tensors:
//   - query:  [batch, heads, seq_q, head_dim]
//   - key:    [batch, heads, seq_k, head_dim]
//   - value:  [batch, heads, seq_k, head_dim]
//   - mask:   additive mask broadcastable to [batch, heads, seq_q, seq_k],
//     or nil. Padding positions carry a large negative value so their
//     softmax weight vanishes.
//   - scale:  score scaling factor; 0 means auto-compute 1/sqrt(head_dim).
//
// Returns the attended values [batch, heads, seq_q, head_dim] and the
// attention weights [batch, heads, seq_q, seq_k].
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
	scale float32,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	validateAttentionInputs(query, key, value)

	if scale == 0 {
		scale = float32(1.0 / math.Sqrt(float64(query.Shape()[3])))
	}

	// Scores: Q @ K^T with the last two dims of K swapped.
	kT := key.Transpose(0, 1, 3, 2)
	scores := query.BatchMatMul(kT).MulScalar(scale)

	if mask != nil {
		scores = scores.Add(mask)
	}

	// Softmax over keys, then gather values.
	weights := scores.Softmax(-1)
	output := weights.BatchMatMul(value)

	return output, weights
}

func validateAttentionInputs[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
) {
	if len(query.Shape()) != 4 {
		panic("ScaledDotProductAttention: query must be 4D [batch, heads, seq_q, head_dim]")
	}
	if len(key.Shape()) != 4 {
		panic("ScaledDotProductAttention: key must be 4D [batch, heads, seq_k, head_dim]")
	}
	if len(value.Shape()) != 4 {
		panic("ScaledDotProductAttention: value must be 4D [batch, heads, seq_k, head_dim]")
	}
	if query.Shape()[3] != key.Shape()[3] {
		panic("ScaledDotProductAttention: query and key must have same head_dim")
	}
	if key.Shape()[2] != value.Shape()[2] {
		panic("ScaledDotProductAttention: key and value must have same seq length")
	}
}
