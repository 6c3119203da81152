// Copyright 2025 Verdict ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/verdict-ml/verdict/internal/nn"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// Module interface defines the common interface for single-input modules.
//
// Layers with extra inputs (attention takes a mask, embedding takes indices)
// expose their own Forward signatures and only share Parameters.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a named weight tensor in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(768, 768, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Activations

// GELU represents the Gaussian Error Linear Unit activation function.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a new GELU activation layer.
//
// Example:
//
//	gelu := nn.NewGELU[B]()
func NewGELU[B tensor.Backend]() *GELU[B] {
	return nn.NewGELU[B]()
}

// Tanh represents the Tanh activation function.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new Tanh activation layer.
//
// Example:
//
//	tanh := nn.NewTanh[B]()
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// ActivationFor returns the activation module for a checkpoint config name
// such as "gelu" or "tanh".
func ActivationFor[B tensor.Backend](name string) (Module[B], error) {
	return nn.ActivationFor[B](name)
}

// Embedding and Normalization Layers

// Embedding represents a lookup table for embeddings.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates a new embedding layer.
//
// Example:
//
//	backend := cpu.New()
//	embed := nn.NewEmbedding[B](30522, 768, backend)  // vocab=30522, dim=768
//	tokenIds, _ := tensor.FromSlice([]int32{1, 5, 10}, tensor.Shape{1, 3}, backend)
//	embeddings := embed.Forward(tokenIds)  // [1, 3, 768]
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend)
}

// NewEmbeddingWithWeight creates an embedding layer from an existing weight tensor.
//
// This is useful when loading pre-trained embeddings.
//
// Example:
//
//	weights := tensor.Randn[float32](tensor.Shape{30522, 768}, backend)
//	embed := nn.NewEmbeddingWithWeight(weights)
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	return nn.NewEmbeddingWithWeight(weight)
}

// LayerNorm represents Layer Normalization.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a new LayerNorm layer.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewLayerNorm[B](768, 1e-12, backend)
//	output := norm.Forward(input)  // [..., 768] -> [..., 768]
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend)
}

// Initialization functions

// Xavier initializes a tensor using Xavier/Glorot initialization.
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Xavier(768, 768, tensor.Shape{768, 768}, backend)
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros initializes a tensor with zeros (for biases).
//
// Example:
//
//	backend := cpu.New()
//	bias := nn.Zeros(tensor.Shape{768}, backend)
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones initializes a tensor with ones.
//
// Example:
//
//	backend := cpu.New()
//	gamma := nn.Ones(tensor.Shape{768}, backend)
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn initializes a tensor with random values from N(0, 1).
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Randn(tensor.Shape{768, 768}, backend)
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}

// Attention Functions

// ScaledDotProductAttention computes attention scores using the scaled dot-product mechanism.
//
// This is the core attention mechanism used in transformers.
//
// Parameters:
//   - query: Query tensor [batch, heads, seq_q, head_dim]
//   - key: Key tensor [batch, heads, seq_k, head_dim]
//   - value: Value tensor [batch, heads, seq_k, head_dim]
//   - mask: Optional attention mask [batch, 1, seq_q, seq_k] or nil (additive mask, large negative for masked)
//   - scale: Scaling factor (0 for auto-compute as 1/sqrt(head_dim))
//
// Returns:
//   - output: Attended values [batch, heads, seq_q, head_dim]
//   - weights: Attention weights [batch, heads, seq_q, seq_k]
//
// Example:
//
//	Q := tensor.Randn[float32](tensor.Shape{2, 12, 10, 64}, backend)
//	K := tensor.Randn[float32](tensor.Shape{2, 12, 10, 64}, backend)
//	V := tensor.Randn[float32](tensor.Shape{2, 12, 10, 64}, backend)
//	output, weights := nn.ScaledDotProductAttention(Q, K, V, nil, 0)
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
	scale float32,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	return nn.ScaledDotProductAttention(query, key, value, mask, scale)
}

// MultiHeadAttention represents the multi-head attention mechanism.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates a new multi-head attention module.
//
// Parameters:
//   - embedDim: Total embedding dimension (must be divisible by numHeads)
//   - numHeads: Number of attention heads
//   - backend: Computation backend
//
// Example:
//
//	backend := cpu.New()
//	mha := nn.NewMultiHeadAttention[B](768, 12, backend)  // BERT-base config
//	output := mha.Forward(x, x, x, nil)  // Self-attention
func NewMultiHeadAttention[B tensor.Backend](embedDim, numHeads int, backend B) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention[B](embedDim, numHeads, backend)
}

// Transformer Blocks

// FFN represents the position-wise feed-forward block of a transformer layer.
type FFN[B tensor.Backend] = nn.FFN[B]

// NewFFN creates a feed-forward block: Linear(embedDim, ffnDim), activation,
// Linear(ffnDim, embedDim).
//
// Example:
//
//	backend := cpu.New()
//	ffn := nn.NewFFN[B](768, 3072, nn.NewGELU[B](), backend)
func NewFFN[B tensor.Backend](embedDim, ffnDim int, act Module[B], backend B) *FFN[B] {
	return nn.NewFFN(embedDim, ffnDim, act, backend)
}

// EncoderLayer represents a post-norm transformer encoder layer:
// self-attention with a residual connection and LayerNorm, then a
// feed-forward block with a residual connection and LayerNorm.
type EncoderLayer[B tensor.Backend] = nn.EncoderLayer[B]

// NewEncoderLayer creates an encoder layer.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewEncoderLayer[B](768, 12, 3072, 1e-12, nn.NewGELU[B](), backend)
//	output := layer.Forward(hidden, mask)
func NewEncoderLayer[B tensor.Backend](
	embedDim, numHeads, ffnDim int,
	normEps float32,
	act Module[B],
	backend B,
) *EncoderLayer[B] {
	return nn.NewEncoderLayer(embedDim, numHeads, ffnDim, normEps, act, backend)
}
