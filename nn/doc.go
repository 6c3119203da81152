// Copyright 2025 Verdict ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Embedding, LayerNorm
//   - Activations: GELU, Tanh
//   - Attention: ScaledDotProductAttention, MultiHeadAttention
//   - Transformer blocks: FFN, EncoderLayer
//   - Utilities: Module interface, Parameter
//   - Initialization: Xavier, Zeros, Ones, Randn
//
// # Basic Usage
//
//	import (
//	    "github.com/verdict-ml/verdict/nn"
//	    "github.com/verdict-ml/verdict/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Build a single encoder layer
//	    layer := nn.NewEncoderLayer(768, 12, 3072, 1e-12, nn.NewGELU[*cpu.Backend](), backend)
//
//	    // Forward pass (mask may be nil)
//	    output := layer.Forward(hidden, nil)
//	}
//
// # Layers
//
// Linear: Fully connected layer with Xavier initialization. Weights are
// stored [out_features, in_features] to match transformer checkpoints.
//
//	layer := nn.NewLinear(inFeatures, outFeatures, backend)
//
// Embedding: Lookup table mapping int32 ids to dense vectors
//
//	embed := nn.NewEmbedding(vocabSize, embedDim, backend)
//
// LayerNorm: Normalizes the last dimension with learned gain and bias
//
//	norm := nn.NewLayerNorm(embedDim, 1e-12, backend)
//
// # Activations
//
// Common activation functions:
//
//	gelu := nn.NewGELU[B]()
//	tanh := nn.NewTanh[B]()
//
// ActivationFor maps checkpoint config names to modules:
//
//	act, err := nn.ActivationFor[B]("gelu")
//
// # Parameter Management
//
// Access model parameters:
//
//	params := layer.Parameters()
//	for _, param := range params {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
//
// # Gradient Support
//
// All layers run on any tensor.Backend. Wrap the backend with autodiff.New
// to record operations for backpropagation; the layer code is unchanged.
package nn
