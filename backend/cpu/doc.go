// Copyright 2025 Verdict ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 support
//   - Batch processing
//   - NumPy-compatible broadcasting
//
// # Basic Usage
//
//	import (
//	    "github.com/verdict-ml/verdict/backend/cpu"
//	    "github.com/verdict-ml/verdict/tensor"
//	    "github.com/verdict-ml/verdict/nn"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Use with tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    // Use with neural networks
//	    model := nn.NewLinear(768, 768, backend)
//	}
//
// # Performance
//
// The CPU backend is optimized for transformer inference and backpropagation:
//   - Efficient matrix multiplication
//   - Heavy kernels (matmul, softmax, GELU) fan out across worker goroutines
//   - NewSequential() disables the fan-out for deterministic profiling
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
