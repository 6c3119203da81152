// Copyright 2025 Verdict ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for Verdict.
//
// # Overview
//
// Tensors are the fundamental data structure in Verdict. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy operations where possible
//   - Device abstraction (CPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/verdict-ml/verdict/tensor"
//	    "github.com/verdict-ml/verdict/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    result := x.MatMul(y.Transpose())
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType constraint:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers, useful for token ids)
//
// # Broadcasting
//
// Tensor operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// # Memory Management
//
// Tensors use zero-copy operations where possible. The underlying data is
// reference-counted and automatically freed when no longer needed.
//
// # Available Operations
//
// Scalar operations:
//
//	y := x.MulScalar(2.0)    // Multiply by scalar
//	y := x.AddScalar(1.0)    // Add scalar
//	y := x.SubScalar(0.5)    // Subtract scalar
//	y := x.DivScalar(2.0)    // Divide by scalar
//
// Math operations:
//
//	y := x.Exp()             // Exponential
//	y := x.Sqrt()            // Square root
//	y := x.Rsqrt()           // Reciprocal square root
//	y := x.Tanh()            // Hyperbolic tangent
//	y := x.GELU()            // Gaussian error linear unit
//
// Reductions:
//
//	s := x.Sum()             // Total sum (scalar tensor)
//	s := x.SumDim(1, true)   // Sum along dimension
//	m := x.MeanDim(-1, true) // Mean along dimension
//
// Type conversion:
//
//	i := x.Int32()           // Convert to int32
//	f := x.Float32()         // Convert to float32
//
// See method documentation for the full list of operations.
package tensor
