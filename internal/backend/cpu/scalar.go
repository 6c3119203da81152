package cpu

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// Scalar operations require the scalar to be typed exactly as the tensor
// dtype (float32 tensor -> float32 scalar). The generic tensor layer
// guarantees this; a mismatch here is a programming error.

func scalarFloat32(scalar any, op string) float32 {
	s, ok := scalar.(float32)
	if !ok {
		panic(fmt.Sprintf("%s: expected float32 scalar for float32 tensor, got %T", op, scalar))
	}
	return s
}

func scalarFloat64(scalar any, op string) float64 {
	s, ok := scalar.(float64)
	if !ok {
		panic(fmt.Sprintf("%s: expected float64 scalar for float64 tensor, got %T", op, scalar))
	}
	return s
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := cpu.newResult(t.Shape(), t.DType(), "addscalar")

	switch t.DType() {
	case tensor.Float32:
		s := scalarFloat32(scalar, "addscalar")
		src := t.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = v + s
		}
	case tensor.Float64:
		s := scalarFloat64(scalar, "addscalar")
		src := t.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = v + s
		}
	default:
		panic(fmt.Sprintf("addscalar: unsupported dtype %s", t.DType()))
	}

	return result
}

// SubScalar subtracts a scalar from every element.
func (cpu *CPUBackend) SubScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := cpu.newResult(t.Shape(), t.DType(), "subscalar")

	switch t.DType() {
	case tensor.Float32:
		s := scalarFloat32(scalar, "subscalar")
		src := t.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = v - s
		}
	case tensor.Float64:
		s := scalarFloat64(scalar, "subscalar")
		src := t.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = v - s
		}
	default:
		panic(fmt.Sprintf("subscalar: unsupported dtype %s", t.DType()))
	}

	return result
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := cpu.newResult(t.Shape(), t.DType(), "mulscalar")

	switch t.DType() {
	case tensor.Float32:
		s := scalarFloat32(scalar, "mulscalar")
		src := t.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = v * s
		}
	case tensor.Float64:
		s := scalarFloat64(scalar, "mulscalar")
		src := t.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = v * s
		}
	default:
		panic(fmt.Sprintf("mulscalar: unsupported dtype %s", t.DType()))
	}

	return result
}

// DivScalar divides every element by a scalar. Division by zero follows
// IEEE 754 semantics (Inf/NaN), matching elementwise Div.
func (cpu *CPUBackend) DivScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := cpu.newResult(t.Shape(), t.DType(), "divscalar")

	switch t.DType() {
	case tensor.Float32:
		s := scalarFloat32(scalar, "divscalar")
		src := t.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = v / s
		}
	case tensor.Float64:
		s := scalarFloat64(scalar, "divscalar")
		src := t.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = v / s
		}
	default:
		panic(fmt.Sprintf("divscalar: unsupported dtype %s", t.DType()))
	}

	return result
}
