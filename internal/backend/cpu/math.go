package cpu

import (
	"fmt"
	"math"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// unaryOp applies fn elementwise, allocating a fresh result tensor.
// Float32 kernels round-trip through float64 for the math package.
func (cpu *CPUBackend) unaryOp(t *tensor.RawTensor, op string, fn func(float64) float64) *tensor.RawTensor {
	result := cpu.newResult(t.Shape(), t.DType(), op)

	switch t.DType() {
	case tensor.Float32:
		src := t.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(fn(float64(v)))
		}
	case tensor.Float64:
		src := t.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = fn(v)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, t.DType()))
	}

	return result
}

// Exp computes e^x elementwise.
func (cpu *CPUBackend) Exp(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp(t, "exp", math.Exp)
}

// Sqrt computes the square root elementwise.
func (cpu *CPUBackend) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp(t, "sqrt", math.Sqrt)
}

// Rsqrt computes the reciprocal square root 1/sqrt(x) elementwise.
func (cpu *CPUBackend) Rsqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp(t, "rsqrt", func(v float64) float64 {
		return 1.0 / math.Sqrt(v)
	})
}

// Tanh computes the hyperbolic tangent elementwise.
func (cpu *CPUBackend) Tanh(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp(t, "tanh", math.Tanh)
}
