package cpu

import (
	"fmt"
	"math"

	"github.com/verdict-ml/verdict/internal/parallel"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// Softmax computes softmax along the given dimension (negative dims count
// from the end). Each slice along dim is shifted by its max before
// exponentiation for numerical stability. Slices are independent and run
// in parallel.
func (cpu *CPUBackend) Softmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 {
		dim = len(shape) + dim
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: dimension %d out of range for shape %v", dim, shape))
	}

	result := cpu.newResult(shape, t.DType(), "softmax")

	dimSize := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	numRows := t.NumElements() / dimSize

	switch t.DType() {
	case tensor.Float32:
		softmaxFloat32(result.AsFloat32(), t.AsFloat32(), numRows, dimSize, inner, cpu.par.PerItem())
	case tensor.Float64:
		softmaxFloat64(result.AsFloat64(), t.AsFloat64(), numRows, dimSize, inner, cpu.par.PerItem())
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", t.DType()))
	}

	return result
}

func softmaxFloat32(dst, src []float32, numRows, dimSize, inner int, cfg parallel.Config) {
	parallel.For(numRows, func(row int) {
		base := (row/inner)*dimSize*inner + row%inner

		maxVal := src[base]
		for j := 1; j < dimSize; j++ {
			if v := src[base+j*inner]; v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		for j := 0; j < dimSize; j++ {
			idx := base + j*inner
			e := float32(math.Exp(float64(src[idx] - maxVal)))
			dst[idx] = e
			sum += e
		}

		invSum := 1.0 / sum
		for j := 0; j < dimSize; j++ {
			dst[base+j*inner] *= invSum
		}
	}, cfg)
}

func softmaxFloat64(dst, src []float64, numRows, dimSize, inner int, cfg parallel.Config) {
	parallel.For(numRows, func(row int) {
		base := (row/inner)*dimSize*inner + row%inner

		maxVal := src[base]
		for j := 1; j < dimSize; j++ {
			if v := src[base+j*inner]; v > maxVal {
				maxVal = v
			}
		}

		var sum float64
		for j := 0; j < dimSize; j++ {
			idx := base + j*inner
			e := math.Exp(src[idx] - maxVal)
			dst[idx] = e
			sum += e
		}

		invSum := 1.0 / sum
		for j := 0; j < dimSize; j++ {
			dst[base+j*inner] *= invSum
		}
	}, cfg)
}

// GELU computes the exact Gaussian Error Linear Unit,
// 0.5 * x * (1 + erf(x/sqrt(2))), elementwise.
func (cpu *CPUBackend) GELU(t *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.newResult(t.Shape(), t.DType(), "gelu")

	switch t.DType() {
	case tensor.Float32:
		src := t.AsFloat32()
		dst := result.AsFloat32()
		parallel.For(len(src), func(i int) {
			v := float64(src[i])
			dst[i] = float32(0.5 * v * (1.0 + math.Erf(v/math.Sqrt2)))
		}, cpu.par)
	case tensor.Float64:
		src := t.AsFloat64()
		dst := result.AsFloat64()
		parallel.For(len(src), func(i int) {
			v := src[i]
			dst[i] = 0.5 * v * (1.0 + math.Erf(v/math.Sqrt2))
		}, cpu.par)
	default:
		panic(fmt.Sprintf("gelu: unsupported dtype %s", t.DType()))
	}

	return result
}
