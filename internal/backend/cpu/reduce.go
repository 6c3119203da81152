package cpu

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/parallel"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// Sum reduces the tensor to a scalar (shape {}). Float32 accumulates in
// float64 so long reductions don't lose low-order bits.
func (cpu *CPUBackend) Sum(t *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.newResult(tensor.Shape{}, t.DType(), "sum")

	switch t.DType() {
	case tensor.Float32:
		var sum float64
		for _, v := range t.AsFloat32() {
			sum += float64(v)
		}
		result.AsFloat32()[0] = float32(sum)
	case tensor.Float64:
		var sum float64
		for _, v := range t.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	case tensor.Int32:
		var sum int32
		for _, v := range t.AsInt32() {
			sum += v
		}
		result.AsInt32()[0] = sum
	case tensor.Int64:
		var sum int64
		for _, v := range t.AsInt64() {
			sum += v
		}
		result.AsInt64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", t.DType()))
	}

	return result
}

// SumDim sums along a dimension. With keepDim the reduced dimension stays
// as size 1, otherwise it is removed from the shape.
func (cpu *CPUBackend) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for shape %v", dim, shape))
	}

	outShape := make(tensor.Shape, 0, ndim)
	for d, size := range shape {
		if d == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, size)
	}

	result := cpu.newResult(outShape, t.DType(), "sumdim")

	dimSize := shape[dim]
	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= shape[d]
	}
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}

	switch t.DType() {
	case tensor.Float32:
		sumDimFloat32(result.AsFloat32(), t.AsFloat32(), outer, dimSize, inner, cpu.par)
	case tensor.Float64:
		sumDimFloat64(result.AsFloat64(), t.AsFloat64(), outer, dimSize, inner, cpu.par)
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s", t.DType()))
	}

	return result
}

// MeanDim computes the mean along a dimension by summing and dividing the
// result buffer in place.
func (cpu *CPUBackend) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	ndim := len(t.Shape())
	normDim := dim
	if normDim < 0 {
		normDim = ndim + normDim
	}
	if normDim < 0 || normDim >= ndim {
		panic(fmt.Sprintf("meandim: dimension %d out of range for shape %v", dim, t.Shape()))
	}
	dimSize := t.Shape()[normDim]

	result := cpu.SumDim(t, normDim, keepDim)

	switch result.DType() {
	case tensor.Float32:
		inv := 1.0 / float32(dimSize)
		data := result.AsFloat32()
		for i := range data {
			data[i] *= inv
		}
	case tensor.Float64:
		inv := 1.0 / float64(dimSize)
		data := result.AsFloat64()
		for i := range data {
			data[i] *= inv
		}
	default:
		panic(fmt.Sprintf("meandim: unsupported dtype %s", result.DType()))
	}

	return result
}

func sumDimFloat32(dst, src []float32, outer, dimSize, inner int, cfg parallel.Config) {
	parallel.For(outer, func(o int) {
		for in := 0; in < inner; in++ {
			var sum float64
			for d := 0; d < dimSize; d++ {
				sum += float64(src[o*dimSize*inner+d*inner+in])
			}
			dst[o*inner+in] = float32(sum)
		}
	}, cfg)
}

func sumDimFloat64(dst, src []float64, outer, dimSize, inner int, cfg parallel.Config) {
	parallel.For(outer, func(o int) {
		for in := 0; in < inner; in++ {
			var sum float64
			for d := 0; d < dimSize; d++ {
				sum += src[o*dimSize*inner+d*inner+in]
			}
			dst[o*inner+in] = sum
		}
	}, cfg)
}
