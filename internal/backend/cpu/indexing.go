package cpu

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// Embedding looks up rows of a 2D weight table: result[i] = weight[indices[i]]
// for every position i of the index tensor. The output shape is the index
// shape with the embedding dimension appended. Rows are copied bytewise, so
// any weight dtype works.
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	weightShape := weight.Shape()
	if len(weightShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got %v", weightShape))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}

	numEmbed, embedDim := weightShape[0], weightShape[1]

	outShape := make(tensor.Shape, 0, len(indices.Shape())+1)
	outShape = append(outShape, indices.Shape()...)
	outShape = append(outShape, embedDim)

	result := cpu.newResult(outShape, weight.DType(), "embedding")

	rowBytes := embedDim * weight.DType().Size()
	src := weight.Data()
	dst := result.Data()

	for i, idx := range indices.AsInt32() {
		if idx < 0 || int(idx) >= numEmbed {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", idx, numEmbed))
		}
		copy(dst[i*rowBytes:(i+1)*rowBytes], src[int(idx)*rowBytes:(int(idx)+1)*rowBytes])
	}

	return result
}

// Narrow copies elements [start, start+length) along dim into a fresh
// contiguous tensor. The slice boundaries are contiguous byte blocks in
// row-major layout, so the copy is dtype-agnostic.
func (cpu *CPUBackend) Narrow(t *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("narrow: dimension %d out of range for shape %v", dim, shape))
	}
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dim %d of shape %v",
			start, start+length, dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = length

	result := cpu.newResult(outShape, t.DType(), "narrow")

	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= shape[d]
	}
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}

	innerBytes := inner * t.DType().Size()
	srcRowBytes := shape[dim] * innerBytes
	dstRowBytes := length * innerBytes

	src := t.Data()
	dst := result.Data()

	for o := 0; o < outer; o++ {
		srcOff := o*srcRowBytes + start*innerBytes
		dstOff := o * dstRowBytes
		copy(dst[dstOff:dstOff+dstRowBytes], src[srcOff:srcOff+dstRowBytes])
	}

	return result
}
