package ops

import "github.com/verdict-ml/verdict/internal/tensor"

// NarrowOp records a contiguous slice along one dimension:
// output = input[..., start:start+length, ...].
//
// Backward places the output gradient back into a zeroed tensor of the
// input shape; positions outside the slice contributed nothing and keep
// gradient zero. The blocks are contiguous in row-major layout, so the
// copy works bytewise for any dtype, mirroring the forward pass.
type NarrowOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int // normalized
	start  int
	length int
}

// NewNarrowOp creates a NarrowOp, normalizing a negative dim.
func NewNarrowOp(input, output *tensor.RawTensor, dim, start, length int) *NarrowOp {
	if dim < 0 {
		dim = len(input.Shape()) + dim
	}
	return &NarrowOp{
		input:  input,
		output: output,
		dim:    dim,
		start:  start,
		length: length,
	}
}

// Inputs returns the input tensor.
func (op *NarrowOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the sliced tensor.
func (op *NarrowOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward zero-pads the gradient back to the input shape.
func (op *NarrowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	inputGrad := zerosLike(shape, op.input.DType(), backend.Device())

	inner := 1
	for d := op.dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	outer := 1
	for d := 0; d < op.dim; d++ {
		outer *= shape[d]
	}

	innerBytes := inner * op.input.DType().Size()
	dstRowBytes := shape[op.dim] * innerBytes
	srcRowBytes := op.length * innerBytes

	src := outputGrad.Data()
	dst := inputGrad.Data()

	for o := 0; o < outer; o++ {
		srcOff := o * srcRowBytes
		dstOff := o*dstRowBytes + op.start*innerBytes
		copy(dst[dstOff:dstOff+srcRowBytes], src[srcOff:srcOff+srcRowBytes])
	}

	return []*tensor.RawTensor{inputGrad}
}
