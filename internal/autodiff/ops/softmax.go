package ops

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// SoftmaxOp records softmax along a dimension.
//
// The Jacobian of softmax is dense, but the vector-Jacobian product
// simplifies per slice s along dim to
//
//	grad_j = s_j * (g_j - dot(g, s))
//
// which only needs the cached output, never the input.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // cached softmax values
	dim    int               // normalized (non-negative) dimension
}

// NewSoftmaxOp creates a SoftmaxOp. dim may be negative, counting from the
// end, and is normalized here so backward has a stable value.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	if dim < 0 {
		dim = len(input.Shape()) + dim
	}
	return &SoftmaxOp{input: input, output: output, dim: dim}
}

// Inputs returns the input tensor.
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the softmax output.
func (op *SoftmaxOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward walks the same slices the forward pass normalized over, using
// the outer/inner stride decomposition of dim.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	inputGrad := zerosLike(shape, op.input.DType(), backend.Device())

	dimSize := shape[op.dim]
	inner := 1
	for i := op.dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	numRows := op.input.NumElements() / dimSize

	switch op.input.DType() {
	case tensor.Float32:
		softmaxBackwardFloat32(inputGrad.AsFloat32(), outputGrad.AsFloat32(), op.output.AsFloat32(), numRows, dimSize, inner)
	case tensor.Float64:
		softmaxBackwardFloat64(inputGrad.AsFloat64(), outputGrad.AsFloat64(), op.output.AsFloat64(), numRows, dimSize, inner)
	default:
		panic(fmt.Sprintf("softmax backward: unsupported dtype %s", op.input.DType()))
	}

	return []*tensor.RawTensor{inputGrad}
}

func softmaxBackwardFloat32(dst, grad, softmax []float32, numRows, dimSize, inner int) {
	for row := 0; row < numRows; row++ {
		base := (row/inner)*dimSize*inner + row%inner

		var dot float32
		for j := 0; j < dimSize; j++ {
			idx := base + j*inner
			dot += grad[idx] * softmax[idx]
		}

		for j := 0; j < dimSize; j++ {
			idx := base + j*inner
			dst[idx] = softmax[idx] * (grad[idx] - dot)
		}
	}
}

func softmaxBackwardFloat64(dst, grad, softmax []float64, numRows, dimSize, inner int) {
	for row := 0; row < numRows; row++ {
		base := (row/inner)*dimSize*inner + row%inner

		var dot float64
		for j := 0; j < dimSize; j++ {
			idx := base + j*inner
			dot += grad[idx] * softmax[idx]
		}

		for j := 0; j < dimSize; j++ {
			idx := base + j*inner
			dst[idx] = softmax[idx] * (grad[idx] - dot)
		}
	}
}
