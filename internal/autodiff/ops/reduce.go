package ops

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// SumOp records a full reduction to a scalar: output = sum(x).
//
// Every element contributes with weight 1, so backward fills the input
// shape with the scalar output gradient.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

// Inputs returns the input tensor.
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the scalar sum.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward fills the input shape with the scalar gradient value.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	var v float64
	switch outputGrad.DType() {
	case tensor.Float32:
		v = float64(outputGrad.AsFloat32()[0])
	case tensor.Float64:
		v = outputGrad.AsFloat64()[0]
	default:
		panic(fmt.Sprintf("sum backward: unsupported dtype %s", outputGrad.DType()))
	}

	return []*tensor.RawTensor{fillLike(op.input.Shape(), op.input.DType(), v, backend.Device())}
}

// SumDimOp records a sum along one dimension: output = sum(x, dim, keepDim).
//
// Backward broadcasts the output gradient back over the reduced dimension.
// If keepDim was false, the gradient is first reshaped to reinsert the
// reduced dimension as size 1.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int // normalized
	keepDim bool
}

// NewSumDimOp creates a SumDimOp, normalizing a negative dim.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	if dim < 0 {
		dim = len(input.Shape()) + dim
	}
	return &SumDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

// Inputs returns the input tensor.
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward broadcasts the gradient over the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := restoreReducedDim(outputGrad, op.input.Shape(), op.dim, op.keepDim, backend)
	return []*tensor.RawTensor{broadcastTo(grad, op.input.Shape(), backend)}
}

// MeanDimOp records a mean along one dimension. Backward is the SumDimOp
// gradient divided by the size of the reduced dimension.
type MeanDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int // normalized
	keepDim bool
}

// NewMeanDimOp creates a MeanDimOp, normalizing a negative dim.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	if dim < 0 {
		dim = len(input.Shape()) + dim
	}
	return &MeanDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

// Inputs returns the input tensor.
func (op *MeanDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the reduced tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward broadcasts the gradient and divides by the reduced size.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := restoreReducedDim(outputGrad, op.input.Shape(), op.dim, op.keepDim, backend)
	grad = broadcastTo(grad, op.input.Shape(), backend)

	dimSize := float64(op.input.Shape()[op.dim])
	grad = backend.DivScalar(grad, typedScalar(grad.DType(), dimSize))

	return []*tensor.RawTensor{grad}
}

// restoreReducedDim reshapes a keepDim=false gradient so the reduced
// dimension reappears with size 1, making it broadcastable against the
// input shape. keepDim=true gradients already have that form.
func restoreReducedDim(grad *tensor.RawTensor, inputShape tensor.Shape, dim int, keepDim bool, backend tensor.Backend) *tensor.RawTensor {
	if keepDim {
		return grad
	}
	target := inputShape.Clone()
	target[dim] = 1
	return backend.Reshape(grad, target)
}

// broadcastTo expands a tensor to the target shape by adding it to zeros,
// reusing the backend's stride-0 broadcast path.
func broadcastTo(t *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if t.Shape().Equal(targetShape) {
		return t.Clone()
	}
	zeros := zerosLike(targetShape, t.DType(), backend.Device())
	return backend.Add(zeros, t)
}
