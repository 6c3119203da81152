package ops

import "github.com/verdict-ml/verdict/internal/tensor"

// scalarOp carries the shared state of tensor-scalar operations. The
// scalar itself is not differentiated.
type scalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scalar any
}

func (op *scalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

func (op *scalarOp) Output() *tensor.RawTensor {
	return op.output
}

// MulScalarOp records output = x * s. Backward scales the gradient by s.
type MulScalarOp struct{ scalarOp }

// NewMulScalarOp creates a MulScalarOp.
func NewMulScalarOp(input, output *tensor.RawTensor, scalar any) *MulScalarOp {
	return &MulScalarOp{scalarOp{input: input, output: output, scalar: scalar}}
}

// Backward scales the output gradient by the recorded scalar.
func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
}

// DivScalarOp records output = x / s. Backward divides the gradient by s.
type DivScalarOp struct{ scalarOp }

// NewDivScalarOp creates a DivScalarOp.
func NewDivScalarOp(input, output *tensor.RawTensor, scalar any) *DivScalarOp {
	return &DivScalarOp{scalarOp{input: input, output: output, scalar: scalar}}
}

// Backward divides the output gradient by the recorded scalar.
func (op *DivScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
}

// AddScalarOp records output = x + s. The gradient passes through unchanged.
type AddScalarOp struct{ scalarOp }

// NewAddScalarOp creates an AddScalarOp.
func NewAddScalarOp(input, output *tensor.RawTensor, scalar any) *AddScalarOp {
	return &AddScalarOp{scalarOp{input: input, output: output, scalar: scalar}}
}

// Backward passes the gradient through. Cloned so in-place accumulation on
// the result cannot touch the shared output gradient.
func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}

// SubScalarOp records output = x - s. The gradient passes through unchanged.
type SubScalarOp struct{ scalarOp }

// NewSubScalarOp creates a SubScalarOp.
func NewSubScalarOp(input, output *tensor.RawTensor, scalar any) *SubScalarOp {
	return &SubScalarOp{scalarOp{input: input, output: output, scalar: scalar}}
}

// Backward passes the gradient through.
func (op *SubScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}
