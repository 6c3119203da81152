package ops

import "github.com/verdict-ml/verdict/internal/tensor"

// unaryOp carries the shared state of single-input operations.
type unaryOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func (op *unaryOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

func (op *unaryOp) Output() *tensor.RawTensor {
	return op.output
}

// ExpOp records output = exp(x). Since d(exp(x))/dx = exp(x), the backward
// pass reuses the cached output.
type ExpOp struct{ unaryOp }

// NewExpOp creates an ExpOp.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{unaryOp{input: input, output: output}}
}

// Backward: grad_input = outputGrad * exp(x).
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// SqrtOp records output = sqrt(x). d(sqrt(x))/dx = 0.5 / sqrt(x).
type SqrtOp struct{ unaryOp }

// NewSqrtOp creates a SqrtOp.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{unaryOp{input: input, output: output}}
}

// Backward: grad_input = outputGrad * 0.5 / output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	half := backend.MulScalar(outputGrad, typedScalar(outputGrad.DType(), 0.5))
	return []*tensor.RawTensor{backend.Div(half, op.output)}
}

// RsqrtOp records output = 1/sqrt(x). d(1/sqrt(x))/dx = -0.5 * y³ for
// y = 1/sqrt(x).
type RsqrtOp struct{ unaryOp }

// NewRsqrtOp creates an RsqrtOp.
func NewRsqrtOp(input, output *tensor.RawTensor) *RsqrtOp {
	return &RsqrtOp{unaryOp{input: input, output: output}}
}

// Backward: grad_input = outputGrad * (-0.5) * output³.
func (op *RsqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	cubed := backend.Mul(backend.Mul(op.output, op.output), op.output)
	scaled := backend.MulScalar(cubed, typedScalar(outputGrad.DType(), -0.5))
	return []*tensor.RawTensor{backend.Mul(outputGrad, scaled)}
}

// TanhOp records output = tanh(x). d(tanh(x))/dx = 1 - tanh²(x), computed
// from the cached output.
type TanhOp struct{ unaryOp }

// NewTanhOp creates a TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{unaryOp{input: input, output: output}}
}

// Backward: grad_input = outputGrad * (1 - output²).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	squared := backend.Mul(op.output, op.output)
	derivative := backend.AddScalar(negate(squared, backend), typedScalar(outputGrad.DType(), 1))
	return []*tensor.RawTensor{backend.Mul(outputGrad, derivative)}
}
