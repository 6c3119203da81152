package ops

import (
	"fmt"
	"math"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// GELUOp records the exact Gaussian Error Linear Unit:
//
//	GELU(x) = x * Phi(x),  Phi(x) = 0.5 * (1 + erf(x/sqrt(2)))
//
// Backward uses the product rule:
//
//	d(GELU)/dx = Phi(x) + x * phi(x),  phi(x) = exp(-x²/2) / sqrt(2π)
type GELUOp struct{ unaryOp }

// NewGELUOp creates a GELUOp.
func NewGELUOp(input, output *tensor.RawTensor) *GELUOp {
	return &GELUOp{unaryOp{input: input, output: output}}
}

// Backward computes grad_input = outputGrad * (Phi(x) + x*phi(x)).
func (op *GELUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.input
	inputGrad := zerosLike(x.Shape(), x.DType(), backend.Device())

	switch x.DType() {
	case tensor.Float32:
		geluBackwardFloat32(inputGrad.AsFloat32(), outputGrad.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		geluBackwardFloat64(inputGrad.AsFloat64(), outputGrad.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("gelu backward: unsupported dtype %s", x.DType()))
	}

	return []*tensor.RawTensor{inputGrad}
}

const invSqrt2Pi = 0.3989422804014327 // 1 / sqrt(2π)

func geluBackwardFloat32(dst, grad, x []float32) {
	for i, v := range x {
		xv := float64(v)
		cdf := 0.5 * (1.0 + math.Erf(xv/math.Sqrt2))
		pdf := invSqrt2Pi * math.Exp(-0.5*xv*xv)
		dst[i] = grad[i] * float32(cdf+xv*pdf)
	}
}

func geluBackwardFloat64(dst, grad, x []float64) {
	for i, xv := range x {
		cdf := 0.5 * (1.0 + math.Erf(xv/math.Sqrt2))
		pdf := invSqrt2Pi * math.Exp(-0.5*xv*xv)
		dst[i] = grad[i] * (cdf + xv*pdf)
	}
}
