package ops

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// reduceBroadcast reduces a gradient to the given input shape, undoing any
// broadcasting the forward pass performed. Dimensions the input did not
// have are summed away; dimensions of size 1 are summed with keepDim.
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]
//	Backward: grad_c[3,4] -> grad_a[3,1]  (summed along dim 1)
//
// When the shapes already match, the gradient is cloned so that later
// in-place accumulation on the returned tensor cannot corrupt a gradient
// shared with another graph node.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad.Clone()
	}

	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	for i, size := range targetShape {
		if size == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// typedScalar converts a float64 constant to the exact scalar type the
// backend expects for the given dtype.
func typedScalar(dtype tensor.DataType, v float64) any {
	switch dtype {
	case tensor.Float32:
		return float32(v)
	case tensor.Float64:
		return v
	default:
		panic(fmt.Sprintf("typedScalar: unsupported dtype %s", dtype))
	}
}

// negate returns -grad.
func negate(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(grad, typedScalar(grad.DType(), -1))
}

// fillLike creates a tensor of the given shape filled with a constant.
func fillLike(shape tensor.Shape, dtype tensor.DataType, value float64, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("fillLike: %v", err))
	}

	switch dtype {
	case tensor.Float32:
		data := result.AsFloat32()
		v := float32(value)
		for i := range data {
			data[i] = v
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		panic(fmt.Sprintf("fillLike: unsupported dtype %s", dtype))
	}

	return result
}

// zerosLike creates a zero tensor matching shape and dtype. A fresh buffer
// is already zeroed, so no fill pass is needed.
func zerosLike(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("zerosLike: %v", err))
	}
	return result
}
