package autodiff

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// BackwardCapable is a backend that exposes a gradient tape.
// AutodiffBackend implements it.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape.
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward seeds the output tensor's gradient with ones and runs the tape
// backwards, returning gradients for every tensor on the recorded graph.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, backend)
//	dx := grads[x.Raw()] // 2x
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget Tape().StartRecording()?)")
	}

	return tape.Backward(OnesLike(t.Raw(), backend.Device()), backend)
}

// OnesLike creates a tensor of ones matching the given tensor's shape and
// dtype. Used to seed the output gradient of a backward pass.
func OnesLike(t *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	grad, err := tensor.NewRaw(t.Shape(), t.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := grad.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := grad.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s", t.DType()))
	}

	return grad
}
