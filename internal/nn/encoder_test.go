package nn_test

import (
	"testing"

	"github.com/verdict-ml/verdict/internal/autodiff"
	"github.com/verdict-ml/verdict/internal/backend/cpu"
	"github.com/verdict-ml/verdict/internal/nn"
	"github.com/verdict-ml/verdict/internal/tensor"
)

type adBackend = autodiff.AutodiffBackend[*cpu.CPUBackend]

func newEncoderLayer(backend *adBackend) *nn.EncoderLayer[*adBackend] {
	act := nn.NewGELU[*adBackend]()
	return nn.NewEncoderLayer(8, 2, 16, 1e-12, act, backend)
}

func TestEncoderLayer_PreservesShape(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := newEncoderLayer(backend)
	x := tensor.Randn[float32](tensor.Shape{2, 5, 8}, backend)

	out := layer.Forward(x, nil)
	if !out.Shape().Equal(tensor.Shape{2, 5, 8}) {
		t.Errorf("output shape = %v, want [2 5 8]", out.Shape())
	}
}

func TestEncoderLayer_ParameterCount(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := newEncoderLayer(backend)

	// 8 attention params + 2 per norm + 4 FFN params.
	if got := len(layer.Parameters()); got != 16 {
		t.Errorf("Parameters() length = %d, want 16", got)
	}
}

func TestEncoderLayer_OutputIsNormalized(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := newEncoderLayer(backend)
	x := tensor.Randn[float32](tensor.Shape{1, 3, 8}, backend)

	// Post-norm ends with a LayerNorm, so each position of the output has
	// zero mean and unit variance under the default gamma/beta.
	out := layer.Forward(x, nil)
	data := out.Raw().AsFloat32()

	for pos := 0; pos < 3; pos++ {
		row := data[pos*8 : (pos+1)*8]
		var mean float32
		for _, v := range row {
			mean += v
		}
		mean /= 8

		var variance float32
		for _, v := range row {
			variance += (v - mean) * (v - mean)
		}
		variance /= 8

		if !floatEqual(mean, 0, 1e-4) {
			t.Errorf("position %d: mean = %f, want ~0", pos, mean)
		}
		if !floatEqual(variance, 1, 1e-3) {
			t.Errorf("position %d: variance = %f, want ~1", pos, variance)
		}
	}
}

func TestEncoderLayer_GradientReachesInput(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	layer := newEncoderLayer(backend)
	x := tensor.Randn[float32](tensor.Shape{1, 3, 8}, backend)

	y := layer.Forward(x, nil).Sum()
	grads := autodiff.Backward(y, backend)

	grad, ok := grads[x.Raw()]
	if !ok {
		t.Fatal("no gradient for the layer input")
	}
	if !grad.Shape().Equal(tensor.Shape{1, 3, 8}) {
		t.Errorf("gradient shape = %v, want [1 3 8]", grad.Shape())
	}
}

func TestEncoderLayer_MaskedAttention(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := newEncoderLayer(backend)
	x := tensor.Randn[float32](tensor.Shape{1, 4, 8}, backend)

	// Padding mask hiding the last two positions.
	mask, _ := tensor.FromSlice(
		[]float32{0, 0, -10000, -10000},
		tensor.Shape{1, 1, 1, 4}, backend)

	out := layer.Forward(x, mask)
	if !out.Shape().Equal(tensor.Shape{1, 4, 8}) {
		t.Errorf("output shape = %v, want [1 4 8]", out.Shape())
	}
}

func TestEncoderLayer_InvalidConfig(t *testing.T) {
	backend := autodiff.New(cpu.New())

	defer func() {
		if recover() == nil {
			t.Error("expected panic for indivisible head split")
		}
	}()
	nn.NewEncoderLayer(10, 3, 16, 1e-12, nn.NewGELU[*adBackend](), backend)
}
