package nn_test

import (
	"testing"

	"github.com/verdict-ml/verdict/internal/autodiff"
	"github.com/verdict-ml/verdict/internal/backend/cpu"
	"github.com/verdict-ml/verdict/internal/nn"
	"github.com/verdict-ml/verdict/internal/tensor"
)

func TestSDPA_KnownValues(t *testing.T) {
	backend := autodiff.New(cpu.New())

	// batch=1, heads=1, seq=2, head_dim=2 with orthonormal Q=K.
	q, _ := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2}, backend)
	k, _ := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2}, backend)
	v, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)

	output, weights := nn.ScaledDotProductAttention(q, k, v, nil, 0)

	// scores = I/sqrt(2); softmax([0.7071, 0]) = [0.6697, 0.3303].
	wantW := []float32{0.669739, 0.330261, 0.330261, 0.669739}
	gotW := weights.Raw().AsFloat32()
	for i := range wantW {
		if !floatEqual(gotW[i], wantW[i], 1e-4) {
			t.Errorf("weights[%d] = %f, want %f", i, gotW[i], wantW[i])
		}
	}

	wantO := []float32{1.660522, 2.660522, 2.339478, 3.339478}
	gotO := output.Raw().AsFloat32()
	for i := range wantO {
		if !floatEqual(gotO[i], wantO[i], 1e-4) {
			t.Errorf("output[%d] = %f, want %f", i, gotO[i], wantO[i])
		}
	}
}

func TestSDPA_WeightsSumToOne(t *testing.T) {
	backend := autodiff.New(cpu.New())

	q := tensor.Randn[float32](tensor.Shape{2, 2, 3, 4}, backend)
	k := tensor.Randn[float32](tensor.Shape{2, 2, 3, 4}, backend)
	v := tensor.Randn[float32](tensor.Shape{2, 2, 3, 4}, backend)

	_, weights := nn.ScaledDotProductAttention(q, k, v, nil, 0)

	data := weights.Raw().AsFloat32()
	for row := 0; row < 2*2*3; row++ {
		sum := float32(0)
		for j := 0; j < 3; j++ {
			sum += data[row*3+j]
		}
		if !floatEqual(sum, 1, 1e-5) {
			t.Errorf("weights row %d sums to %f, want 1", row, sum)
		}
	}
}

func TestSDPA_PaddingMask(t *testing.T) {
	backend := autodiff.New(cpu.New())

	q := tensor.Randn[float32](tensor.Shape{1, 1, 2, 2}, backend)
	k := tensor.Randn[float32](tensor.Shape{1, 1, 2, 2}, backend)
	v, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)

	// Mask out the second key position for every query.
	mask, _ := tensor.FromSlice(
		[]float32{0, -10000, 0, -10000},
		tensor.Shape{1, 1, 2, 2}, backend)

	output, weights := nn.ScaledDotProductAttention(q, k, v, mask, 0)

	gotW := weights.Raw().AsFloat32()
	for row := 0; row < 2; row++ {
		if !floatEqual(gotW[row*2], 1, 1e-4) {
			t.Errorf("row %d: weight on kept key = %f, want ~1", row, gotW[row*2])
		}
		if gotW[row*2+1] > 1e-4 {
			t.Errorf("row %d: weight on masked key = %f, want ~0", row, gotW[row*2+1])
		}
	}

	// Output collapses to the first value row.
	gotO := output.Raw().AsFloat32()
	for row := 0; row < 2; row++ {
		if !floatEqual(gotO[row*2], 1, 1e-3) || !floatEqual(gotO[row*2+1], 2, 1e-3) {
			t.Errorf("row %d: output = [%f %f], want [1 2]", row, gotO[row*2], gotO[row*2+1])
		}
	}
}

func TestSDPA_BroadcastMask(t *testing.T) {
	backend := autodiff.New(cpu.New())

	// A [batch, 1, 1, seq_k] mask must broadcast across heads and queries.
	q := tensor.Randn[float32](tensor.Shape{2, 2, 3, 4}, backend)
	k := tensor.Randn[float32](tensor.Shape{2, 2, 3, 4}, backend)
	v := tensor.Randn[float32](tensor.Shape{2, 2, 3, 4}, backend)

	mask, _ := tensor.FromSlice(
		[]float32{0, 0, -10000, 0, 0, 0},
		tensor.Shape{2, 1, 1, 3}, backend)

	_, weights := nn.ScaledDotProductAttention(q, k, v, mask, 0)

	// First batch: key 2 is masked for every head and query.
	data := weights.Raw().AsFloat32()
	for row := 0; row < 2*3; row++ {
		if data[row*3+2] > 1e-4 {
			t.Errorf("batch 0 row %d: masked weight = %f, want ~0", row, data[row*3+2])
		}
	}
}

func TestSDPA_ValidatesShapes(t *testing.T) {
	backend := autodiff.New(cpu.New())

	q := tensor.Randn[float32](tensor.Shape{2, 3, 4}, backend)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for 3D query")
		}
	}()
	nn.ScaledDotProductAttention(q, q, q, nil, 0)
}

func TestMHA_Shapes(t *testing.T) {
	backend := autodiff.New(cpu.New())

	mha := nn.NewMultiHeadAttention(8, 2, backend)
	x := tensor.Randn[float32](tensor.Shape{2, 4, 8}, backend)

	out, weights := mha.ForwardWithWeights(x, x, x, nil)

	if !out.Shape().Equal(tensor.Shape{2, 4, 8}) {
		t.Errorf("output shape = %v, want [2 4 8]", out.Shape())
	}
	if !weights.Shape().Equal(tensor.Shape{2, 2, 4, 4}) {
		t.Errorf("weights shape = %v, want [2 2 4 4]", weights.Shape())
	}
	if len(mha.Parameters()) != 8 {
		t.Errorf("Parameters() length = %d, want 8", len(mha.Parameters()))
	}
}

func TestMHA_InvalidHeadSplit(t *testing.T) {
	backend := autodiff.New(cpu.New())

	defer func() {
		if recover() == nil {
			t.Error("expected panic when embed_dim is not divisible by heads")
		}
	}()
	nn.NewMultiHeadAttention(10, 3, backend)
}
