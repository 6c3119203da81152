package ops

import (
	"math"
	"testing"

	"github.com/verdict-ml/verdict/internal/tensor"
)

func rawFloat32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v): %v", shape, err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func onesRaw(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = 1
	}
	return rawFloat32(t, shape, data)
}

func assertFloat32(t *testing.T, got, want []float32, tol float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		diff := got[i] - want[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tol {
			t.Errorf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func assertShape(t *testing.T, got, want tensor.Shape) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("shape mismatch: got %v, want %v", got, want)
	}
}

func TestAddBackwardBroadcast(t *testing.T) {
	backend := tensor.NewMockBackend()
	a := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	bias := rawFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})
	output := backend.Add(a, bias)

	op := NewAddOp(a, bias, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2, 3}), backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{2, 3})
	assertFloat32(t, grads[0].AsFloat32(), []float32{1, 1, 1, 1, 1, 1}, 0)

	// The bias was broadcast over dim 0, so its gradient sums that dim.
	assertShape(t, grads[1].Shape(), tensor.Shape{3})
	assertFloat32(t, grads[1].AsFloat32(), []float32{2, 2, 2}, 0)
}

func TestSubBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	a := rawFloat32(t, tensor.Shape{2}, []float32{5, 7})
	b := rawFloat32(t, tensor.Shape{2}, []float32{1, 2})
	output := backend.Sub(a, b)

	op := NewSubOp(a, b, output)
	grad := rawFloat32(t, tensor.Shape{2}, []float32{3, 4})
	grads := op.Backward(grad, backend)

	assertFloat32(t, grads[0].AsFloat32(), []float32{3, 4}, 0)
	assertFloat32(t, grads[1].AsFloat32(), []float32{-3, -4}, 0)
}

func TestMulBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	a := rawFloat32(t, tensor.Shape{2}, []float32{2, 3})
	b := rawFloat32(t, tensor.Shape{2}, []float32{5, 7})
	output := backend.Mul(a, b)

	op := NewMulOp(a, b, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2}), backend)

	assertFloat32(t, grads[0].AsFloat32(), []float32{5, 7}, 0)
	assertFloat32(t, grads[1].AsFloat32(), []float32{2, 3}, 0)
}

func TestDivBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	a := rawFloat32(t, tensor.Shape{2}, []float32{6, 8})
	b := rawFloat32(t, tensor.Shape{2}, []float32{2, 4})
	output := backend.Div(a, b)

	op := NewDivOp(a, b, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2}), backend)

	// d(a/b)/da = 1/b
	assertFloat32(t, grads[0].AsFloat32(), []float32{0.5, 0.25}, 1e-6)
	// d(a/b)/db = -a/b²
	assertFloat32(t, grads[1].AsFloat32(), []float32{-1.5, -0.5}, 1e-6)
}

func TestMatMulBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	a := rawFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	b := rawFloat32(t, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})
	output := backend.MatMul(a, b)

	op := NewMatMulOp(a, b, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2, 2}), backend)

	// grad_a = ones @ b^T
	assertFloat32(t, grads[0].AsFloat32(), []float32{11, 15, 11, 15}, 1e-6)
	// grad_b = a^T @ ones
	assertFloat32(t, grads[1].AsFloat32(), []float32{4, 4, 6, 6}, 1e-6)
}

func TestBatchMatMulBackwardShapes(t *testing.T) {
	backend := tensor.NewMockBackend()
	a := onesRaw(t, tensor.Shape{2, 3, 4})
	b := onesRaw(t, tensor.Shape{2, 4, 5})
	output := backend.BatchMatMul(a, b)

	op := NewBatchMatMulOp(a, b, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2, 3, 5}), backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{2, 3, 4})
	assertShape(t, grads[1].Shape(), tensor.Shape{2, 4, 5})

	// All-ones inputs: grad_a elements are sums over the n dimension (5),
	// grad_b elements sums over the m dimension (3).
	assertFloat32(t, grads[0].AsFloat32()[:4], []float32{5, 5, 5, 5}, 1e-6)
	assertFloat32(t, grads[1].AsFloat32()[:4], []float32{3, 3, 3, 3}, 1e-6)
}

func TestScalarBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
	grad := rawFloat32(t, tensor.Shape{3}, []float32{1, 10, 100})

	mul := NewMulScalarOp(x, backend.MulScalar(x, float32(2)), float32(2))
	assertFloat32(t, mul.Backward(grad, backend)[0].AsFloat32(), []float32{2, 20, 200}, 0)

	div := NewDivScalarOp(x, backend.DivScalar(x, float32(4)), float32(4))
	assertFloat32(t, div.Backward(grad, backend)[0].AsFloat32(), []float32{0.25, 2.5, 25}, 1e-6)

	add := NewAddScalarOp(x, backend.AddScalar(x, float32(5)), float32(5))
	assertFloat32(t, add.Backward(grad, backend)[0].AsFloat32(), []float32{1, 10, 100}, 0)

	sub := NewSubScalarOp(x, backend.SubScalar(x, float32(5)), float32(5))
	assertFloat32(t, sub.Backward(grad, backend)[0].AsFloat32(), []float32{1, 10, 100}, 0)
}

func TestExpBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2}, []float32{0, 1})
	output := backend.Exp(x)

	op := NewExpOp(x, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2}), backend)

	assertFloat32(t, grads[0].AsFloat32(), []float32{1, 2.7182817}, 1e-5)
}

func TestSqrtBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2}, []float32{4, 16})
	output := backend.Sqrt(x)

	op := NewSqrtOp(x, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2}), backend)

	// d(sqrt(x))/dx = 0.5/sqrt(x)
	assertFloat32(t, grads[0].AsFloat32(), []float32{0.25, 0.125}, 1e-6)
}

func TestRsqrtBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2}, []float32{1, 4})
	output := backend.Rsqrt(x)

	op := NewRsqrtOp(x, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2}), backend)

	// d(x^-1/2)/dx = -0.5 * x^-3/2
	assertFloat32(t, grads[0].AsFloat32(), []float32{-0.5, -0.0625}, 1e-6)
}

func TestTanhBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2}, []float32{0, 1})
	output := backend.Tanh(x)

	op := NewTanhOp(x, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{2}), backend)

	th := float32(math.Tanh(1))
	assertFloat32(t, grads[0].AsFloat32(), []float32{1, 1 - th*th}, 1e-6)
}

func TestGELUBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{3}, []float32{-1, 0, 1})
	output := backend.GELU(x)

	op := NewGELUOp(x, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{3}), backend)

	want := make([]float32, 3)
	for i, v := range []float64{-1, 0, 1} {
		cdf := 0.5 * (1 + math.Erf(v/math.Sqrt2))
		pdf := math.Exp(-0.5*v*v) / math.Sqrt(2*math.Pi)
		want[i] = float32(cdf + v*pdf)
	}
	assertFloat32(t, grads[0].AsFloat32(), want, 1e-6)
}

func TestGELUBackwardFiniteDifference(t *testing.T) {
	backend := tensor.NewMockBackend()
	points := []float32{-2.5, -0.7, 0.3, 1.9}
	x := rawFloat32(t, tensor.Shape{4}, points)
	output := backend.GELU(x)

	op := NewGELUOp(x, output)
	grads := op.Backward(onesRaw(t, tensor.Shape{4}), backend)

	const eps = 1e-3
	gelu := func(v float64) float64 {
		return 0.5 * v * (1 + math.Erf(v/math.Sqrt2))
	}
	for i, p := range points {
		numeric := (gelu(float64(p)+eps) - gelu(float64(p)-eps)) / (2 * eps)
		got := float64(grads[0].AsFloat32()[i])
		if math.Abs(got-numeric) > 1e-3 {
			t.Errorf("at x=%v: analytic %v, numeric %v", p, got, numeric)
		}
	}
}

func TestSoftmaxBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 0, 0, 0})
	output := backend.Softmax(x, -1)

	op := NewSoftmaxOp(x, output, -1)
	grad := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 0, 0, 0, 1, 0})
	grads := op.Backward(grad, backend)

	// Softmax gradients sum to zero within each normalized slice.
	data := grads[0].AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float32
		for j := 0; j < 3; j++ {
			sum += data[row*3+j]
		}
		if sum > 1e-6 || sum < -1e-6 {
			t.Errorf("row %d gradient sums to %v, want 0", row, sum)
		}
	}

	// Uniform second row: s_j = 1/3 and dot = sum(g*s) = 1/3, so
	// grad_j = s_j * (g_j - 1/3).
	s := float32(1.0 / 3.0)
	wantRow1 := []float32{s * (0 - s), s * (1 - s), s * (0 - s)}
	assertFloat32(t, data[3:], wantRow1, 1e-6)
}

func TestSumBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	output := backend.Sum(x)

	op := NewSumOp(x, output)
	grad := rawFloat32(t, tensor.Shape{}, []float32{2.5})
	grads := op.Backward(grad, backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{2, 2})
	assertFloat32(t, grads[0].AsFloat32(), []float32{2.5, 2.5, 2.5, 2.5}, 0)
}

func TestSumDimBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	output := backend.SumDim(x, 1, false)

	op := NewSumDimOp(x, output, 1, false)
	grad := rawFloat32(t, tensor.Shape{2}, []float32{10, 20})
	grads := op.Backward(grad, backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{2, 3})
	assertFloat32(t, grads[0].AsFloat32(), []float32{10, 10, 10, 20, 20, 20}, 0)
}

func TestMeanDimBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2, 4}, make([]float32, 8))
	output := backend.MeanDim(x, -1, true)

	op := NewMeanDimOp(x, output, -1, true)
	grad := rawFloat32(t, tensor.Shape{2, 1}, []float32{4, 8})
	grads := op.Backward(grad, backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{2, 4})
	assertFloat32(t, grads[0].AsFloat32(), []float32{1, 1, 1, 1, 2, 2, 2, 2}, 1e-6)
}

func TestReshapeBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	output := backend.Reshape(x, tensor.Shape{3, 2})

	op := NewReshapeOp(x, output)
	grad := rawFloat32(t, tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	grads := op.Backward(grad, backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{2, 3})
	assertFloat32(t, grads[0].AsFloat32(), []float32{1, 2, 3, 4, 5, 6}, 0)
}

func TestTransposeBackward(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	output := backend.Transpose(x, 1, 0)

	op := NewTransposeOp(x, output, []int{1, 0})
	grad := backend.Transpose(x, 1, 0) // same layout as output
	grads := op.Backward(grad, backend)

	// Transposing the gradient back must restore the input layout.
	assertShape(t, grads[0].Shape(), tensor.Shape{2, 3})
	assertFloat32(t, grads[0].AsFloat32(), []float32{1, 2, 3, 4, 5, 6}, 0)
}

func TestTransposeBackwardPermutation(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := onesRaw(t, tensor.Shape{2, 3, 4, 5})
	axes := []int{0, 2, 1, 3}
	output := backend.Transpose(x, axes...)

	op := NewTransposeOp(x, output, axes)
	grads := op.Backward(onesRaw(t, tensor.Shape{2, 4, 3, 5}), backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{2, 3, 4, 5})
}

func TestEmbeddingBackwardAccumulates(t *testing.T) {
	backend := tensor.NewMockBackend()
	weight := rawFloat32(t, tensor.Shape{3, 2}, []float32{0, 0, 0, 0, 0, 0})

	indices, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(indices.AsInt32(), []int32{0, 1, 0})

	output := backend.Embedding(weight, indices)
	op := NewEmbeddingOp(weight, indices, output)

	grad := rawFloat32(t, tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	grads := op.Backward(grad, backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{3, 2})
	// Row 0 receives positions 0 and 2 accumulated; row 2 untouched.
	assertFloat32(t, grads[0].AsFloat32(), []float32{6, 8, 3, 4, 0, 0}, 0)
}

func TestNarrowBackwardZeroPad(t *testing.T) {
	backend := tensor.NewMockBackend()
	data := make([]float32, 12)
	for i := range data {
		data[i] = float32(i)
	}
	x := rawFloat32(t, tensor.Shape{2, 3, 2}, data)

	output := backend.Narrow(x, 1, 0, 1)
	op := NewNarrowOp(x, output, 1, 0, 1)

	grad := rawFloat32(t, tensor.Shape{2, 1, 2}, []float32{1, 2, 3, 4})
	grads := op.Backward(grad, backend)

	assertShape(t, grads[0].Shape(), tensor.Shape{2, 3, 2})
	assertFloat32(t, grads[0].AsFloat32(), []float32{
		1, 2, 0, 0, 0, 0,
		3, 4, 0, 0, 0, 0,
	}, 0)
}

func TestNarrowBackwardMiddle(t *testing.T) {
	backend := tensor.NewMockBackend()
	x := onesRaw(t, tensor.Shape{2, 4})

	output := backend.Narrow(x, 1, 1, 2)
	op := NewNarrowOp(x, output, 1, 1, 2)

	grad := rawFloat32(t, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})
	grads := op.Backward(grad, backend)

	assertFloat32(t, grads[0].AsFloat32(), []float32{
		0, 5, 6, 0,
		0, 7, 8, 0,
	}, 0)
}
