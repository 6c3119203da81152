package autodiff

import (
	"testing"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// scoreFunc builds a scalar-valued expression from x. Auxiliary constants
// must be created on the supplied backend so both the analytic and the
// numeric passes see the same graph.
type scoreFunc func(backend *cpuAutodiff, x *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff]

// checkGradient compares the taped gradient of f at xData against central
// finite differences. Tolerances are loose because everything runs in
// float32.
func checkGradient(t *testing.T, f scoreFunc, xData []float32, shape tensor.Shape) {
	t.Helper()

	backend := newBackend()
	backend.Tape().StartRecording()
	x := fromSlice(t, backend, xData, shape)
	y := f(backend, x)
	grads := Backward(y, backend)
	raw, ok := grads[x.Raw()]
	if !ok {
		t.Fatal("no gradient for x")
	}
	analytic := raw.AsFloat32()

	const eps = 1e-2
	for i := range xData {
		plus := evalPerturbed(t, f, xData, shape, i, eps)
		minus := evalPerturbed(t, f, xData, shape, i, -eps)
		numeric := (plus - minus) / (2 * eps)

		diff := analytic[i] - numeric
		if diff < 0 {
			diff = -diff
		}
		bound := numeric
		if bound < 0 {
			bound = -bound
		}
		if diff > 1e-2+2e-2*bound {
			t.Errorf("element %d: analytic %v, numeric %v", i, analytic[i], numeric)
		}
	}
}

// evalPerturbed evaluates f with xData[i] shifted by delta, on a fresh
// backend with recording off.
func evalPerturbed(t *testing.T, f scoreFunc, xData []float32, shape tensor.Shape, i int, delta float32) float32 {
	t.Helper()

	backend := newBackend()
	data := make([]float32, len(xData))
	copy(data, xData)
	data[i] += delta
	x := fromSlice(t, backend, data, shape)
	return f(backend, x).Item()
}

func TestGradientMatMulGELUChain(t *testing.T) {
	f := func(backend *cpuAutodiff, x *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff] {
		w := fromSlice(t, backend, []float32{0.5, -0.3, 0.8, 0.1, -0.6, 0.4}, tensor.Shape{3, 2})
		b := fromSlice(t, backend, []float32{0.1, -0.2}, tensor.Shape{2})
		return x.MatMul(w).Add(b).GELU().Sum()
	}
	checkGradient(t, f, []float32{1, -0.5, 0.3, 0.7, 1.2, -0.9}, tensor.Shape{2, 3})
}

func TestGradientMatMulWeight(t *testing.T) {
	// Same chain, differentiated with respect to the weight.
	f := func(backend *cpuAutodiff, w *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff] {
		x := fromSlice(t, backend, []float32{1, -0.5, 0.3, 0.7, 1.2, -0.9}, tensor.Shape{2, 3})
		return x.MatMul(w).GELU().Sum()
	}
	checkGradient(t, f, []float32{0.5, -0.3, 0.8, 0.1, -0.6, 0.4}, tensor.Shape{3, 2})
}

func TestGradientSoftmaxWeightedSum(t *testing.T) {
	f := func(backend *cpuAutodiff, x *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff] {
		m := fromSlice(t, backend, []float32{1, 2, 3, -1, 0.5, 2}, tensor.Shape{2, 3})
		return x.Softmax(-1).Mul(m).Sum()
	}
	checkGradient(t, f, []float32{0.1, 0.9, -0.4, 1.5, -1.1, 0.2}, tensor.Shape{2, 3})
}

func TestGradientSoftmaxSumIsZero(t *testing.T) {
	// Each softmax row sums to one whatever the input, so the gradient of
	// the plain sum vanishes.
	backend := newBackend()
	backend.Tape().StartRecording()

	x := fromSlice(t, backend, []float32{0.3, -2, 1.7, 0.9, 4, -0.1}, tensor.Shape{2, 3})
	y := x.Softmax(1).Sum()

	grads := Backward(y, backend)
	for i, g := range grads[x.Raw()].AsFloat32() {
		if g > 1e-5 || g < -1e-5 {
			t.Errorf("element %d: gradient %v, want ~0", i, g)
		}
	}
}

func TestGradientTanhProduct(t *testing.T) {
	f := func(backend *cpuAutodiff, x *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff] {
		return x.Tanh().Mul(x).Sum()
	}
	checkGradient(t, f, []float32{-1.5, -0.3, 0.2, 0.8, 1.9}, tensor.Shape{5})
}

func TestGradientMeanDim(t *testing.T) {
	f := func(backend *cpuAutodiff, x *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff] {
		return x.Mul(x).MeanDim(1, false).Sum()
	}
	checkGradient(t, f, []float32{1, 2, 3, -1, 0.5, -2}, tensor.Shape{2, 3})
}

func TestGradientExpSumDim(t *testing.T) {
	f := func(backend *cpuAutodiff, x *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff] {
		return x.Exp().SumDim(0, true).Sum()
	}
	checkGradient(t, f, []float32{0.2, -0.7, 0.5, 1.1}, tensor.Shape{2, 2})
}

func TestGradientReciprocal(t *testing.T) {
	f := func(backend *cpuAutodiff, x *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff] {
		c := fromSlice(t, backend, []float32{1, 1, 1, 1}, tensor.Shape{4})
		return c.Div(x).Sum()
	}
	// Stay away from zero: d(1/x)/dx = -1/x².
	checkGradient(t, f, []float32{0.5, 1, 1.5, 2}, tensor.Shape{4})
}

func TestGradientBatchMatMul(t *testing.T) {
	f := func(backend *cpuAutodiff, x *tensor.Tensor[float32, *cpuAutodiff]) *tensor.Tensor[float32, *cpuAutodiff] {
		other := fromSlice(t, backend, []float32{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}, tensor.Shape{2, 2, 2})
		return x.BatchMatMul(other).Sum()
	}
	checkGradient(t, f, []float32{1, -0.5, 0.3, 0.7, 1.2, -0.9, 0.4, -1.3}, tensor.Shape{2, 2, 2})
}
