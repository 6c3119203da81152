package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdict-ml/verdict/internal/autodiff"
	"github.com/verdict-ml/verdict/internal/backend/cpu"
	"github.com/verdict-ml/verdict/internal/bert"
	"github.com/verdict-ml/verdict/internal/tensor"
)

type adBackend = autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() *adBackend {
	return autodiff.New(cpu.New())
}

func idTensor(t *testing.T, backend *adBackend, ids []int32) *tensor.Tensor[int32, *adBackend] {
	t.Helper()
	raw, err := tensor.NewRaw(tensor.Shape{1, len(ids)}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsInt32(), ids)
	return tensor.New[int32](raw, backend)
}

// embedTable maps id -> (id, id/2), small enough to verify by hand.
func embedTable(t *testing.T, backend *adBackend, ids *tensor.Tensor[int32, *adBackend]) *tensor.Tensor[float32, *adBackend] {
	t.Helper()
	seq := ids.Shape()[1]
	data := make([]float32, seq*2)
	for i, id := range ids.Data() {
		data[i*2] = float32(id)
		data[i*2+1] = float32(id) * 0.5
	}
	emb, err := tensor.FromSlice[float32](data, tensor.Shape{1, seq, 2}, backend)
	require.NoError(t, err)
	return emb
}

// linearModel scores F(E) = sum(E * W), whose embedding gradient is exactly
// W everywhere. Integrated gradients must be exact for it at any step count.
type linearModel struct {
	t       *testing.T
	backend *adBackend
	w       *tensor.Tensor[float32, *adBackend]
}

func (m *linearModel) EmbedOnly(ids, _ *tensor.Tensor[int32, *adBackend]) *tensor.Tensor[float32, *adBackend] {
	return embedTable(m.t, m.backend, ids)
}

func (m *linearModel) ForwardFromEmbeddings(embeds, _ *tensor.Tensor[float32, *adBackend]) *tensor.Tensor[float32, *adBackend] {
	return embeds.Mul(m.w).Sum()
}

// squareModel scores F(E) = sum(E^2). The path integral of its gradient has
// the closed form in^2 - ref^2 per element, and both quadratures integrate
// the linear integrand exactly.
type squareModel struct {
	t       *testing.T
	backend *adBackend
}

func (m *squareModel) EmbedOnly(ids, _ *tensor.Tensor[int32, *adBackend]) *tensor.Tensor[float32, *adBackend] {
	return embedTable(m.t, m.backend, ids)
}

func (m *squareModel) ForwardFromEmbeddings(embeds, _ *tensor.Tensor[float32, *adBackend]) *tensor.Tensor[float32, *adBackend] {
	return embeds.Mul(embeds).Sum()
}

func TestLinearModelAttributionIsExact(t *testing.T) {
	inputIDs := []int32{10, 4, 6, 20}
	refIDs := []int32{10, 0, 0, 20}
	wData := []float32{0.1, -0.05, 0.2, -0.1, 0.3, -0.15, 0.4, -0.2}

	// Expected: per token, sum over hidden of (in - ref) * w.
	expected := make([]float64, 4)
	for i := 0; i < 4; i++ {
		for h := 0; h < 2; h++ {
			in := embedValue(inputIDs[i], h)
			ref := embedValue(refIDs[i], h)
			expected[i] += float64((in - ref) * wData[i*2+h])
		}
	}

	for _, method := range []Method{MethodTrapezoid, MethodGaussLegendre} {
		t.Run(string(method), func(t *testing.T) {
			backend := newBackend()
			w, err := tensor.FromSlice[float32](wData, tensor.Shape{1, 4, 2}, backend)
			require.NoError(t, err)
			model := &linearModel{t: t, backend: backend, w: w}

			result, err := LayerIntegratedGradients[*adBackend](
				model, backend,
				idTensor(t, backend, inputIDs), idTensor(t, backend, refIDs),
				nil, Config{Steps: 5, Method: method},
			)
			require.NoError(t, err)

			require.Len(t, result.PerToken, 4)
			for i, want := range expected {
				assert.InDelta(t, want, result.PerToken[i], 1e-5, "token %d", i)
			}
			// Unchanged tokens have a zero embedding diff and exactly zero
			// attribution.
			assert.Zero(t, result.PerToken[0])
			assert.Zero(t, result.PerToken[3])

			assert.InDelta(t, 0, result.Delta, 1e-5)
			assert.InDelta(t, result.InputScore-result.RefScore,
				expected[0]+expected[1]+expected[2]+expected[3], 1e-4)
		})
	}
}

func embedValue(id int32, h int) float32 {
	if h == 0 {
		return float32(id)
	}
	return float32(id) * 0.5
}

func TestSquareModelAttributionIsExact(t *testing.T) {
	inputIDs := []int32{10, 4, 6, 20}
	refIDs := []int32{10, 0, 0, 20}

	// Closed form: attribution per element is in^2 - ref^2.
	expected := make([]float64, 4)
	for i := 0; i < 4; i++ {
		for h := 0; h < 2; h++ {
			in := float64(embedValue(inputIDs[i], h))
			ref := float64(embedValue(refIDs[i], h))
			expected[i] += in*in - ref*ref
		}
	}

	for _, method := range []Method{MethodTrapezoid, MethodGaussLegendre} {
		t.Run(string(method), func(t *testing.T) {
			backend := newBackend()
			model := &squareModel{t: t, backend: backend}

			result, err := LayerIntegratedGradients[*adBackend](
				model, backend,
				idTensor(t, backend, inputIDs), idTensor(t, backend, refIDs),
				nil, Config{Steps: 3, Method: method},
			)
			require.NoError(t, err)

			for i, want := range expected {
				assert.InDelta(t, want, result.PerToken[i], 1e-2, "token %d", i)
			}
			assert.InDelta(t, 0, result.Delta, 1e-2)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	backend := newBackend()
	w, err := tensor.FromSlice[float32](make([]float32, 4), tensor.Shape{1, 2, 2}, backend)
	require.NoError(t, err)
	model := &linearModel{t: t, backend: backend, w: w}

	result, err := LayerIntegratedGradients[*adBackend](
		model, backend,
		idTensor(t, backend, []int32{1, 2}), idTensor(t, backend, []int32{1, 0}),
		nil, Config{},
	)
	require.NoError(t, err)
	assert.Equal(t, DefaultSteps, result.Steps)
	assert.Equal(t, MethodTrapezoid, result.Method)
}

func TestInputValidation(t *testing.T) {
	backend := newBackend()
	w, err := tensor.FromSlice[float32](make([]float32, 4), tensor.Shape{1, 2, 2}, backend)
	require.NoError(t, err)
	model := &linearModel{t: t, backend: backend, w: w}

	t.Run("length mismatch", func(t *testing.T) {
		_, err := LayerIntegratedGradients[*adBackend](
			model, backend,
			idTensor(t, backend, []int32{1, 2, 3}), idTensor(t, backend, []int32{1, 0}),
			nil, Config{},
		)
		assert.Error(t, err)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := LayerIntegratedGradients[*adBackend](
			model, backend,
			idTensor(t, backend, []int32{1, 2}), idTensor(t, backend, []int32{1, 0}),
			nil, Config{Method: "simpson"},
		)
		assert.Error(t, err)
	})
}

// wideModel returns more than one output value, which attribution rejects.
type wideModel struct {
	t       *testing.T
	backend *adBackend
}

func (m *wideModel) EmbedOnly(ids, _ *tensor.Tensor[int32, *adBackend]) *tensor.Tensor[float32, *adBackend] {
	return embedTable(m.t, m.backend, ids)
}

func (m *wideModel) ForwardFromEmbeddings(embeds, _ *tensor.Tensor[float32, *adBackend]) *tensor.Tensor[float32, *adBackend] {
	return embeds
}

func TestMultiOutputRejected(t *testing.T) {
	backend := newBackend()
	model := &wideModel{t: t, backend: backend}

	_, err := LayerIntegratedGradients[*adBackend](
		model, backend,
		idTensor(t, backend, []int32{1, 2}), idTensor(t, backend, []int32{1, 0}),
		nil, Config{},
	)
	assert.Error(t, err)
}

func TestEncoderClassifierEndToEnd(t *testing.T) {
	backend := newBackend()
	cfg := bert.Config{
		VocabSize:             20,
		HiddenSize:            8,
		NumHiddenLayers:       2,
		NumAttentionHeads:     2,
		IntermediateSize:      16,
		MaxPositionEmbeddings: 10,
		TypeVocabSize:         2,
		LayerNormEps:          1e-12,
		HiddenAct:             "gelu",
		NumLabels:             1,
	}
	model, err := bert.New(cfg, backend)
	require.NoError(t, err)

	input := idTensor(t, backend, []int32{1, 5, 7, 2})
	ref := idTensor(t, backend, []int32{1, 0, 0, 2})

	result, err := LayerIntegratedGradients[*adBackend](
		model, backend, input, ref, nil,
		Config{Steps: 8, Method: MethodTrapezoid},
	)
	require.NoError(t, err)

	require.Len(t, result.PerToken, 4)

	// Frame tokens are identical in input and reference, so their embedding
	// diff and attribution are exactly zero.
	assert.Zero(t, result.PerToken[0])
	assert.Zero(t, result.PerToken[3])

	norm := 0.0
	for _, v := range result.Normalized {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-6)

	// The tape is handed back stopped and empty.
	assert.False(t, backend.Tape().IsRecording())
	assert.Equal(t, 0, backend.Tape().NumOps())
}
