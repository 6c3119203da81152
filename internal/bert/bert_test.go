package bert_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verdict-ml/verdict/internal/backend/cpu"
	"github.com/verdict-ml/verdict/internal/bert"
	"github.com/verdict-ml/verdict/internal/tensor"
)

func tinyConfig() bert.Config {
	return bert.Config{
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
}

func newTinyModel(t *testing.T) *bert.Model[*cpu.CPUBackend] {
	t.Helper()
	model, err := bert.New(tinyConfig(), cpu.New())
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}
	return model
}

func idsTensor(t *testing.T, backend *cpu.CPUBackend, rows [][]int) *tensor.Tensor[int32, *cpu.CPUBackend] {
	t.Helper()
	batch, seq := len(rows), len(rows[0])
	raw, err := tensor.NewRaw(tensor.Shape{batch, seq}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatalf("failed to allocate ids: %v", err)
	}
	data := raw.AsInt32()
	for b, row := range rows {
		for s, id := range row {
			data[b*seq+s] = int32(id)
		}
	}
	return tensor.New[int32](raw, backend)
}

func maskTensor(t *testing.T, backend *cpu.CPUBackend, rows [][]float32) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	batch, seq := len(rows), len(rows[0])
	flat := make([]float32, 0, batch*seq)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	mask, err := tensor.FromSlice[float32](flat, tensor.Shape{batch, seq}, backend)
	if err != nil {
		t.Fatalf("failed to build mask: %v", err)
	}
	return mask
}

func TestConfigValidate(t *testing.T) {
	cfg := tinyConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := tinyConfig()
	bad.NumAttentionHeads = 3
	if err := bad.Validate(); err == nil {
		t.Error("expected error for hidden_size not divisible by heads")
	}

	bad = tinyConfig()
	bad.VocabSize = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero vocab_size")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	blob := `{
		"model_type": "bert",
		"vocab_size": 128,
		"hidden_size": 16,
		"num_hidden_layers": 2,
		"num_attention_heads": 2,
		"intermediate_size": 32,
		"id2label": {"0": "not_guilty", "1": "guilty"}
	}`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := bert.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.VocabSize != 128 || cfg.HiddenSize != 16 {
		t.Errorf("parsed dims wrong: vocab=%d hidden=%d", cfg.VocabSize, cfg.HiddenSize)
	}
	// Fields absent from the file keep bert-base defaults.
	if cfg.MaxPositionEmbeddings != 512 {
		t.Errorf("max_position_embeddings = %d, want default 512", cfg.MaxPositionEmbeddings)
	}
	if cfg.LayerNormEps != 1e-12 {
		t.Errorf("layer_norm_eps = %g, want default 1e-12", cfg.LayerNormEps)
	}
	// num_labels is absent, so the label count comes from id2label.
	if got := cfg.Labels(); got != 2 {
		t.Errorf("Labels() = %d, want 2 from id2label", got)
	}

	if _, err := bert.LoadConfig(filepath.Join(dir, "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfigLabels(t *testing.T) {
	cfg := bert.Config{NumLabels: 3}
	if got := cfg.Labels(); got != 3 {
		t.Errorf("Labels() = %d, want 3", got)
	}
	cfg = bert.Config{ID2Label: map[string]string{"0": "a", "1": "b"}}
	if got := cfg.Labels(); got != 2 {
		t.Errorf("Labels() from id2label = %d, want 2", got)
	}
	if got := (bert.Config{}).Labels(); got != 1 {
		t.Errorf("Labels() default = %d, want 1", got)
	}
}

func TestForwardShape(t *testing.T) {
	model := newTinyModel(t)
	ids := idsTensor(t, model.Backend(), [][]int{{1, 4, 7, 2, 0}, {1, 9, 2, 0, 0}})

	logits := model.Forward(ids, nil, nil)

	want := tensor.Shape{2, 1}
	if !logits.Shape().Equal(want) {
		t.Errorf("logits shape = %v, want %v", logits.Shape(), want)
	}
}

func TestForwardSplitsAtEmbeddings(t *testing.T) {
	model := newTinyModel(t)
	ids := idsTensor(t, model.Backend(), [][]int{{1, 4, 7, 2}})

	direct := model.Forward(ids, nil, nil)
	split := model.ForwardFromEmbeddings(model.EmbedOnly(ids, nil), nil)

	d, s := direct.Data(), split.Data()
	for i := range d {
		if d[i] != s[i] {
			t.Fatalf("Forward and EmbedOnly+ForwardFromEmbeddings disagree at %d: %v vs %v", i, d[i], s[i])
		}
	}
}

func TestPaddingDoesNotChangeScore(t *testing.T) {
	model := newTinyModel(t)
	backend := model.Backend()

	short := idsTensor(t, backend, [][]int{{2, 5, 3}})
	padded := idsTensor(t, backend, [][]int{{2, 5, 3, 0, 0}})
	mask := maskTensor(t, backend, [][]float32{{1, 1, 1, 0, 0}})

	a := model.Forward(short, nil, nil).Item()
	b := model.Forward(padded, nil, mask).Item()

	if diff := math.Abs(float64(a - b)); diff > 1e-5 {
		t.Errorf("masked padding shifted score by %g: %v vs %v", diff, a, b)
	}
}

func TestParameterMapComplete(t *testing.T) {
	model := newTinyModel(t)
	params := model.ParameterMap()

	// 5 embedding tensors, 16 per layer, 2 pooler, 2 classifier.
	want := 5 + 16*tinyConfig().NumHiddenLayers + 2 + 2
	if len(params) != want {
		t.Errorf("ParameterMap has %d entries, want %d", len(params), want)
	}
	if len(model.Parameters()) != want {
		t.Errorf("Parameters has %d entries, want %d", len(model.Parameters()), want)
	}

	for _, name := range []string{
		"bert.embeddings.word_embeddings.weight",
		"bert.embeddings.LayerNorm.bias",
		"bert.encoder.layer.0.attention.self.query.weight",
		"bert.encoder.layer.1.attention.output.LayerNorm.weight",
		"bert.encoder.layer.1.intermediate.dense.bias",
		"bert.pooler.dense.weight",
		"classifier.bias",
	} {
		if _, ok := params[name]; !ok {
			t.Errorf("ParameterMap missing %q", name)
		}
	}
}

func TestLoadStateDictRoundtrip(t *testing.T) {
	source := newTinyModel(t)
	target := newTinyModel(t)

	state := make(map[string]*tensor.RawTensor)
	for name, param := range source.ParameterMap() {
		state[name] = param.Tensor().Raw()
	}

	extra, err := target.LoadStateDict(state)
	if err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}
	if len(extra) != 0 {
		t.Errorf("unexpected extras: %v", extra)
	}

	ids := idsTensor(t, source.Backend(), [][]int{{1, 4, 7, 2}})
	a := source.Forward(ids, nil, nil).Item()
	ids2 := idsTensor(t, target.Backend(), [][]int{{1, 4, 7, 2}})
	b := target.Forward(ids2, nil, nil).Item()
	if a != b {
		t.Errorf("loaded model diverges from source: %v vs %v", a, b)
	}
}

func TestLoadStateDictMissingTensor(t *testing.T) {
	model := newTinyModel(t)

	state := make(map[string]*tensor.RawTensor)
	for name, param := range model.ParameterMap() {
		state[name] = param.Tensor().Raw()
	}
	delete(state, "classifier.weight")

	_, err := model.LoadStateDict(state)
	if err == nil {
		t.Fatal("expected error for missing tensor")
	}
	if !strings.Contains(err.Error(), "classifier.weight") {
		t.Errorf("error does not name the missing tensor: %v", err)
	}
}

func TestLoadStateDictReportsExtras(t *testing.T) {
	model := newTinyModel(t)

	state := make(map[string]*tensor.RawTensor)
	for name, param := range model.ParameterMap() {
		state[name] = param.Tensor().Raw()
	}
	buf, err := tensor.NewRaw(tensor.Shape{1, 10}, tensor.Int64, tensor.CPU)
	if err != nil {
		t.Fatalf("failed to allocate buffer: %v", err)
	}
	state["bert.embeddings.position_ids"] = buf

	extra, err := model.LoadStateDict(state)
	if err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}
	if len(extra) != 1 || extra[0] != "bert.embeddings.position_ids" {
		t.Errorf("extra = %v, want [bert.embeddings.position_ids]", extra)
	}
}

func TestLoadStateDictShapeMismatch(t *testing.T) {
	model := newTinyModel(t)

	state := make(map[string]*tensor.RawTensor)
	for name, param := range model.ParameterMap() {
		state[name] = param.Tensor().Raw()
	}
	wrong, err := tensor.NewRaw(tensor.Shape{3, 8}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("failed to allocate tensor: %v", err)
	}
	state["classifier.weight"] = wrong

	if _, err := model.LoadStateDict(state); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestPredict(t *testing.T) {
	model := newTinyModel(t)

	first, err := model.Predict([]int{1, 4, 7, 2})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	second, err := model.Predict([]int{1, 4, 7, 2})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if first != second {
		t.Errorf("Predict is not deterministic: %v vs %v", first, second)
	}
}

func TestScoresRequireSingleLabel(t *testing.T) {
	cfg := tinyConfig()
	cfg.NumLabels = 3
	model, err := bert.New(cfg, cpu.New())
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}

	ids := idsTensor(t, model.Backend(), [][]int{{1, 2, 3}})
	if _, err := model.Scores(ids, nil, nil); err == nil {
		t.Error("expected error for multi-label head")
	}

	logits := model.Forward(ids, nil, nil)
	if !logits.Shape().Equal(tensor.Shape{1, 3}) {
		t.Errorf("logits shape = %v, want [1 3]", logits.Shape())
	}
}

func TestIDs(t *testing.T) {
	backend := cpu.New()
	ids := bert.IDs([]int{5, 0, 12}, backend)

	if !ids.Shape().Equal(tensor.Shape{1, 3}) {
		t.Fatalf("shape = %v, want [1 3]", ids.Shape())
	}
	data := ids.Data()
	for i, want := range []int32{5, 0, 12} {
		if data[i] != want {
			t.Errorf("ids[%d] = %d, want %d", i, data[i], want)
		}
	}
}
