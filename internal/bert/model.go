package bert

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/nn"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// maskFill is the additive attention penalty for padding positions. It is
// large enough that masked positions get exactly zero softmax weight in
// float32.
const maskFill float32 = -1e9

// Model is a BERT encoder with a pooler and a sequence classification head.
// With num_labels == 1 the head is a regression scorer, which is how guilt
// ratings are modeled.
type Model[B tensor.Backend] struct {
	Config     Config
	Embeddings *Embeddings[B]
	Layers     []*nn.EncoderLayer[B]
	Pooler     *Pooler[B]
	Classifier *nn.Linear[B]

	backend B
}

// Pooler compresses the encoder output to a fixed vector by passing the
// first position (the CLS token) through a dense layer and tanh.
type Pooler[B tensor.Backend] struct {
	Dense *nn.Linear[B]
	act   *nn.Tanh[B]
}

// NewPooler creates a pooler for the given hidden size.
func NewPooler[B tensor.Backend](hiddenSize int, backend B) *Pooler[B] {
	return &Pooler[B]{
		Dense: nn.NewLinear[B](hiddenSize, hiddenSize, backend),
		act:   nn.NewTanh[B](),
	}
}

// Forward takes encoder output of shape (batch, seq, hidden) and returns the
// pooled representation of shape (batch, hidden).
func (p *Pooler[B]) Forward(hidden *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := hidden.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("pooler: expected (batch, seq, hidden), got %v", shape))
	}
	cls := hidden.Narrow(1, 0, 1).Reshape(shape[0], shape[2])
	return p.act.Forward(p.Dense.Forward(cls))
}

// Parameters returns the pooler dense weight and bias.
func (p *Pooler[B]) Parameters() []*nn.Parameter[B] {
	return p.Dense.Parameters()
}

// New builds a randomly initialized model for the given config. Weights are
// normally replaced by a checkpoint via LoadStateDict.
func New[B tensor.Backend](cfg Config, backend B) (*Model[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	layers := make([]*nn.EncoderLayer[B], cfg.NumHiddenLayers)
	for i := range layers {
		act, err := nn.ActivationFor[B](cfg.HiddenAct)
		if err != nil {
			return nil, fmt.Errorf("bert: %w", err)
		}
		layers[i] = nn.NewEncoderLayer[B](
			cfg.HiddenSize, cfg.NumAttentionHeads, cfg.IntermediateSize,
			float32(cfg.LayerNormEps), act, backend,
		)
	}

	return &Model[B]{
		Config:     cfg,
		Embeddings: NewEmbeddings(cfg, backend),
		Layers:     layers,
		Pooler:     NewPooler[B](cfg.HiddenSize, backend),
		Classifier: nn.NewLinear[B](cfg.HiddenSize, cfg.Labels(), backend),
		backend:    backend,
	}, nil
}

// Backend returns the backend the model computes on.
func (m *Model[B]) Backend() B {
	return m.backend
}

// Forward runs the full model. ids and typeIDs are (batch, seq) token and
// segment ids; typeIDs may be nil for single-segment input. mask is a
// (batch, seq) tensor with nonzero entries marking real tokens, or nil when
// nothing is padded. Returns logits of shape (batch, num_labels).
func (m *Model[B]) Forward(ids, typeIDs *tensor.Tensor[int32, B], mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return m.ForwardFromEmbeddings(m.EmbedOnly(ids, typeIDs), mask)
}

// EmbedOnly computes the embedding layer output of shape
// (batch, seq, hidden) without running the encoder. Attribution interpolates
// between two of these outputs.
func (m *Model[B]) EmbedOnly(ids, typeIDs *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return m.Embeddings.Forward(ids, typeIDs)
}

// ForwardFromEmbeddings runs the encoder, pooler and classifier on
// precomputed embedding output. Together with EmbedOnly this splits Forward
// at the attribution layer: Forward(ids, t, m) equals
// ForwardFromEmbeddings(EmbedOnly(ids, t), m).
func (m *Model[B]) ForwardFromEmbeddings(embeds *tensor.Tensor[float32, B], mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := embeds.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("bert: embeddings must be (batch, seq, hidden), got %v", shape))
	}

	var extended *tensor.Tensor[float32, B]
	if mask != nil {
		extended = extendMask(mask, m.backend)
	}

	hidden := embeds
	for _, layer := range m.Layers {
		hidden = layer.Forward(hidden, extended)
	}
	return m.Classifier.Forward(m.Pooler.Forward(hidden))
}

// Scores runs the model and converts the regression logits to float64, one
// score per batch row. It requires a single-label head.
func (m *Model[B]) Scores(ids, typeIDs *tensor.Tensor[int32, B], mask *tensor.Tensor[float32, B]) ([]float64, error) {
	if n := m.Classifier.OutFeatures(); n != 1 {
		return nil, fmt.Errorf("bert: scoring requires a single-label head, classifier has %d outputs", n)
	}
	logits := m.Forward(ids, typeIDs, mask)
	data := logits.Data()
	scores := make([]float64, len(data))
	for i, v := range data {
		scores[i] = float64(v)
	}
	return scores, nil
}

// Predict scores a single unpadded token sequence. Run it with tape
// recording off; Predict does not manage the tape itself.
func (m *Model[B]) Predict(ids []int) (float64, error) {
	scores, err := m.Scores(IDs(ids, m.backend), nil, nil)
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// NumParameters returns the total scalar parameter count.
func (m *Model[B]) NumParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Tensor().NumElements()
	}
	return total
}

// Parameters returns every parameter in registry order.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	params := m.Embeddings.Parameters()
	for _, layer := range m.Layers {
		params = append(params, layer.Parameters()...)
	}
	params = append(params, m.Pooler.Parameters()...)
	params = append(params, m.Classifier.Parameters()...)
	return params
}

// IDs builds a (1, len) int32 tensor from a token id slice.
func IDs[B tensor.Backend](ids []int, backend B) *tensor.Tensor[int32, B] {
	if len(ids) == 0 {
		panic("bert: empty token sequence")
	}
	raw, err := tensor.NewRaw(tensor.Shape{1, len(ids)}, tensor.Int32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("bert: alloc ids: %v", err))
	}
	data := raw.AsInt32()
	for i, id := range ids {
		data[i] = int32(id)
	}
	return tensor.New[int32](raw, backend)
}

// extendMask turns a (batch, seq) keep mask into the additive
// (batch, 1, 1, seq) form attention consumes: 0 where the mask is nonzero,
// maskFill where it is zero. Built directly on the raw buffer so mask
// construction never lands on the tape.
func extendMask[B tensor.Backend](mask *tensor.Tensor[float32, B], backend B) *tensor.Tensor[float32, B] {
	shape := mask.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("bert: attention mask must be (batch, seq), got %v", shape))
	}
	batch, seq := shape[0], shape[1]

	raw, err := tensor.NewRaw(tensor.Shape{batch, 1, 1, seq}, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("bert: alloc attention mask: %v", err))
	}
	src := mask.Data()
	dst := raw.AsFloat32()
	for i, v := range src {
		if v == 0 {
			dst[i] = maskFill
		}
	}
	return tensor.New[float32](raw, backend)
}
