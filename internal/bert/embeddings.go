package bert

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/nn"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// Embeddings sums word, position and token-type lookups and layer-normalizes
// the result. Its output is the layer that attribution targets: gradients
// taken here decompose a score over input token positions.
type Embeddings[B tensor.Backend] struct {
	Word      *nn.Embedding[B]
	Position  *nn.Embedding[B]
	TokenType *nn.Embedding[B]
	Norm      *nn.LayerNorm[B]

	backend B
}

// NewEmbeddings creates randomly initialized embedding tables for the given
// config.
func NewEmbeddings[B tensor.Backend](cfg Config, backend B) *Embeddings[B] {
	return &Embeddings[B]{
		Word:      nn.NewEmbedding(cfg.VocabSize, cfg.HiddenSize, backend),
		Position:  nn.NewEmbedding(cfg.MaxPositionEmbeddings, cfg.HiddenSize, backend),
		TokenType: nn.NewEmbedding(cfg.TypeVocabSize, cfg.HiddenSize, backend),
		Norm:      nn.NewLayerNorm(cfg.HiddenSize, float32(cfg.LayerNormEps), backend),
		backend:   backend,
	}
}

// Forward maps token ids of shape (batch, seq) to embeddings of shape
// (batch, seq, hidden). A nil typeIDs is treated as all zeros, the
// single-segment case.
func (e *Embeddings[B]) Forward(ids, typeIDs *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := ids.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embeddings: ids must be 2D (batch, seq), got %v", shape))
	}
	batch, seq := shape[0], shape[1]

	if typeIDs == nil {
		typeIDs = zeroIDs(batch, seq, e.backend)
	}
	positions := positionIDs(batch, seq, e.backend)

	sum := e.Word.Forward(ids).
		Add(e.Position.Forward(positions)).
		Add(e.TokenType.Forward(typeIDs))
	return e.Norm.Forward(sum)
}

// Parameters returns the embedding tables and norm parameters.
func (e *Embeddings[B]) Parameters() []*nn.Parameter[B] {
	return []*nn.Parameter[B]{
		e.Word.Weight, e.Position.Weight, e.TokenType.Weight,
		e.Norm.Gamma, e.Norm.Beta,
	}
}

// positionIDs builds the (batch, seq) index tensor with each row 0..seq-1.
func positionIDs[B tensor.Backend](batch, seq int, backend B) *tensor.Tensor[int32, B] {
	raw, err := tensor.NewRaw(tensor.Shape{batch, seq}, tensor.Int32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("embeddings: alloc position ids: %v", err))
	}
	data := raw.AsInt32()
	for b := 0; b < batch; b++ {
		for s := 0; s < seq; s++ {
			data[b*seq+s] = int32(s)
		}
	}
	return tensor.New[int32](raw, backend)
}

// zeroIDs builds a (batch, seq) tensor of zero token-type ids.
func zeroIDs[B tensor.Backend](batch, seq int, backend B) *tensor.Tensor[int32, B] {
	raw, err := tensor.NewRaw(tensor.Shape{batch, seq}, tensor.Int32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("embeddings: alloc type ids: %v", err))
	}
	return tensor.New[int32](raw, backend)
}
