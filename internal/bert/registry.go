package bert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/verdict-ml/verdict/internal/nn"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// ParameterMap returns every parameter keyed by its checkpoint tensor name.
// The names follow the BertForSequenceClassification layout, e.g.
// "bert.encoder.layer.3.attention.self.query.weight" or "classifier.bias",
// so a safetensors file indexes straight into the map.
func (m *Model[B]) ParameterMap() map[string]*nn.Parameter[B] {
	params := map[string]*nn.Parameter[B]{
		"bert.embeddings.word_embeddings.weight":       m.Embeddings.Word.Weight,
		"bert.embeddings.position_embeddings.weight":   m.Embeddings.Position.Weight,
		"bert.embeddings.token_type_embeddings.weight": m.Embeddings.TokenType.Weight,
		"bert.embeddings.LayerNorm.weight":             m.Embeddings.Norm.Gamma,
		"bert.embeddings.LayerNorm.bias":               m.Embeddings.Norm.Beta,
		"bert.pooler.dense.weight":                     m.Pooler.Dense.Weight(),
		"bert.pooler.dense.bias":                       m.Pooler.Dense.Bias(),
		"classifier.weight":                            m.Classifier.Weight(),
		"classifier.bias":                              m.Classifier.Bias(),
	}

	for i, layer := range m.Layers {
		prefix := fmt.Sprintf("bert.encoder.layer.%d.", i)
		addLinear(params, prefix+"attention.self.query", layer.Attention.WQ)
		addLinear(params, prefix+"attention.self.key", layer.Attention.WK)
		addLinear(params, prefix+"attention.self.value", layer.Attention.WV)
		addLinear(params, prefix+"attention.output.dense", layer.Attention.WO)
		addNorm(params, prefix+"attention.output.LayerNorm", layer.AttnNorm)
		addLinear(params, prefix+"intermediate.dense", layer.FFN.Linear1)
		addLinear(params, prefix+"output.dense", layer.FFN.Linear2)
		addNorm(params, prefix+"output.LayerNorm", layer.FFNNorm)
	}
	return params
}

func addLinear[B tensor.Backend](params map[string]*nn.Parameter[B], prefix string, l *nn.Linear[B]) {
	params[prefix+".weight"] = l.Weight()
	params[prefix+".bias"] = l.Bias()
}

func addNorm[B tensor.Backend](params map[string]*nn.Parameter[B], prefix string, n *nn.LayerNorm[B]) {
	params[prefix+".weight"] = n.Gamma
	params[prefix+".bias"] = n.Beta
}

// LoadStateDict copies checkpoint tensors into the model. Every model
// parameter must be present in state with a matching shape; names are listed
// in the error otherwise. Checkpoint Linear weights are stored
// (out_features, in_features), which is also the layout here, so tensors
// copy through without transposition.
//
// Returned extras are checkpoint names the model has no parameter for,
// sorted, for the caller to log. Checkpoints routinely carry a
// non-parameter "bert.embeddings.position_ids" buffer, which lands there.
func (m *Model[B]) LoadStateDict(state map[string]*tensor.RawTensor) (extra []string, err error) {
	params := m.ParameterMap()

	var missing []string
	for name, param := range params {
		raw, ok := state[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if err := copyInto(param, name, raw); err != nil {
			return nil, err
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("bert: checkpoint is missing %d tensor(s): %s",
			len(missing), strings.Join(missing, ", "))
	}

	for name := range state {
		if _, ok := params[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra, nil
}

func copyInto[B tensor.Backend](param *nn.Parameter[B], name string, raw *tensor.RawTensor) error {
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("bert: tensor %q has dtype %v, want float32", name, raw.DType())
	}
	want := param.Tensor().Shape()
	if !want.Equal(raw.Shape()) {
		return fmt.Errorf("bert: tensor %q has shape %v, want %v", name, raw.Shape(), want)
	}
	copy(param.Tensor().Data(), raw.AsFloat32())
	return nil
}
