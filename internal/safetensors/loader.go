package safetensors

import (
	"fmt"
	"path/filepath"

	"github.com/verdict-ml/verdict/internal/bert"
	"github.com/verdict-ml/verdict/internal/tensor"
)

const (
	configFileName  = "config.json"
	weightsFileName = "model.safetensors"
)

// LoadModel builds a model from a checkpoint directory containing
// config.json and model.safetensors. Half-precision weights are widened to
// float32 on the way in.
//
// The second return value lists checkpoint tensors the model did not
// consume, such as the position_ids buffer, for the caller to log.
func LoadModel[B tensor.Backend](dir string, backend B) (*bert.Model[B], []string, error) {
	cfg, err := bert.LoadConfig(filepath.Join(dir, configFileName))
	if err != nil {
		return nil, nil, err
	}

	reader, err := NewReader(filepath.Join(dir, weightsFileName))
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	names := reader.Tensors()
	state := make(map[string]*tensor.RawTensor, len(names))
	for _, name := range names {
		raw, err := reader.Load(name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load tensor %q: %w", name, err)
		}
		state[name] = raw
	}

	model, err := bert.New(cfg, backend)
	if err != nil {
		return nil, nil, err
	}
	extra, err := model.LoadStateDict(state)
	if err != nil {
		return nil, nil, err
	}
	return model, extra, nil
}
