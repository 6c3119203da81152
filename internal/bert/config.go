// Package bert implements a BERT-family encoder with a sequence
// classification head, assembled from the nn building blocks. A model built
// here matches the checkpoint layout of the Hugging Face
// BertForSequenceClassification family, so fine-tuned weights load directly.
package bert

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config mirrors the config.json shipped alongside a checkpoint. Field names
// follow the checkpoint convention.
type Config struct {
	VocabSize             int               `json:"vocab_size"`
	HiddenSize            int               `json:"hidden_size"`
	NumHiddenLayers       int               `json:"num_hidden_layers"`
	NumAttentionHeads     int               `json:"num_attention_heads"`
	IntermediateSize      int               `json:"intermediate_size"`
	MaxPositionEmbeddings int               `json:"max_position_embeddings"`
	TypeVocabSize         int               `json:"type_vocab_size"`
	LayerNormEps          float64           `json:"layer_norm_eps"`
	HiddenAct             string            `json:"hidden_act"`
	NumLabels             int               `json:"num_labels,omitempty"`
	ID2Label              map[string]string `json:"id2label,omitempty"`
	ModelType             string            `json:"model_type,omitempty"`
	ProblemType           string            `json:"problem_type,omitempty"`
}

// DefaultConfig returns the bert-base-uncased dimensions. NumLabels is left
// unset so Labels() can fall back to id2label for parsed configs; a bare
// config still reports one regression label.
func DefaultConfig() Config {
	return Config{
		VocabSize:             30522,
		HiddenSize:            768,
		NumHiddenLayers:       12,
		NumAttentionHeads:     12,
		IntermediateSize:      3072,
		MaxPositionEmbeddings: 512,
		TypeVocabSize:         2,
		LayerNormEps:          1e-12,
		HiddenAct:             "gelu",
	}
}

// LoadConfig parses a checkpoint's config.json.
func LoadConfig(path string) (Config, error) {
	//nolint:gosec // G304: config paths come from user configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the dimensions a model build depends on.
func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return fmt.Errorf("config: vocab_size must be positive, got %d", c.VocabSize)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("config: hidden_size must be positive, got %d", c.HiddenSize)
	}
	if c.NumHiddenLayers <= 0 {
		return fmt.Errorf("config: num_hidden_layers must be positive, got %d", c.NumHiddenLayers)
	}
	if c.NumAttentionHeads <= 0 {
		return fmt.Errorf("config: num_attention_heads must be positive, got %d", c.NumAttentionHeads)
	}
	if c.HiddenSize%c.NumAttentionHeads != 0 {
		return fmt.Errorf("config: hidden_size (%d) not divisible by num_attention_heads (%d)",
			c.HiddenSize, c.NumAttentionHeads)
	}
	if c.IntermediateSize <= 0 {
		return fmt.Errorf("config: intermediate_size must be positive, got %d", c.IntermediateSize)
	}
	if c.MaxPositionEmbeddings <= 0 {
		return fmt.Errorf("config: max_position_embeddings must be positive, got %d", c.MaxPositionEmbeddings)
	}
	if c.TypeVocabSize <= 0 {
		return fmt.Errorf("config: type_vocab_size must be positive, got %d", c.TypeVocabSize)
	}
	if c.LayerNormEps <= 0 {
		return fmt.Errorf("config: layer_norm_eps must be positive, got %g", c.LayerNormEps)
	}
	return nil
}

// Labels returns the classifier output width. An explicit num_labels wins;
// otherwise the id2label map decides; a bare config means one regression
// label.
func (c Config) Labels() int {
	if c.NumLabels > 0 {
		return c.NumLabels
	}
	if len(c.ID2Label) > 0 {
		return len(c.ID2Label)
	}
	return 1
}
