package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Kind identifies the tokenizer algorithm declared in tokenizer.json.
type Kind string

const (
	// KindBPE is Byte-Pair Encoding (GPT/RoBERTa-style).
	KindBPE Kind = "BPE"

	// KindWordPiece is the BERT-family tokenizer.
	KindWordPiece Kind = "WordPiece"

	// KindUnigram is the SentencePiece-style tokenizer.
	KindUnigram Kind = "Unigram"

	// KindUnknown marks an unrecognized declaration.
	KindUnknown Kind = "Unknown"
)

// Metadata summarizes a tokenizer.json without constructing the tokenizer.
type Metadata struct {
	Kind      Kind
	VocabSize int
	HasCLS    bool
	HasSEP    bool
	HasPAD    bool
	HasUNK    bool
	Declared  string
}

// Detect reads tokenizer.json and reports the algorithm and which special
// tokens the vocabulary declares.
//
//nolint:gocognit,gocyclo,cyclop // JSON probing requires nested type assertions.
func Detect(path string) (*Metadata, error) {
	//nolint:gosec // G304: tokenizer paths come from user configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	meta := &Metadata{Kind: KindUnknown}

	if model, ok := raw["model"].(map[string]interface{}); ok {
		if declared, ok := model["type"].(string); ok {
			meta.Declared = declared
			switch declared {
			case "BPE":
				meta.Kind = KindBPE
			case "WordPiece":
				meta.Kind = KindWordPiece
			case "Unigram":
				meta.Kind = KindUnigram
			}
		}
		if vocab, ok := model["vocab"].(map[string]interface{}); ok {
			meta.VocabSize = len(vocab)
		}
	}

	if addedTokens, ok := raw["added_tokens"].([]interface{}); ok {
		for _, tokenRaw := range addedTokens {
			token, ok := tokenRaw.(map[string]interface{})
			if !ok {
				continue
			}
			content, ok := token["content"].(string)
			if !ok {
				continue
			}
			switch content {
			case "[CLS]", "<s>":
				meta.HasCLS = true
			case "[SEP]", "</s>":
				meta.HasSEP = true
			case "[PAD]", "<pad>":
				meta.HasPAD = true
			case "[UNK]", "<unk>":
				meta.HasUNK = true
			}
		}
	}

	return meta, nil
}

// Load builds a tokenizer from a checkpoint directory containing
// tokenizer.json.
func Load(dir string) (Tokenizer, error) {
	path := filepath.Join(dir, "tokenizer.json")

	meta, err := Detect(path)
	if err != nil {
		return nil, err
	}

	switch meta.Kind {
	case KindWordPiece, KindBPE, KindUnigram:
		return NewFromFile(path)
	default:
		return nil, fmt.Errorf("unsupported tokenizer type %q in %s", meta.Declared, path)
	}
}

// AutoLoad resolves pathOrName with a series of strategies:
//
//  1. a directory containing tokenizer.json
//  2. a tokenizer.json file path
//  3. a tiktoken model name ("gpt-4")
//  4. a tiktoken encoding name ("cl100k_base")
func AutoLoad(pathOrName string) (Tokenizer, error) {
	if info, err := os.Stat(pathOrName); err == nil {
		if info.IsDir() {
			if _, err := os.Stat(filepath.Join(pathOrName, "tokenizer.json")); err == nil {
				return Load(pathOrName)
			}
		} else {
			return NewFromFile(pathOrName)
		}
	}

	if tk, err := NewTikTokenForModel(pathOrName); err == nil {
		return tk, nil
	}
	if tk, err := NewTikToken(pathOrName); err == nil {
		return tk, nil
	}

	return nil, fmt.Errorf("failed to resolve tokenizer from %q", pathOrName)
}
