package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// encodingCL100kBase is the encoding used by GPT-4 and GPT-3.5-turbo.
	encodingCL100kBase = "cl100k_base"
	// encodingP50kBase is the encoding used by GPT-3.
	encodingP50kBase = "p50k_base"
	// encodingR50kBase is the encoding used by older GPT-3 models.
	encodingR50kBase = "r50k_base"
)

// TikToken wraps pkoukk/tiktoken-go for checkpoints that use OpenAI-style
// encodings instead of a tokenizer.json. These vocabularies have no CLS or
// PAD token, so scoring works but reference baselines do not.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken creates a tokenizer for an encoding name such as
// "cl100k_base" or "p50k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName}, nil
}

// NewTikTokenForModel creates a tokenizer for a model name such as "gpt-4".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	return &TikToken{encoding: encoding, name: modelName}, nil
}

// Encode converts text to token ids.
func (t *TikToken) Encode(text string) ([]int, error) {
	return t.encoding.Encode(text, nil, nil), nil
}

// Decode converts token ids back to text.
func (t *TikToken) Decode(ids []int) (string, error) {
	return t.encoding.Decode(ids), nil
}

// Tokens returns each id's decoded byte sequence.
func (t *TikToken) Tokens(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.encoding.Decode([]int{id})
	}
	return out
}

// VocabSize returns the vocabulary size.
//
// tiktoken-go does not expose this directly, so the known sizes are
// hardcoded per encoding.
func (t *TikToken) VocabSize() int {
	switch t.name {
	case encodingCL100kBase:
		return 100256
	case encodingP50kBase, encodingR50kBase:
		return 50257
	default:
		return 100000
	}
}

// ClsID returns -1; OpenAI encodings have no classification token.
func (t *TikToken) ClsID() int { return -1 }

// SepID returns the <|endoftext|> id, the closest thing these encodings
// have to a sequence terminator.
func (t *TikToken) SepID() int {
	switch t.name {
	case encodingCL100kBase:
		return 100257
	case encodingP50kBase, encodingR50kBase:
		return 50256
	default:
		return -1
	}
}

// PadID returns -1; OpenAI encodings have no padding token.
func (t *TikToken) PadID() int { return -1 }

// UnkID returns -1; byte-level BPE never produces unknowns.
func (t *TikToken) UnkID() int { return -1 }

// IsSpecial reports whether id is <|endoftext|> or one of the cl100k chat
// markers.
func (t *TikToken) IsSpecial(id int) bool {
	if sep := t.SepID(); sep >= 0 && id == sep {
		return true
	}
	if t.name == encodingCL100kBase && id >= 100256 && id <= 100276 {
		return true
	}
	return false
}

// Name returns the encoding or model name this tokenizer was built from.
func (t *TikToken) Name() string {
	return t.name
}
