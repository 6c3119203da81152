package tokenizer

import (
	"fmt"

	sugarme "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HF wraps a sugarme tokenizer loaded from a tokenizer.json file. It covers
// the WordPiece vocabularies BERT checkpoints ship with, as well as BPE and
// Unigram ones.
type HF struct {
	tk  *sugarme.Tokenizer
	cls int
	sep int
	pad int
	unk int
	msk int
}

// NewFromFile loads a tokenizer.json. Special token ids are resolved from
// the vocabulary by their conventional surface forms; BERT-style names take
// precedence over RoBERTa-style ones.
func NewFromFile(path string) (*HF, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from %s: %w", path, err)
	}

	return &HF{
		tk:  tk,
		cls: resolveID(tk, "[CLS]", "<s>"),
		sep: resolveID(tk, "[SEP]", "</s>"),
		pad: resolveID(tk, "[PAD]", "<pad>"),
		unk: resolveID(tk, "[UNK]", "<unk>"),
		msk: resolveID(tk, "[MASK]", "<mask>"),
	}, nil
}

func resolveID(tk *sugarme.Tokenizer, candidates ...string) int {
	for _, c := range candidates {
		if id, ok := tk.TokenToId(c); ok {
			return id
		}
	}
	return -1
}

// Encode converts text to token ids, including the special tokens the
// tokenizer's post-processor adds ([CLS] ... [SEP] for BERT).
func (h *HF) Encode(text string) ([]int, error) {
	en, err := h.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}
	ids := make([]int, len(en.Ids))
	copy(ids, en.Ids)
	return ids, nil
}

// Decode converts token ids back to text, skipping special tokens.
func (h *HF) Decode(ids []int) (string, error) {
	return h.tk.Decode(ids, true), nil
}

// Tokens returns each id's surface form. Ids outside the vocabulary render
// as <id>.
func (h *HF) Tokens(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if token, ok := h.tk.IdToToken(id); ok {
			out[i] = token
		} else {
			out[i] = fmt.Sprintf("<%d>", id)
		}
	}
	return out
}

// VocabSize returns the vocabulary size including added tokens.
func (h *HF) VocabSize() int {
	return h.tk.GetVocabSize(true)
}

// ClsID returns the classification-start token id, or -1.
func (h *HF) ClsID() int { return h.cls }

// SepID returns the separator token id, or -1.
func (h *HF) SepID() int { return h.sep }

// PadID returns the padding token id, or -1.
func (h *HF) PadID() int { return h.pad }

// UnkID returns the unknown token id, or -1.
func (h *HF) UnkID() int { return h.unk }

// IsSpecial reports whether id is one of the resolved special tokens.
func (h *HF) IsSpecial(id int) bool {
	if id < 0 {
		return false
	}
	return id == h.cls || id == h.sep || id == h.pad || id == h.unk || id == h.msk
}
