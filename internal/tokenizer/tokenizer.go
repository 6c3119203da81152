package tokenizer

import "fmt"

// Tokenizer is the interface the scoring pipeline consumes.
//
// Encode includes special tokens (CLS/SEP for BERT-family vocabularies)
// when the underlying tokenizer defines them. Id accessors return -1 when
// the vocabulary has no such token.
type Tokenizer interface {
	// Encode converts text to token ids.
	Encode(text string) ([]int, error)

	// Decode converts token ids back to text, skipping special tokens.
	Decode(ids []int) (string, error)

	// Tokens returns the surface form of each id, for report rendering.
	Tokens(ids []int) []string

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// ClsID returns the classification-start token id.
	ClsID() int

	// SepID returns the separator token id.
	SepID() int

	// PadID returns the padding token id.
	PadID() int

	// UnkID returns the unknown token id.
	UnkID() int

	// IsSpecial reports whether an id is a special token.
	IsSpecial(id int) bool
}

// Truncate caps ids at maxLen. The leading tokens survive as a prefix, and
// when the original sequence ended in the separator the truncated one does
// too, so the model still sees a well-formed [CLS] ... [SEP] frame.
// maxLen <= 0 means no limit.
func Truncate(tk Tokenizer, ids []int, maxLen int) []int {
	if maxLen <= 0 || len(ids) <= maxLen {
		return ids
	}
	out := make([]int, maxLen)
	copy(out, ids[:maxLen])
	if sep := tk.SepID(); sep >= 0 && ids[len(ids)-1] == sep {
		out[maxLen-1] = sep
	}
	return out
}

// Reference builds the attribution baseline for a token sequence: the
// CLS/SEP frame stays in place and every content token becomes padding.
// Unknown-word tokens count as content, they carry signal. Integrating from
// this baseline to the input measures what the content tokens add.
func Reference(tk Tokenizer, ids []int) ([]int, error) {
	pad := tk.PadID()
	if pad < 0 {
		return nil, fmt.Errorf("tokenizer has no padding token, cannot build a reference sequence")
	}
	cls, sep := tk.ClsID(), tk.SepID()
	out := make([]int, len(ids))
	for i, id := range ids {
		if id == cls || id == sep || id == pad {
			out[i] = id
		} else {
			out[i] = pad
		}
	}
	return out, nil
}
