// Copyright 2025 Verdict ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer provides text tokenization for the Verdict pipeline.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API for tokenization tasks.
//
// Supported tokenizers:
//   - HuggingFace tokenizer.json: WordPiece (BERT), BPE (RoBERTa), Unigram
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base)
//
// Example usage:
//
//	import "github.com/verdict-ml/verdict/tokenizer"
//
//	// Load from a checkpoint directory containing tokenizer.json
//	tok, err := tokenizer.Load("./model")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text (special tokens included)
//	ids, err := tok.Encode("the defendant was seen nearby")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Surface forms for rendering
//	tokens := tok.Tokens(ids)
//
//	// Padding-baseline counterpart of the same sequence
//	ref, err := tokenizer.Reference(tok, ids)
package tokenizer

import (
	"github.com/verdict-ml/verdict/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// Kind identifies the tokenizer algorithm declared in tokenizer.json.
type Kind = tokenizer.Kind

// Tokenizer algorithm kinds.
const (
	KindBPE       Kind = tokenizer.KindBPE
	KindWordPiece Kind = tokenizer.KindWordPiece
	KindUnigram   Kind = tokenizer.KindUnigram
	KindUnknown   Kind = tokenizer.KindUnknown
)

// Metadata summarizes a tokenizer.json without constructing the tokenizer.
type Metadata = tokenizer.Metadata

// Detect reads tokenizer.json and reports the algorithm and which special
// tokens the vocabulary declares.
func Detect(path string) (*Metadata, error) {
	return tokenizer.Detect(path)
}

// Load builds a tokenizer from a checkpoint directory containing
// tokenizer.json.
func Load(dir string) (Tokenizer, error) {
	return tokenizer.Load(dir)
}

// NewFromFile loads a HuggingFace tokenizer.json file.
func NewFromFile(path string) (Tokenizer, error) {
	return tokenizer.NewFromFile(path)
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (Tokenizer, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (Tokenizer, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}

// AutoLoad attempts to automatically load the correct tokenizer.
//
// It tries multiple strategies:
//  1. Load from a checkpoint directory (tokenizer.json)
//  2. Load a tokenizer.json file path
//  3. Load tiktoken by model name
//  4. Load tiktoken by encoding name
func AutoLoad(pathOrName string) (Tokenizer, error) {
	return tokenizer.AutoLoad(pathOrName)
}

// Truncate caps ids at maxLen, preserving a trailing separator so the model
// still sees a well-formed [CLS] ... [SEP] frame. maxLen <= 0 means no limit.
func Truncate(tk Tokenizer, ids []int, maxLen int) []int {
	return tokenizer.Truncate(tk, ids, maxLen)
}

// Reference builds the attribution baseline for a token sequence: the
// CLS/SEP frame stays in place and every content token becomes padding.
func Reference(tk Tokenizer, ids []int) ([]int, error) {
	return tokenizer.Reference(tk, ids)
}
