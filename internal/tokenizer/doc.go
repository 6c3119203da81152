// Package tokenizer turns text into the token id sequences the model
// scores, and back.
//
// Checkpoint directories carry a tokenizer.json describing a WordPiece, BPE
// or Unigram tokenizer; those load through the sugarme implementation.
// OpenAI-style encodings (cl100k_base and friends) load through tiktoken as
// a fallback for checkpoints without a tokenizer.json.
//
// The package also provides the two id-sequence transforms analysis needs:
// Truncate caps a sequence at the model's position limit without losing the
// trailing separator, and Reference builds the all-padding baseline that
// attribution integrates against.
package tokenizer
