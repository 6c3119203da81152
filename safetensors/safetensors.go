// Copyright 2025 Verdict ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package safetensors provides checkpoint loading for Verdict.
//
// This package wraps the internal safetensors implementation and exports a
// clean public API for reading and writing the safetensors format: an 8-byte
// little-endian header length, a JSON header mapping tensor names to
// {dtype, shape, data_offsets}, and a raw data buffer.
//
// Example usage:
//
//	import (
//	    "github.com/verdict-ml/verdict/safetensors"
//	    "github.com/verdict-ml/verdict/backend/cpu"
//	)
//
//	// Inspect a checkpoint file
//	reader, err := safetensors.NewReader("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//
//	for _, name := range reader.Tensors() {
//	    fmt.Println(name)
//	}
//
//	// Load a full classifier from a checkpoint directory
//	backend := cpu.New()
//	model, extra, err := safetensors.LoadModel("./model", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = extra // checkpoint tensors the model did not consume
package safetensors

import (
	"github.com/verdict-ml/verdict/internal/bert"
	"github.com/verdict-ml/verdict/internal/safetensors"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// DType is a safetensors data type tag as it appears in the JSON header.
type DType = safetensors.DType

// Data types the reader understands. Half-precision entries (F16, BF16)
// are converted to float32 on load.
const (
	F32  DType = safetensors.F32
	F64  DType = safetensors.F64
	F16  DType = safetensors.F16
	BF16 DType = safetensors.BF16
	I32  DType = safetensors.I32
	I64  DType = safetensors.I64
)

// TensorInfo describes one tensor entry in the header.
type TensorInfo = safetensors.TensorInfo

// Reader reads tensors out of a safetensors file.
//
// Note: This is a type alias because Load returns internal tensor types
// that cannot be abstracted without a wrapper layer.
type Reader = safetensors.Reader

// NewReader opens a safetensors file and parses its header. Every tensor's
// offsets are validated against the file size up front, so a truncated file
// fails here rather than mid-load.
//
// Example:
//
//	reader, err := safetensors.NewReader("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//
//	info, err := reader.Info("bert.pooler.dense.weight")
//	raw, err := reader.Load("bert.pooler.dense.weight")
func NewReader(path string) (*Reader, error) {
	return safetensors.NewReader(path)
}

// Write writes tensors to a safetensors file with deterministic tensor
// ordering. metadata may be nil.
func Write(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	return safetensors.Write(path, tensors, metadata)
}

// Model is a loaded BERT classifier ready for scoring.
//
// Note: This is a type alias because model internals reference internal
// tensor types that cannot be abstracted without a wrapper layer.
type Model[B tensor.Backend] = bert.Model[B]

// Config holds the BERT architecture hyperparameters from config.json.
type Config = bert.Config

// LoadModel builds a model from a checkpoint directory containing
// config.json and model.safetensors. Half-precision weights are widened to
// float32 on the way in.
//
// The second return value lists checkpoint tensors the model did not
// consume, such as the position_ids buffer, for the caller to log.
//
// Example:
//
//	backend := cpu.New()
//	model, extra, err := safetensors.LoadModel("./model", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	score, err := model.Predict(ids)
func LoadModel[B tensor.Backend](dir string, backend B) (*Model[B], []string, error) {
	return safetensors.LoadModel(dir, backend)
}
