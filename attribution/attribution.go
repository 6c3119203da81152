// Copyright 2025 Verdict ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package attribution provides token-level explanations of model scores
// via layer integrated gradients.
//
// The integral runs at the embedding layer: scores are differentiated with
// respect to the embedding output while interpolating between a reference
// sequence (padding in place of content) and the actual input. Token
// attributions therefore answer "how much did this token move the score
// away from the empty-text baseline".
//
// Example usage:
//
//	import (
//	    "github.com/verdict-ml/verdict/attribution"
//	    "github.com/verdict-ml/verdict/autodiff"
//	    "github.com/verdict-ml/verdict/backend/cpu"
//	    "github.com/verdict-ml/verdict/safetensors"
//	)
//
//	backend := autodiff.New(cpu.New())
//	model, _, err := safetensors.LoadModel("./model", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := attribution.LayerIntegratedGradients(
//	    model, backend, inputIDs, refIDs, nil, attribution.Config{},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Normalized, result.Delta)
package attribution

import (
	"github.com/verdict-ml/verdict/internal/attribution"
	"github.com/verdict-ml/verdict/internal/autodiff"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// Method selects the quadrature rule for the path integral.
type Method = attribution.Method

// Quadrature rules.
const (
	// MethodTrapezoid integrates on a uniform grid with trapezoid weights.
	// It is the default.
	MethodTrapezoid Method = attribution.MethodTrapezoid

	// MethodGaussLegendre integrates on Gauss-Legendre nodes, which buys
	// more accuracy per step for smooth models.
	MethodGaussLegendre Method = attribution.MethodGaussLegendre
)

// DefaultSteps is the interpolation step count when Config leaves it unset.
const DefaultSteps = attribution.DefaultSteps

// ClassThreshold splits the scalar score into the two predicted classes.
const ClassThreshold = attribution.ClassThreshold

// Config controls the integration.
type Config = attribution.Config

// Result is one attribution run over a single sequence.
type Result = attribution.Result

// ScoreModel is the slice of the model attribution needs: a way to compute
// the embedding-layer output, and a way to run the rest of the network from
// it. The two must compose to the full forward pass.
type ScoreModel[B tensor.Backend] = attribution.ScoreModel[B]

// LayerIntegratedGradients attributes the model's score over the tokens of
// a single sequence.
//
// input and ref are (1, seq) id tensors of the same length; ref is normally
// the padding baseline from tokenizer.Reference. mask may be nil when
// nothing is padded. The backend must be an autodiff decorator; the
// function owns the tape for the duration of the call and leaves it stopped
// and clear.
func LayerIntegratedGradients[B autodiff.BackwardCapable](
	model ScoreModel[B],
	backend B,
	input, ref *tensor.Tensor[int32, B],
	mask *tensor.Tensor[float32, B],
	cfg Config,
) (*Result, error) {
	return attribution.LayerIntegratedGradients(model, backend, input, ref, mask, cfg)
}

// SumHidden collapses a (seq, hidden) attribution matrix to one value per
// token by summing over the hidden dimension.
func SumHidden(attr []float64, seq, hidden int) []float64 {
	return attribution.SumHidden(attr, seq, hidden)
}

// L2Normalize scales v to unit Euclidean norm, preserving signs. A zero
// vector comes back as zeros.
func L2Normalize(v []float64) []float64 {
	return attribution.L2Normalize(v)
}

// Record bundles everything a report needs to show one analyzed sequence:
// the score, the label it is judged against, and one attribution per token.
type Record = attribution.Record

// NewRecord assembles a visualization record, deriving the predicted class
// from the score.
func NewRecord(id string, score, truth float64, tokens []string, attrs []float64, delta float64) *Record {
	return attribution.NewRecord(id, score, truth, tokens, attrs, delta)
}

// ResultSet collects records in insertion order and indexes them by id.
type ResultSet = attribution.ResultSet

// NewResultSet returns an empty set.
func NewResultSet() *ResultSet {
	return attribution.NewResultSet()
}
