package attribution

import (
	"encoding/json"
	"math"
)

// ClassThreshold splits the scalar score into the two predicted classes.
const ClassThreshold = 0.5

// Record bundles everything a report needs to show one analyzed sequence:
// the score, the label it is judged against, and one attribution per token.
type Record struct {
	// RecordID identifies the dataset record this run explained.
	RecordID string `json:"record_id"`

	// Score is the model output on the input sequence.
	Score float64 `json:"score"`

	// GroundTruth is the dataset label, NaN when the record had none.
	GroundTruth float64 `json:"ground_truth"`

	// PredictedClass is 1 when Score reaches ClassThreshold, else 0.
	PredictedClass int `json:"predicted_class"`

	// Tokens holds the string form of the sequence, special tokens included.
	Tokens []string `json:"tokens"`

	// Attributions holds one normalized score per token, parallel to Tokens.
	Attributions []float64 `json:"attributions"`

	// Delta is the convergence check carried over from the integral.
	Delta float64 `json:"delta"`
}

// NewRecord assembles a visualization record, deriving the predicted class
// from the score.
func NewRecord(id string, score, truth float64, tokens []string, attrs []float64, delta float64) *Record {
	class := 0
	if score >= ClassThreshold {
		class = 1
	}
	return &Record{
		RecordID:       id,
		Score:          score,
		GroundTruth:    truth,
		PredictedClass: class,
		Tokens:         tokens,
		Attributions:   attrs,
		Delta:          delta,
	}
}

// MarshalJSON emits a NaN ground truth as null, which plain float64
// marshaling rejects.
func (r *Record) MarshalJSON() ([]byte, error) {
	type alias Record
	aux := struct {
		*alias
		GroundTruth *float64 `json:"ground_truth"`
	}{alias: (*alias)(r)}
	if !math.IsNaN(r.GroundTruth) {
		aux.GroundTruth = &r.GroundTruth
	}
	return json.Marshal(aux)
}

// UnmarshalJSON restores a null ground truth to NaN.
func (r *Record) UnmarshalJSON(data []byte) error {
	type alias Record
	aux := struct {
		*alias
		GroundTruth *float64 `json:"ground_truth"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.GroundTruth == nil {
		r.GroundTruth = math.NaN()
	} else {
		r.GroundTruth = *aux.GroundTruth
	}
	return nil
}

// ResultSet collects records in insertion order and indexes them by id.
// Reports iterate it in the order records were analyzed.
type ResultSet struct {
	order   []string
	records map[string]*Record
}

// NewResultSet returns an empty set.
func NewResultSet() *ResultSet {
	return &ResultSet{records: make(map[string]*Record)}
}

// Add inserts rec. A record with an id already in the set replaces the old
// one in place without changing its position.
func (s *ResultSet) Add(rec *Record) {
	if _, ok := s.records[rec.RecordID]; !ok {
		s.order = append(s.order, rec.RecordID)
	}
	s.records[rec.RecordID] = rec
}

// Get looks a record up by id.
func (s *ResultSet) Get(id string) (*Record, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Len reports the number of records in the set.
func (s *ResultSet) Len() int {
	return len(s.order)
}

// Records returns the records in insertion order.
func (s *ResultSet) Records() []*Record {
	out := make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}
