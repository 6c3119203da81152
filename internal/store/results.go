package store

import (
	"database/sql"
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"github.com/verdict-ml/verdict/internal/attribution"
)

const (
	insertResultSQL = `INSERT INTO results (
			run_id,
			record_id,
			ordinal,
			score,
			ground_truth,
			delta,
			tokens,
			attributions
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectResultsSQL = `SELECT
			record_id,
			score,
			ground_truth,
			delta,
			tokens,
			attributions
		FROM results
		WHERE run_id = ?
		ORDER BY ordinal
	`
)

func insertResult(tx *sql.Tx, runID string, ordinal int, rec *attribution.Record) error {
	tokens, err := json.Marshal(rec.Tokens)
	if err != nil {
		return errors.Wrapf(err, "failed to encode tokens for record: %s", rec.RecordID)
	}
	attrs, err := json.Marshal(rec.Attributions)
	if err != nil {
		return errors.Wrapf(err, "failed to encode attributions for record: %s", rec.RecordID)
	}

	// NaN ground truth (no annotations) is stored as NULL.
	truth := sql.NullFloat64{
		Float64: rec.GroundTruth,
		Valid:   !math.IsNaN(rec.GroundTruth),
	}

	_, err = tx.Exec(insertResultSQL,
		runID, rec.RecordID, ordinal, rec.Score, truth, rec.Delta,
		string(tokens), string(attrs))
	if err != nil {
		return errors.Wrapf(err, "failed to insert result: %s", rec.RecordID)
	}
	return nil
}

// GetResults loads a run's results in their original order.
func (s *Store) GetResults(runID string) (*attribution.ResultSet, error) {
	rows, err := s.db.Query(selectResultsSQL, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query results for run: %s", runID)
	}
	defer rows.Close()

	set := attribution.NewResultSet()
	for rows.Next() {
		var (
			recordID     string
			score, delta float64
			truth        sql.NullFloat64
			tokensJSON   string
			attrsJSON    string
		)
		err := rows.Scan(&recordID, &score, &truth, &delta, &tokensJSON, &attrsJSON)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan result row")
		}

		var tokens []string
		if err := json.Unmarshal([]byte(tokensJSON), &tokens); err != nil {
			return nil, errors.Wrapf(err, "failed to decode tokens for record: %s", recordID)
		}
		var attrs []float64
		if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
			return nil, errors.Wrapf(err, "failed to decode attributions for record: %s", recordID)
		}

		groundTruth := math.NaN()
		if truth.Valid {
			groundTruth = truth.Float64
		}
		set.Add(attribution.NewRecord(recordID, score, groundTruth, tokens, attrs, delta))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate results")
	}
	return set, nil
}
