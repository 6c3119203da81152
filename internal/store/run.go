package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/verdict-ml/verdict/internal/attribution"
)

const (
	insertRunSQL = `INSERT INTO runs (
			id,
			created,
			checkpoint,
			dataset,
			steps,
			method,
			records
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	selectRunSQL = `SELECT
			id,
			created,
			checkpoint,
			dataset,
			steps,
			method,
			records
		FROM runs
		WHERE id = ?
	`

	latestRunSQL = `SELECT
			id,
			created,
			checkpoint,
			dataset,
			steps,
			method,
			records
		FROM runs
		ORDER BY created DESC, id
		LIMIT 1
	`

	listRunsSQL = `SELECT
			id,
			created,
			checkpoint,
			dataset,
			steps,
			method,
			records
		FROM runs
		ORDER BY created DESC, id
	`
)

// Run describes one stored analysis pass over a dataset.
type Run struct {
	ID         string    `json:"id"`
	Created    time.Time `json:"created"`
	Checkpoint string    `json:"checkpoint"`
	Dataset    string    `json:"dataset"`
	Steps      int       `json:"steps"`
	Method     string    `json:"method"`
	Records    int       `json:"records"`
}

// NewRun stamps a fresh run with a random id and the current time.
func NewRun(checkpoint, dataset string, steps int, method string) Run {
	return Run{
		ID:         uuid.NewString(),
		Created:    time.Now().UTC(),
		Checkpoint: checkpoint,
		Dataset:    dataset,
		Steps:      steps,
		Method:     method,
	}
}

// SaveRun writes the run row and every result in one transaction. Result
// ordinals follow the set's insertion order, and the run's record count is
// taken from the set.
func (s *Store) SaveRun(run Run, set *attribution.ResultSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	_, err = tx.Exec(insertRunSQL,
		run.ID, run.Created.Unix(), run.Checkpoint, run.Dataset,
		run.Steps, run.Method, set.Len())
	if err != nil {
		return rollback(tx, errors.Wrapf(err, "failed to insert run: %s", run.ID))
	}

	for i, rec := range set.Records() {
		if err := insertResult(tx, run.ID, i, rec); err != nil {
			return rollback(tx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	s.logger.Info("run saved",
		zap.String("run", run.ID),
		zap.Int("results", set.Len()))
	return nil
}

// GetRun loads one run by id, or nil when no such run exists.
func (s *Store) GetRun(id string) (*Run, error) {
	return s.scanRun(s.db.QueryRow(selectRunSQL, id))
}

// LatestRun returns the most recently created run, or nil on an empty
// database.
func (s *Store) LatestRun() (*Run, error) {
	return s.scanRun(s.db.QueryRow(latestRunSQL))
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(listRunsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRunColumns(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRun(row *sql.Row) (*Run, error) {
	run, err := scanRunColumns(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return run, nil
}

func scanRunColumns(row rowScanner) (*Run, error) {
	var (
		run     Run
		created int64
	)
	err := row.Scan(&run.ID, &created, &run.Checkpoint, &run.Dataset,
		&run.Steps, &run.Method, &run.Records)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan run row")
	}
	run.Created = time.Unix(created, 0).UTC()
	return &run, nil
}
