// Package store persists analysis runs and their per-record results to a
// local SQLite database.
package store

import (
	"database/sql"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultFileName is the database file the CLI uses when none is given.
const DefaultFileName = "verdict.db"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created    INTEGER NOT NULL, -- unix seconds
	checkpoint TEXT NOT NULL,
	dataset    TEXT NOT NULL,
	steps      INTEGER NOT NULL,
	method     TEXT NOT NULL,
	records    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	record_id    TEXT NOT NULL,
	ordinal      INTEGER NOT NULL,
	score        REAL NOT NULL,
	ground_truth REAL,
	delta        REAL NOT NULL,
	tokens       TEXT NOT NULL,
	attributions TEXT NOT NULL,
	PRIMARY KEY (run_id, ordinal)
);
`

// Store wraps the database handle. One Store serves one file.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the database at path, creating the file and the schema when
// they do not exist yet. A nil logger disables logging.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path not specified")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", path)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to create schema in: %s", path)
	}

	logger.Debug("database open", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		return errors.Wrapf(err, "rollback failed: %v", rbErr)
	}
	return err
}
