// Package history records generated turns in a local SQLite database so
// test and compare sessions can be reviewed after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Turn is one recorded generation.
type Turn struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`  // command that produced the turn: "test" or "compare"
	Model     string    `json:"model"`   // model or adapter that answered
	Input     string    `json:"input"`   // operator's question
	Context   string    `json:"context"` // optional context line, may be empty
	Response  string    `json:"response"`
}

// Store persists turns in SQLite.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TIMESTAMP NOT NULL,
	source     TEXT NOT NULL,
	model      TEXT NOT NULL,
	input      TEXT NOT NULL,
	context    TEXT NOT NULL DEFAULT '',
	response   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_source ON turns(source);
`

// Open opens (creating if necessary) the transcript database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open history database %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends a turn. The caller's session must not fail because
// transcription failed, so callers log and continue on error.
func (s *Store) Record(ctx context.Context, turn Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (created_at, source, model, input, context, response)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		turn.CreatedAt, turn.Source, turn.Model, turn.Input, turn.Context, turn.Response,
	)
	if err != nil {
		return fmt.Errorf("could not record turn: %w", err)
	}

	return nil
}

// List returns all recorded turns, oldest first.
func (s *Store) List(ctx context.Context) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, model, input, context, response
		 FROM turns ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("could not list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.CreatedAt, &t.Source, &t.Model, &t.Input, &t.Context, &t.Response); err != nil {
			return nil, fmt.Errorf("could not scan turn: %w", err)
		}
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
