package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no checkpoint exists for a hash.
var ErrNotFound = errors.New("checkpoint not found")

// ReadCheckpoint returns the checkpoint for a definitions hash.
// Returns ErrNotFound if none has been written.
func (s *Store) ReadCheckpoint(ctx context.Context, hash string) (Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT definitions_hash, engine_id, seq, current, previous, definitions
		FROM checkpoints
		WHERE definitions_hash = ?
	`, hash)

	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, fmt.Errorf("read checkpoint %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("read checkpoint %s: %w", hash, err)
	}
	return cp, nil
}

// ListCheckpoints returns every checkpoint ordered by definitions hash.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListCheckpoints(ctx context.Context) ([]Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT definitions_hash, engine_id, seq, current, previous, definitions
		FROM checkpoints
		ORDER BY definitions_hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	checkpoints := []Checkpoint{}
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return checkpoints, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row scanner) (Checkpoint, error) {
	var cp Checkpoint
	var current, previous, defs string
	if err := row.Scan(&cp.DefinitionsHash, &cp.EngineID, &cp.State.Seq, &current, &previous, &defs); err != nil {
		return Checkpoint{}, err
	}

	var err error
	if cp.State.Current, err = unmarshalSet(current); err != nil {
		return Checkpoint{}, err
	}
	if cp.State.Previous, err = unmarshalSet(previous); err != nil {
		return Checkpoint{}, err
	}
	if cp.Definitions, err = unmarshalDefinitions(defs); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}
