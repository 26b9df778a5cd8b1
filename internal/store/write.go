package store

import (
	"context"
	"fmt"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

// Checkpoint is the latest transition recorded for one definition set.
type Checkpoint struct {
	DefinitionsHash string
	EngineID        string
	Definitions     breakpoint.Definitions
	State           breakpoint.State
}

// NewCheckpoint builds a checkpoint, computing the definitions hash.
func NewCheckpoint(engineID string, defs breakpoint.Definitions, st breakpoint.State) (Checkpoint, error) {
	hash, err := defs.Hash()
	if err != nil {
		return Checkpoint{}, fmt.Errorf("new checkpoint: %w", err)
	}
	return Checkpoint{
		DefinitionsHash: hash,
		EngineID:        engineID,
		Definitions:     defs,
		State:           st,
	}, nil
}

// WriteCheckpoint records cp as the latest state for its definitions.
//
// An existing row is replaced unless it was written by the same engine with
// a seq at least as high, so a late write never moves an engine backwards.
// A different engine always replaces the row: it is a newer process that
// took over the same definitions.
func (s *Store) WriteCheckpoint(ctx context.Context, cp Checkpoint) error {
	current, err := marshalSet(cp.State.Current)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	previous, err := marshalSet(cp.State.Previous)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	defs, err := marshalDefinitions(cp.Definitions)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints
		(definitions_hash, engine_id, seq, current, previous, definitions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(definitions_hash) DO UPDATE SET
			engine_id = excluded.engine_id,
			seq = excluded.seq,
			current = excluded.current,
			previous = excluded.previous,
			definitions = excluded.definitions
		WHERE checkpoints.engine_id != excluded.engine_id
		   OR excluded.seq > checkpoints.seq
	`,
		cp.DefinitionsHash,
		cp.EngineID,
		cp.State.Seq,
		current,
		previous,
		defs,
	)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint for a definitions hash.
// Deleting a missing checkpoint is not an error.
func (s *Store) DeleteCheckpoint(ctx context.Context, hash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE definitions_hash = ?`, hash); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
