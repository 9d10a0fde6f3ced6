package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// NewGenerationID returns a fresh UUIDv7. Ids sort by creation time.
func NewGenerationID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RecordGeneration appends a run to the ledger and returns it as stored.
// An empty ID is filled with NewGenerationID; Seq is always assigned here.
// The run and its files are written in one transaction.
func (s *Store) RecordGeneration(ctx context.Context, g Generation) (Generation, error) {
	if g.ID == "" {
		g.ID = NewGenerationID()
	}
	if g.Status == "" {
		g.Status = StatusOK
	}

	metaJSON, err := marshalMetadata(g.Address, g.Origin)
	if err != nil {
		return Generation{}, fmt.Errorf("record generation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Generation{}, fmt.Errorf("record generation: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM generations`,
	).Scan(&g.Seq); err != nil {
		return Generation{}, fmt.Errorf("record generation: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO generations
		(id, seq, project, input_path, output_path, idl_hash, metadata, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID,
		g.Seq,
		g.Project,
		g.InputPath,
		g.OutputPath,
		g.IDLHash,
		metaJSON,
		string(g.Status),
		g.Error,
	)
	if err != nil {
		return Generation{}, fmt.Errorf("record generation: %w", err)
	}

	for _, f := range g.Files {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO generated_files (generation_id, path, content_hash)
			VALUES (?, ?, ?)
		`, g.ID, f.Path, f.ContentHash)
		if err != nil {
			return Generation{}, fmt.Errorf("record generation: file %q: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Generation{}, fmt.Errorf("record generation: commit: %w", err)
	}

	if g.Files == nil {
		g.Files = []GeneratedFile{}
	}
	return g, nil
}
