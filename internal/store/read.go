package store

import (
	"context"
	"database/sql"
	"fmt"
)

const generationColumns = `id, seq, project, input_path, output_path, idl_hash, metadata, status, error`

// ListGenerations returns recorded runs ordered by seq ASC, id ASC COLLATE
// BINARY. An empty project lists every run. Returns an empty slice, not nil,
// when nothing matches.
func (s *Store) ListGenerations(ctx context.Context, project string) ([]Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations`
	var args []any
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	gens := []Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	rows.Close()

	for i := range gens {
		files, err := s.readFiles(ctx, gens[i].ID)
		if err != nil {
			return nil, err
		}
		gens[i].Files = files
	}
	return gens, nil
}

// ReadGeneration retrieves one run by id. Returns sql.ErrNoRows if not found.
func (s *Store) ReadGeneration(ctx context.Context, id string) (Generation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE id = ?`, id)
	g, err := scanGeneration(row)
	if err != nil {
		return Generation{}, err
	}
	g.Files, err = s.readFiles(ctx, id)
	if err != nil {
		return Generation{}, err
	}
	return g, nil
}

// LastSuccessful returns the most recent ok run for project, or
// sql.ErrNoRows if there is none.
func (s *Store) LastSuccessful(ctx context.Context, project string) (Generation, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM generations
		WHERE project = ? AND status = ?
		ORDER BY seq DESC
		LIMIT 1
	`, project, string(StatusOK)).Scan(&id)
	if err != nil {
		return Generation{}, err
	}
	return s.ReadGeneration(ctx, id)
}

func (s *Store) readFiles(ctx context.Context, generationID string) ([]GeneratedFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, content_hash FROM generated_files
		WHERE generation_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, generationID)
	if err != nil {
		return nil, fmt.Errorf("query generated files: %w", err)
	}
	defer rows.Close()

	files := []GeneratedFile{}
	for rows.Next() {
		var f GeneratedFile
		if err := rows.Scan(&f.Path, &f.ContentHash); err != nil {
			return nil, fmt.Errorf("scan generated file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generated files: %w", err)
	}
	return files, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row scanner) (Generation, error) {
	var (
		g        Generation
		metaJSON string
		status   string
	)
	err := row.Scan(&g.ID, &g.Seq, &g.Project, &g.InputPath, &g.OutputPath,
		&g.IDLHash, &metaJSON, &status, &g.Error)
	if err == sql.ErrNoRows {
		return Generation{}, err
	}
	if err != nil {
		return Generation{}, fmt.Errorf("scan generation: %w", err)
	}
	g.Status = Status(status)
	g.Address, g.Origin, err = unmarshalMetadata(metaJSON)
	if err != nil {
		return Generation{}, err
	}
	return g, nil
}
