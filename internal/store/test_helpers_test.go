package store

import (
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestGeneration returns a successful run with minimal required fields.
func createTestGeneration(project string, files ...string) Generation {
	g := Generation{
		Project:    project,
		InputPath:  "./idls/" + project + ".json",
		OutputPath: "./out/" + project,
		IDLHash:    "hash-" + project,
		Address:    "ADDR1",
		Origin:     "anchor",
		Status:     StatusOK,
	}
	for _, f := range files {
		g.Files = append(g.Files, GeneratedFile{Path: f, ContentHash: "h-" + f})
	}
	return g
}
