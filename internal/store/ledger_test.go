package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordGeneration_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.RecordGeneration(ctx, createTestGeneration("proj-a", "mod.rs"))
	require.NoError(t, err)
	second, err := s.RecordGeneration(ctx, createTestGeneration("proj-b"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	parsed, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []GeneratedFile{}, second.Files)
}

func TestRecordGeneration_KeepsGivenID(t *testing.T) {
	s := createTestStore(t)

	g := createTestGeneration("proj-a")
	g.ID = "fixed-id"
	got, err := s.RecordGeneration(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", got.ID)
}

func TestRecordGeneration_DuplicateIDFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := createTestGeneration("proj-a", "mod.rs")
	g.ID = "dup"
	_, err := s.RecordGeneration(ctx, g)
	require.NoError(t, err)

	_, err = s.RecordGeneration(ctx, g)
	require.Error(t, err)

	// The failed transaction left nothing behind.
	gens, err := s.ListGenerations(ctx, "")
	require.NoError(t, err)
	assert.Len(t, gens, 1)
}

func TestReadGeneration_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want, err := s.RecordGeneration(ctx, createTestGeneration("proj-a", "programs.rs", "mod.rs"))
	require.NoError(t, err)

	got, err := s.ReadGeneration(ctx, want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Seq, got.Seq)
	assert.Equal(t, "proj-a", got.Project)
	assert.Equal(t, "./idls/proj-a.json", got.InputPath)
	assert.Equal(t, "./out/proj-a", got.OutputPath)
	assert.Equal(t, "hash-proj-a", got.IDLHash)
	assert.Equal(t, "ADDR1", got.Address)
	assert.Equal(t, "anchor", got.Origin)
	assert.Equal(t, StatusOK, got.Status)
	// Files come back sorted by path.
	assert.Equal(t, []GeneratedFile{
		{Path: "mod.rs", ContentHash: "h-mod.rs"},
		{Path: "programs.rs", ContentHash: "h-programs.rs"},
	}, got.Files)
}

func TestReadGeneration_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadGeneration(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRecordGeneration_MetadataStoredCanonically(t *testing.T) {
	s := createTestStore(t)

	g, err := s.RecordGeneration(context.Background(), createTestGeneration("proj-a"))
	require.NoError(t, err)

	var raw string
	require.NoError(t, s.db.QueryRow(`SELECT metadata FROM generations WHERE id = ?`, g.ID).Scan(&raw))
	assert.Equal(t, `{"address":"ADDR1","origin":"anchor"}`, raw)
}

func TestRecordGeneration_Failure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := createTestGeneration("proj-a")
	g.IDLHash = ""
	g.Status = StatusFailed
	g.Error = "a.json: invalid JSON"
	_, err := s.RecordGeneration(ctx, g)
	require.NoError(t, err)

	gens, err := s.ListGenerations(ctx, "proj-a")
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, StatusFailed, gens[0].Status)
	assert.Equal(t, "a.json: invalid JSON", gens[0].Error)
	assert.Empty(t, gens[0].IDLHash)
}

func TestListGenerations_FilterAndOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"proj-a", "proj-b", "proj-a"} {
		_, err := s.RecordGeneration(ctx, createTestGeneration(p, "mod.rs"))
		require.NoError(t, err)
	}

	all, err := s.ListGenerations(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, g := range all {
		assert.Equal(t, int64(i+1), g.Seq)
		assert.Len(t, g.Files, 1)
	}

	onlyA, err := s.ListGenerations(ctx, "proj-a")
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, int64(1), onlyA[0].Seq)
	assert.Equal(t, int64(3), onlyA[1].Seq)
}

func TestListGenerations_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	gens, err := s.ListGenerations(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, gens)
	assert.Empty(t, gens)
}

func TestLastSuccessful(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ok, err := s.RecordGeneration(ctx, createTestGeneration("proj-a", "mod.rs"))
	require.NoError(t, err)

	failed := createTestGeneration("proj-a")
	failed.Status = StatusFailed
	failed.Error = "boom"
	_, err = s.RecordGeneration(ctx, failed)
	require.NoError(t, err)

	got, err := s.LastSuccessful(ctx, "proj-a")
	require.NoError(t, err)
	assert.Equal(t, ok.ID, got.ID)

	_, err = s.LastSuccessful(ctx, "proj-b")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestNewGenerationID_Sortable(t *testing.T) {
	a := NewGenerationID()
	b := NewGenerationID()
	assert.Less(t, a, b)
}
