package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlgen/internal/store"
)

func seedLedger(t *testing.T, path string) {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, err = st.RecordGeneration(ctx, store.Generation{
		ID: "gen-1", Project: "proj-a", InputPath: "a.json", OutputPath: "out/a",
		IDLHash: "0123456789abcdef", Address: "ADDR1", Origin: "anchor",
		Files: []store.GeneratedFile{{Path: "mod.rs", ContentHash: "h"}},
	})
	require.NoError(t, err)
	_, err = st.RecordGeneration(ctx, store.Generation{
		ID: "gen-2", Project: "proj-b", InputPath: "b.json", OutputPath: "out/b",
		Address: "ADDR2", Origin: "shank", Status: store.StatusFailed, Error: "malformed IDL b.json",
	})
	require.NoError(t, err)
}

func executeHistory(t *testing.T, env map[string]string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommandWithOptions(&RootOptions{Getenv: func(k string) string { return env[k] }})
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"history"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestHistory_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	seedLedger(t, db)

	out, _, err := executeHistory(t, nil, "--db", db)
	require.NoError(t, err)
	assert.Equal(t,
		"#1 gen-1 proj-a ok files=1 idl=0123456789ab\n"+
			"#2 gen-2 proj-b failed: malformed IDL b.json\n",
		out)
}

func TestHistory_ProjectFilterJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	seedLedger(t, db)

	out, _, err := executeHistory(t, nil, "--db", db, "-p", "proj-b", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string             `json:"status"`
		Data   []store.Generation `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "gen-2", resp.Data[0].ID)
	assert.Equal(t, store.StatusFailed, resp.Data[0].Status)
	assert.Equal(t, "shank", resp.Data[0].Origin)
}

func TestHistory_DatabaseFromEnv(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	seedLedger(t, db)

	out, _, err := executeHistory(t, map[string]string{EnvDB: db})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := executeHistory(t, nil, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No generations recorded.\n", out)
}

func TestHistory_NoDatabase(t *testing.T) {
	_, stderr, err := executeHistory(t, nil)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E001]: no ledger: pass --db or set IDLGEN_DB")
}

func TestHistory_ByID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	seedLedger(t, db)

	out, _, err := executeHistory(t, nil, "--db", db, "--id", "gen-2")
	require.NoError(t, err)
	assert.Equal(t, "#2 gen-2 proj-b failed: malformed IDL b.json\n", out)
}

func TestHistory_ByIDNotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	seedLedger(t, db)

	_, stderr, err := executeHistory(t, nil, "--db", db, "--id", "gen-9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E005]: no matching generation")
}

func TestHistory_Last(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	seedLedger(t, db)

	out, _, err := executeHistory(t, nil, "--db", db, "-p", "proj-a", "--last")
	require.NoError(t, err)
	assert.Equal(t, "#1 gen-1 proj-a ok files=1 idl=0123456789ab\n", out)

	// proj-b only has a failed run.
	_, stderr, err := executeHistory(t, nil, "--db", db, "-p", "proj-b", "--last")
	require.Error(t, err)
	assert.Contains(t, stderr, "no matching generation")
}

func TestHistory_LastNeedsProject(t *testing.T) {
	_, _, err := executeHistory(t, nil, "--db", "x.db", "--last")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--last requires --project")
}

func TestHistory_IDAndLastExclusive(t *testing.T) {
	_, _, err := executeHistory(t, nil, "--db", "x.db", "-p", "proj-a", "--id", "a", "--last")
	require.Error(t, err)
}

func TestHistory_MissingDatabaseNotCreated(t *testing.T) {
	db := filepath.Join(t.TempDir(), "typo.db")

	_, stderr, err := executeHistory(t, nil, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E005]:")

	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "history created the ledger")
}
