package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlgen/internal/dispatch"
	"github.com/roach88/idlgen/internal/registry"
	"github.com/roach88/idlgen/internal/store"
)

const pingIDL = `{
  "name": "demo",
  "instructions": [{"name": "ping", "accounts": [{"name": "payer", "isMut": true, "isSigner": true}], "args": []}]
}`

// testEnv is a two-project registry under a temp dir. proj-a has a valid
// IDL, proj-b a corrupt one.
type testEnv struct {
	dir string
	reg *registry.Registry
	env map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(pingIDL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"name": `), 0o644))

	reg, err := registry.New(
		map[string]registry.Entry{
			"proj-a": {Input: filepath.Join(dir, "a.json"), Output: filepath.Join(dir, "out", "a")},
			"proj-b": {Input: filepath.Join(dir, "b.json"), Output: filepath.Join(dir, "out", "b")},
		},
		map[string]registry.Metadata{
			"proj-a": {Address: "ADDR1", Origin: "anchor"},
			"proj-b": {Address: "ADDR2", Origin: "shank"},
		},
		"proj-a",
	)
	require.NoError(t, err)
	return &testEnv{dir: dir, reg: reg, env: map[string]string{}}
}

func (e *testEnv) execute(t *testing.T, inv dispatch.Invoker, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	opts := &RootOptions{
		Registry: e.reg,
		Invoker:  inv,
		Getenv:   func(k string) string { return e.env[k] },
	}
	cmd := NewRootCommandWithOptions(opts)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestGenerate_DefaultProject(t *testing.T) {
	e := newTestEnv(t)

	stdout, _, err := e.execute(t, nil)
	require.NoError(t, err)

	outDir := filepath.Join(e.dir, "out", "a")
	assert.Contains(t, stdout, "Generated 4 file(s) for proj-a in "+outDir)
	ping, err := os.ReadFile(filepath.Join(outDir, "instructions", "ping.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(ping), "pub payer: Pubkey,")
	assert.Contains(t, string(ping), "AccountMeta::new(self.payer, true)")
}

func TestGenerate_ProjectFlag(t *testing.T) {
	for _, args := range [][]string{{"--project", "proj-a"}, {"-p", "proj-a"}} {
		t.Run(args[0], func(t *testing.T) {
			e := newTestEnv(t)
			var got []dispatch.GenerationRequest
			inv := dispatch.InvokerFunc(func(_ context.Context, req dispatch.GenerationRequest) (dispatch.Report, error) {
				got = append(got, req)
				return dispatch.Report{}, nil
			})

			_, _, err := e.execute(t, inv, args...)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "proj-a", got[0].Project)
			assert.Equal(t, map[string]any{"address": "ADDR1", "origin": "anchor"}, got[0].Document.Metadata())
		})
	}
}

func TestGenerate_UnknownProject(t *testing.T) {
	e := newTestEnv(t)
	called := false
	inv := dispatch.InvokerFunc(func(context.Context, dispatch.GenerationRequest) (dispatch.Report, error) {
		called = true
		return dispatch.Report{}, nil
	})

	_, stderr, err := e.execute(t, inv, "-p", "proj-z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E201]: unknown project \"proj-z\" (known: proj-a, proj-b)")

	var unknown *registry.UnknownProjectError
	assert.ErrorAs(t, err, &unknown)
	assert.False(t, called)
}

func TestGenerate_UnknownProjectLeavesNoLedger(t *testing.T) {
	e := newTestEnv(t)
	dbPath := filepath.Join(e.dir, "ledger.db")
	e.env[EnvDB] = dbPath

	_, _, err := e.execute(t, nil, "-p", "proj-z")
	require.Error(t, err)

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "ledger created for unknown project")
}

func TestGenerate_ErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		invoker dispatch.Invoker
		code    string
	}{
		{"malformed IDL", []string{"-p", "proj-b"}, nil, ErrCodeMalformedIDL},
		{
			"pipeline failure",
			[]string{"-p", "proj-a"},
			dispatch.InvokerFunc(func(context.Context, dispatch.GenerationRequest) (dispatch.Report, error) {
				return dispatch.Report{}, errors.New("renderer exploded")
			}),
			ErrCodePipeline,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			_, stderr, err := e.execute(t, tt.invoker, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, stderr, "Error ["+tt.code+"]")
		})
	}
}

func TestGenerate_MissingIDL(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.Remove(filepath.Join(e.dir, "a.json")))

	_, stderr, err := e.execute(t, nil)
	require.Error(t, err)
	assert.Contains(t, stderr, "Error [E005]")
}

func TestGenerate_RejectsPositionalArgs(t *testing.T) {
	e := newTestEnv(t)

	_, _, err := e.execute(t, nil, "proj-a")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestGenerate_RecordsToLedger(t *testing.T) {
	e := newTestEnv(t)
	dbPath := filepath.Join(e.dir, "ledger.db")
	e.env[EnvDB] = dbPath

	stdout, _, err := e.execute(t, nil)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(generation ")

	_, _, err = e.execute(t, nil, "-p", "proj-b")
	require.Error(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	gens, err := st.ListGenerations(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, gens, 2)
	assert.Equal(t, "proj-a", gens[0].Project)
	assert.Equal(t, store.StatusOK, gens[0].Status)
	assert.Len(t, gens[0].Files, 4)
	assert.Equal(t, "proj-b", gens[1].Project)
	assert.Equal(t, store.StatusFailed, gens[1].Status)
	assert.Contains(t, gens[1].Error, "malformed IDL")
}

func TestGenerate_UnusableLedgerDoesNotFail(t *testing.T) {
	e := newTestEnv(t)
	e.env[EnvDB] = filepath.Join(e.dir, "missing", "dir", "ledger.db")

	_, stderr, err := e.execute(t, nil)
	require.NoError(t, err)
	assert.Contains(t, stderr, "ledger unavailable")
}

func TestGenerate_VerboseLogs(t *testing.T) {
	e := newTestEnv(t)
	e.env[EnvVerbose] = "1"

	_, stderr, err := e.execute(t, nil)
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "resolved project")
}

func TestGenerate_QuietByDefault(t *testing.T) {
	e := newTestEnv(t)

	_, stderr, err := e.execute(t, nil)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "level=INFO msg=generated")
}

func TestGenerateResult_JSON(t *testing.T) {
	data, err := json.Marshal(GenerateResult{Project: "proj-a", Output: "out/a", IDLHash: "h", Files: []string{"mod.rs"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"project":"proj-a","output":"out/a","idl_hash":"h","files":["mod.rs"]}`, string(data))
}

func TestBuiltinRegistryDefaultMatchesFlag(t *testing.T) {
	reg, err := registry.Builtin()
	require.NoError(t, err)
	assert.Equal(t, DefaultProject, reg.Default())
}
