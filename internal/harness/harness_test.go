package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlgen/internal/idl"
	"github.com/roach88/idlgen/internal/registry"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result := RunWithGolden(t, scenario)
			assert.True(t, result.Pass, "expectations failed: %v", result.Errors)
		})
	}
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	invoked := false
	s := &Scenario{
		Name:        "wrong_expectations",
		Description: "every expectation is wrong",
		Registry: map[string]ProjectSpec{
			"proj-a": {Input: "a.json", Output: "out/a", Address: "ADDR1", Origin: "anchor"},
		},
		Files: map[string]string{"a.json": `{"instructions": []}`},
		Run:   "proj-a",
		Expect: Expect{
			Error:     ErrorMalformedIDL,
			Invoked:   &invoked,
			OutputDir: "out/b",
			Document:  map[string]any{"instructions": []any{}},
			Files:     []string{"mod.rs"},
		},
	}

	result, err := Run(context.Background(), s, t.TempDir())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "expected malformed_idl error, run succeeded")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := &Scenario{
		Name:        "missing",
		Description: "no file",
		Registry: map[string]ProjectSpec{
			"proj-a": {Input: "a.json", Output: "out/a", Address: "ADDR1", Origin: "anchor"},
		},
		Run: "proj-a",
	}

	result, err := Run(context.Background(), s, t.TempDir())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error (io)")
}

func TestRun_WrongErrorKind(t *testing.T) {
	s := &Scenario{
		Name:        "missing",
		Description: "no file",
		Registry: map[string]ProjectSpec{
			"proj-a": {Input: "a.json", Output: "out/a", Address: "ADDR1", Origin: "anchor"},
		},
		Run:    "proj-a",
		Expect: Expect{Error: ErrorMalformedIDL},
	}

	result, err := Run(context.Background(), s, t.TempDir())
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected malformed_idl error, got io")
}

func TestRun_SetupFailure(t *testing.T) {
	dir := t.TempDir()
	// A regular file where a directory is needed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "idls"), nil, 0o644))

	s := &Scenario{
		Name:        "blocked",
		Description: "cannot write files",
		Registry:    map[string]ProjectSpec{"p": {Input: "idls/a.json", Output: "out"}},
		Files:       map[string]string{"idls/a.json": "{}"},
		Run:         "p",
	}

	_, err := Run(context.Background(), s, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating idls/a.json")
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&registry.UnknownProjectError{ID: "x"}, ErrorUnknownProject},
		{&registry.InconsistencyError{}, ErrorInconsistent},
		{&idl.IOError{Path: "a", Err: os.ErrNotExist}, ErrorIO},
		{fmt.Errorf("wrapped: %w", &idl.MalformedIDLError{Path: "a", Message: "bad"}), ErrorMalformedIDL},
		{errors.New("boom"), ErrorPipeline},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errorKind(tt.err), "%v", tt.err)
	}
}

func TestEncodeTrace(t *testing.T) {
	data, err := encodeTrace([]TraceEvent{
		{Stage: StageLoad, Path: "a.json"},
		{Stage: StageInvoked, Files: []string{}},
		{Stage: StageFailed, Error: ErrorPipeline},
	})
	require.NoError(t, err)

	want := `{"path":"a.json","stage":"load"}` + "\n" +
		`{"files":[],"stage":"invoked"}` + "\n" +
		`{"error":"pipeline","stage":"failed"}` + "\n"
	assert.Equal(t, want, string(data))
}
