package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/idlgen/internal/canonical"
)

// RunWithGolden runs a scenario in a temp directory and compares its trace
// with testdata/golden/<name>.golden. Run tests with -update to regenerate
// the golden files.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, t.TempDir())
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	AssertGolden(t, scenario.Name, result.Trace)
	return result
}

// AssertGolden compares the canonical JSON of trace with a golden file.
func AssertGolden(t *testing.T, name string, trace []TraceEvent) {
	t.Helper()

	data, err := encodeTrace(trace)
	if err != nil {
		t.Fatalf("failed to encode trace: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// encodeTrace renders trace events as canonical JSON, one event per line.
func encodeTrace(trace []TraceEvent) ([]byte, error) {
	var out []byte
	for i, ev := range trace {
		data, err := canonical.Marshal(eventMap(ev))
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out, nil
}

// eventMap mirrors the json tags of TraceEvent as a plain tree.
func eventMap(ev TraceEvent) map[string]any {
	m := map[string]any{"stage": ev.Stage}
	if ev.Path != "" {
		m["path"] = ev.Path
	}
	if ev.OutputDir != "" {
		m["output_dir"] = ev.OutputDir
	}
	if ev.Document != nil {
		m["document"] = ev.Document
	}
	if ev.Files != nil {
		files := make([]any, len(ev.Files))
		for i, f := range ev.Files {
			files[i] = f
		}
		m["files"] = files
	}
	if ev.Error != "" {
		m["error"] = ev.Error
	}
	return m
}
