package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/idlgen/internal/canonical"
	"github.com/roach88/idlgen/internal/dispatch"
	"github.com/roach88/idlgen/internal/idl"
	"github.com/roach88/idlgen/internal/registry"
)

// Run executes a scenario in dir, which should be empty. It returns the
// trace and the expectation failures. The error return is reserved for
// scenarios that cannot be set up at all.
func Run(ctx context.Context, s *Scenario, dir string) (*Result, error) {
	for name, content := range s.Files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}

	result := NewResult()
	runErr := execute(ctx, s, dir, result)
	if runErr != nil {
		result.add(TraceEvent{Stage: StageFailed, Error: errorKind(runErr)})
	}

	check(s, result, runErr)
	return result, nil
}

// execute builds the registry and dispatcher for s and runs it, appending
// trace events to result.
func execute(ctx context.Context, s *Scenario, dir string, result *Result) error {
	reg, err := buildRegistry(s, dir)
	if err != nil {
		return err
	}

	d := &dispatch.Dispatcher{
		Registry: reg,
		Load: func(path string) (idl.Document, error) {
			result.add(TraceEvent{Stage: StageLoad, Path: relative(dir, path)})
			return idl.Load(path)
		},
		Invoker: dispatch.InvokerFunc(func(ctx context.Context, req dispatch.GenerationRequest) (dispatch.Report, error) {
			result.add(TraceEvent{
				Stage:     StageInvoke,
				OutputDir: relative(dir, req.OutputDir),
				Document:  map[string]any(req.Document),
			})
			return invoke(ctx, s, req)
		}),
	}

	res, err := d.Run(ctx, s.Run)
	if err != nil {
		return err
	}
	result.add(TraceEvent{Stage: StageInvoked, Files: res.Report.Files})
	return nil
}

func invoke(ctx context.Context, s *Scenario, req dispatch.GenerationRequest) (dispatch.Report, error) {
	if s.Pipeline == PipelineBuiltin {
		return dispatch.PipelineInvoker{}.Invoke(ctx, req)
	}
	if s.PipelineError != "" {
		return dispatch.Report{}, errors.New(s.PipelineError)
	}
	return dispatch.Report{}, nil
}

// buildRegistry roots every registered path in dir.
func buildRegistry(s *Scenario, dir string) (*registry.Registry, error) {
	entries := make(map[string]registry.Entry, len(s.Registry))
	metadata := make(map[string]registry.Metadata, len(s.Registry))
	for id, p := range s.Registry {
		entries[id] = registry.Entry{
			Input:  filepath.Join(dir, filepath.FromSlash(p.Input)),
			Output: filepath.Join(dir, filepath.FromSlash(p.Output)),
		}
		if !p.MissingMetadata {
			metadata[id] = registry.Metadata{Address: p.Address, Origin: p.Origin}
		}
	}
	return registry.New(entries, metadata, "")
}

// check compares the run against s.Expect.
func check(s *Scenario, result *Result, runErr error) {
	want := s.Expect

	switch kind := errorKind(runErr); {
	case want.Error == "" && runErr != nil:
		result.AddError(fmt.Sprintf("unexpected error (%s): %v", kind, runErr))
	case want.Error != "" && runErr == nil:
		result.AddError(fmt.Sprintf("expected %s error, run succeeded", want.Error))
	case want.Error != "" && kind != want.Error:
		result.AddError(fmt.Sprintf("expected %s error, got %s: %v", want.Error, kind, runErr))
	}

	loaded := slices.ContainsFunc(result.Trace, func(ev TraceEvent) bool { return ev.Stage == StageLoad })
	if want.Loaded != nil && *want.Loaded != loaded {
		result.AddError(fmt.Sprintf("loaded: expected %t, got %t", *want.Loaded, loaded))
	}

	inv := result.invoked()
	if want.Invoked != nil && *want.Invoked != (inv != nil) {
		result.AddError(fmt.Sprintf("invoked: expected %t, got %t", *want.Invoked, inv != nil))
	}

	if inv == nil {
		if want.Document != nil || want.OutputDir != "" {
			result.AddError("document and output_dir expectations need an invocation")
		}
	} else {
		if want.Document != nil {
			if err := sameJSON(want.Document, inv.Document); err != nil {
				result.AddError("document: " + err.Error())
			}
		}
		if want.OutputDir != "" && want.OutputDir != inv.OutputDir {
			result.AddError(fmt.Sprintf("output_dir: expected %q, got %q", want.OutputDir, inv.OutputDir))
		}
	}

	if want.Files != nil {
		var got []string
		for _, ev := range result.Trace {
			if ev.Stage == StageInvoked {
				got = ev.Files
			}
		}
		if !slices.Equal(want.Files, got) {
			result.AddError(fmt.Sprintf("files: expected %v, got %v", want.Files, got))
		}
	}
}

// sameJSON compares two decoded trees by their canonical encoding, so a YAML
// int and a JSON number with the same value are equal.
func sameJSON(want, got map[string]any) error {
	w, err := canonical.Marshal(want)
	if err != nil {
		return fmt.Errorf("encoding expectation: %w", err)
	}
	g, err := canonical.Marshal(got)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if !bytes.Equal(w, g) {
		return fmt.Errorf("expected %s, got %s", w, g)
	}
	return nil
}

// errorKind classifies a dispatcher error. Any error that is not a
// registry or IDL error came from the pipeline.
func errorKind(err error) string {
	var (
		unknown      *registry.UnknownProjectError
		inconsistent *registry.InconsistencyError
		ioErr        *idl.IOError
		malformed    *idl.MalformedIDLError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unknown):
		return ErrorUnknownProject
	case errors.As(err, &inconsistent):
		return ErrorInconsistent
	case errors.As(err, &ioErr):
		return ErrorIO
	case errors.As(err, &malformed):
		return ErrorMalformedIDL
	default:
		return ErrorPipeline
	}
}

func relative(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
