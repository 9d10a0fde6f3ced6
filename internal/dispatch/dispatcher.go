package dispatch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/idlgen/internal/canonical"
	"github.com/roach88/idlgen/internal/idl"
	"github.com/roach88/idlgen/internal/registry"
	"github.com/roach88/idlgen/internal/store"
)

// Recorder persists finished runs. *store.Store implements it.
type Recorder interface {
	RecordGeneration(ctx context.Context, g store.Generation) (store.Generation, error)
}

// Dispatcher wires the stages together. Registry and Invoker are required.
type Dispatcher struct {
	Registry *registry.Registry
	Invoker  Invoker

	// Load reads an IDL file. Defaults to idl.Load.
	Load func(path string) (idl.Document, error)

	// Recorder, when set, receives one record per run that got past
	// resolution. Recording failures are logged, never returned.
	Recorder Recorder
}

// Result is a successful run.
type Result struct {
	Request  registry.ResolvedRequest
	Document idl.Document // patched
	Hash     string       // canonical hash of Document
	Report   Report

	// Generation is the ledger record, nil without a Recorder or when
	// recording failed.
	Generation *store.Generation
}

// Run generates project id.
//
// An unknown id fails with *registry.UnknownProjectError before any file is
// touched. Load and Invoke errors are returned exactly as produced.
func (d *Dispatcher) Run(ctx context.Context, id string) (*Result, error) {
	req, err := d.Registry.Resolve(id)
	if err != nil {
		return nil, err
	}
	log := slog.With("project", id)
	log.Debug("resolved project", "input", req.Entry.Input, "output", req.Entry.Output)

	load := d.Load
	if load == nil {
		load = idl.Load
	}
	doc, err := load(req.Entry.Input)
	if err != nil {
		d.record(ctx, req, "", nil, err)
		return nil, err
	}

	patched := idl.Patch(doc, req.Metadata)
	hash, err := patched.Hash()
	if err != nil {
		// Only reachable with a custom loader producing non-JSON values.
		d.record(ctx, req, "", nil, err)
		return nil, err
	}
	log.Debug("patched document", "hash", hash, "origin", req.Metadata.Origin)

	report, err := d.Invoker.Invoke(ctx, GenerationRequest{
		Project:   id,
		Document:  patched,
		OutputDir: req.Entry.Output,
	})
	if err != nil {
		d.record(ctx, req, hash, nil, err)
		return nil, err
	}
	log.Info("generated", "output", req.Entry.Output, "files", len(report.Files))

	return &Result{
		Request:    req,
		Document:   patched,
		Hash:       hash,
		Report:     report,
		Generation: d.record(ctx, req, hash, report.Files, nil),
	}, nil
}

// record writes the run to the ledger. It returns the stored record, or nil
// if there is no Recorder or the write failed.
func (d *Dispatcher) record(ctx context.Context, req registry.ResolvedRequest, hash string, files []string, runErr error) *store.Generation {
	if d.Recorder == nil {
		return nil
	}

	g := store.Generation{
		Project:    req.Entry.ID,
		InputPath:  req.Entry.Input,
		OutputPath: req.Entry.Output,
		IDLHash:    hash,
		Address:    req.Metadata.Address,
		Origin:     req.Metadata.Origin,
		Status:     store.StatusOK,
		Files:      hashFiles(req.Entry.Output, files),
	}
	if runErr != nil {
		g.Status = store.StatusFailed
		g.Error = runErr.Error()
	}

	stored, err := d.Recorder.RecordGeneration(ctx, g)
	if err != nil {
		slog.Warn("failed to record generation", "project", req.Entry.ID, "error", err)
		return nil
	}
	return &stored
}

// hashFiles reads back each written file. Unreadable files are recorded
// without a hash.
func hashFiles(dir string, files []string) []store.GeneratedFile {
	out := make([]store.GeneratedFile, 0, len(files))
	for _, f := range files {
		gf := store.GeneratedFile{Path: f}
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f)))
		if err != nil {
			slog.Warn("cannot hash generated file", "path", f, "error", err)
		} else {
			gf.ContentHash = canonical.FileHash(data)
		}
		out = append(out, gf)
	}
	return out
}
