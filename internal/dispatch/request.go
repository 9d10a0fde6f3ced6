// Package dispatch runs one generation: resolve the project, load and patch
// its IDL, hand the result to an Invoker.
//
// The flow is linear. Unresolved, Resolved, Loaded, Patched, then Invoked or
// Failed. Every stage error reaches the caller unwrapped so errors.As works
// on the concrete types from registry, idl, nodes and os.
package dispatch

import (
	"context"

	"github.com/roach88/idlgen/internal/canonical"
	"github.com/roach88/idlgen/internal/idl"
)

// GenerationRequest is what an Invoker receives. Document always carries
// metadata.
type GenerationRequest struct {
	Project   string
	Document  idl.Document
	OutputDir string
}

// Canonical returns the request as canonical JSON.
func (r GenerationRequest) Canonical() ([]byte, error) {
	return canonical.Marshal(map[string]any{
		"project":    r.Project,
		"document":   map[string]any(r.Document),
		"output_dir": r.OutputDir,
	})
}

// Report describes what an Invoker wrote.
type Report struct {
	// Files are slash-separated paths relative to the request's OutputDir.
	Files []string
}

// Invoker turns a patched document into generated source.
//
// Errors are returned as the pipeline produced them; callers do not
// interpret pipeline failures.
type Invoker interface {
	Invoke(ctx context.Context, req GenerationRequest) (Report, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, req GenerationRequest) (Report, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, req GenerationRequest) (Report, error) {
	return f(ctx, req)
}
