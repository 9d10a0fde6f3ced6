package dispatch

import (
	"context"

	"github.com/roach88/idlgen/internal/nodes"
	"github.com/roach88/idlgen/internal/render/rust"
)

// PipelineInvoker is the built-in generation pipeline: ingest the document
// into a node graph, then render it to Rust with a RenderVisitor bound to
// the output directory.
type PipelineInvoker struct {
	// RenderOptions are passed to every RenderVisitor.
	RenderOptions []rust.RenderOption
}

// Invoke implements Invoker. The project id names the program when the
// document does not.
func (p PipelineInvoker) Invoke(ctx context.Context, req GenerationRequest) (Report, error) {
	root, err := nodes.FromIDL(req.Document, nodes.WithFallbackName(req.Project))
	if err != nil {
		return Report{}, err
	}

	visitor := rust.NewRenderVisitor(req.OutputDir, p.RenderOptions...)
	if err := nodes.NewDriver(root).Accept(ctx, visitor); err != nil {
		return Report{}, err
	}

	files := visitor.Files()
	report := Report{Files: make([]string, len(files))}
	for i, f := range files {
		report.Files[i] = f.Path
	}
	return report, nil
}
