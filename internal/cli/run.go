package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idlgen/internal/dispatch"
	"github.com/roach88/idlgen/internal/store"
)

// GenerateResult is the payload of a successful generation.
type GenerateResult struct {
	Project      string   `json:"project" yaml:"project"`
	Output       string   `json:"output" yaml:"output"`
	IDLHash      string   `json:"idl_hash" yaml:"idl_hash"`
	Files        []string `json:"files" yaml:"files"`
	GenerationID string   `json:"generation_id,omitempty" yaml:"generation_id,omitempty"`
}

func (r GenerateResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d file(s) for %s in %s", len(r.Files), r.Project, r.Output)
	if r.GenerationID != "" {
		fmt.Fprintf(&b, " (generation %s)", r.GenerationID)
	}
	return b.String()
}

func runGenerate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    FormatText,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}

	reg, err := opts.registry()
	if err != nil {
		return fail(formatter, errorCode(err, ErrCodeRegistry), err)
	}

	// Without --project, a custom registry's own default wins.
	project := opts.Project
	if !cmd.Flags().Changed("project") && reg.Default() != "" {
		project = reg.Default()
	}

	d := &dispatch.Dispatcher{
		Registry: reg,
		Invoker:  opts.invoker(),
	}

	if dbPath := opts.getenv(EnvDB); dbPath != "" {
		ledger := &lazyLedger{path: dbPath}
		defer ledger.close()
		d.Recorder = ledger
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := d.Run(ctx, project)
	if err != nil {
		return fail(formatter, errorCode(err, ErrCodePipeline), err)
	}

	out := GenerateResult{
		Project: project,
		Output:  result.Request.Entry.Output,
		IDLHash: result.Hash,
		Files:   result.Report.Files,
	}
	if result.Generation != nil {
		out.GenerationID = result.Generation.ID
	}
	return formatter.Success(out)
}

// lazyLedger opens the store on the first record, so runs that fail
// resolution never create the database file.
type lazyLedger struct {
	path string
	st   *store.Store
	err  error
}

func (l *lazyLedger) RecordGeneration(ctx context.Context, g store.Generation) (store.Generation, error) {
	if l.st == nil && l.err == nil {
		l.st, l.err = store.Open(l.path)
		if l.err != nil {
			slog.Warn("ledger unavailable, not recording", "path", l.path, "error", l.err)
		}
	}
	if l.err != nil {
		return store.Generation{}, l.err
	}
	return l.st.RecordGeneration(ctx, g)
}

func (l *lazyLedger) close() {
	if l.st == nil {
		return
	}
	if err := l.st.Close(); err != nil {
		slog.Error("error closing ledger", "error", err)
	}
}
