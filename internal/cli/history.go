package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idlgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Project  string
	ID       string
	Last     bool
	Format   string
}

// HistoryList renders one line per run in text format.
type HistoryList []store.Generation

func (l HistoryList) String() string {
	if len(l) == 0 {
		return "No generations recorded."
	}
	var b strings.Builder
	for i, g := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "#%d %s %s %s", g.Seq, g.ID, g.Project, g.Status)
		if g.Status == store.StatusFailed {
			fmt.Fprintf(&b, ": %s", g.Error)
			continue
		}
		hash := g.IDLHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(&b, " files=%d idl=%s", len(g.Files), hash)
	}
	return b.String()
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Long: `List the generation runs recorded in a ledger database, oldest first.

The database defaults to $IDLGEN_DB.

Example:
  idlgen history --db ./idlgen.db
  idlgen history --db ./idlgen.db --project lighthouse --format json
  idlgen history --db ./idlgen.db --project lighthouse --last
  idlgen history --db ./idlgen.db --id 0192f0c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Last && opts.Project == "" {
				return errors.New("--last requires --project")
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger (default $IDLGEN_DB)")
	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "only list runs of this project")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show a single run by id")
	cmd.Flags().BoolVar(&opts.Last, "last", false, "show the latest successful run of --project")
	cmd.Flags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|yaml)")
	cmd.MarkFlagsMutuallyExclusive("id", "last")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.getenv(EnvDB)
	}
	if dbPath == "" {
		return fail(formatter, ErrCodeGeneric, errors.New("no ledger: pass --db or set "+EnvDB))
	}

	// Opening creates missing files; a read must not.
	if _, err := os.Stat(dbPath); err != nil {
		return fail(formatter, ErrCodeNotFound, err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fail(formatter, ErrCodeNotFound, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var g store.Generation
	switch {
	case opts.ID != "":
		g, err = st.ReadGeneration(ctx, opts.ID)
	case opts.Last:
		g, err = st.LastSuccessful(ctx, opts.Project)
	default:
		gens, err := st.ListGenerations(ctx, opts.Project)
		if err != nil {
			return fail(formatter, ErrCodeGeneric, err)
		}
		return formatter.Success(HistoryList(gens))
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fail(formatter, ErrCodeNotFound, errors.New("no matching generation"))
	}
	if err != nil {
		return fail(formatter, ErrCodeGeneric, err)
	}
	return formatter.Success(HistoryList{g})
}
