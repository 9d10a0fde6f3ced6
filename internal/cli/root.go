package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/idlgen/internal/dispatch"
	"github.com/roach88/idlgen/internal/registry"
)

// DefaultProject is generated when --project is not given.
const DefaultProject = "orca-whirlpool"

// Environment variables read by the CLI.
const (
	EnvDB      = "IDLGEN_DB"      // ledger path; unset disables recording
	EnvVerbose = "IDLGEN_VERBOSE" // truthy value selects debug logs
)

// RootOptions holds the root flag and the collaborators commands share.
// Nil collaborators get their production defaults.
type RootOptions struct {
	Project string

	Registry *registry.Registry       // defaults to registry.Builtin()
	Invoker  dispatch.Invoker         // defaults to dispatch.PipelineInvoker{}
	Getenv   func(key string) string // defaults to os.Getenv
}

func (o *RootOptions) getenv(key string) string {
	if o.Getenv == nil {
		return os.Getenv(key)
	}
	return o.Getenv(key)
}

func (o *RootOptions) registry() (*registry.Registry, error) {
	if o.Registry != nil {
		return o.Registry, nil
	}
	return registry.Builtin()
}

func (o *RootOptions) invoker() dispatch.Invoker {
	if o.Invoker != nil {
		return o.Invoker
	}
	return dispatch.PipelineInvoker{}
}

// NewRootCommand creates the idlgen command with production defaults.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the idlgen command around opts.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idlgen",
		Short: "Generate program clients from IDL",
		Long: `Generate Rust client code for a registered Solana program.

The project id selects the IDL file, the output directory and the program
metadata from the built-in registry. The metadata is written into the IDL
before generation, replacing any it already carries.

Environment:
  IDLGEN_DB       record each run in the SQLite ledger at this path
  IDLGEN_VERBOSE  set to 1 for debug logs

--project is the only generation flag. The projects and history
subcommands take their own flags; history's -p/--project only filters
the ledger listing.

Example:
  idlgen
  idlgen --project raydium-clmm
  idlgen -p lighthouse`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), isTruthy(opts.getenv(EnvVerbose)))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", DefaultProject, "project to generate")

	cmd.AddCommand(NewProjectsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}
