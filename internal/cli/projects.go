package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ProjectInfo is one registry row as listed by the projects command.
type ProjectInfo struct {
	ID      string `json:"id" yaml:"id"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
	Input   string `json:"input" yaml:"input"`
	Output  string `json:"output" yaml:"output"`
	Address string `json:"address" yaml:"address"`
	Origin  string `json:"origin" yaml:"origin"`
}

// ProjectList renders as an aligned table in text format.
type ProjectList []ProjectInfo

func (l ProjectList) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tORIGIN\tADDRESS\tINPUT\tOUTPUT")
	for _, p := range l {
		id := p.ID
		if p.Default {
			id += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, p.Origin, p.Address, p.Input, p.Output)
	}
	tw.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// NewProjectsCommand creates the projects command.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List registered projects",
		Long: `List every project in the registry with its IDL input, output
directory and program metadata. The default project is marked with *.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(format) {
				return fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats)
			}
			return runProjects(rootOpts, format, cmd)
		},
	}

	cmd.Flags().StringVar(&format, "format", FormatText, "output format (text|json|yaml)")

	return cmd
}

func runProjects(opts *RootOptions, format string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}

	reg, err := opts.registry()
	if err != nil {
		return fail(formatter, errorCode(err, ErrCodeRegistry), err)
	}

	list := ProjectList{}
	for _, id := range reg.IDs() {
		req, err := reg.Resolve(id)
		if err != nil {
			return fail(formatter, errorCode(err, ErrCodeRegistry), err)
		}
		list = append(list, ProjectInfo{
			ID:      id,
			Default: id == reg.Default(),
			Input:   req.Entry.Input,
			Output:  req.Entry.Output,
			Address: req.Metadata.Address,
			Origin:  req.Metadata.Origin,
		})
	}
	return formatter.Success(list)
}
