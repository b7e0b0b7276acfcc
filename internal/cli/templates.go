package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/isldpipe/isldpipe/internal/template"
)

// TemplateList is the templates command's payload.
type TemplateList struct {
	Templates []string `json:"templates"`
}

func (t TemplateList) String() string {
	return strings.Join(t.Templates, "\n")
}

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "templates",
		Short:         "List the available report templates",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			return formatter.Success(TemplateList{Templates: template.NewRegistry().Names()})
		},
	}
}
