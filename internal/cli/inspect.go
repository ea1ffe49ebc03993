package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weichx/FastExpressionCompiler/internal/irdoc"
	"github.com/weichx/FastExpressionCompiler/internal/light"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// InspectResult is the inspect command's payload.
type InspectResult struct {
	Name      string            `json:"name"`
	Source    string            `json:"source"`
	Variables map[string]string `json:"variables"`
	Nodes     int               `json:"nodes"`
	Dump      string            `json:"dump"`
}

func (r InspectResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s (%s): %d nodes\n", r.Name, r.Source, r.Nodes)
	sb.WriteString(strings.TrimSuffix(r.Dump, "\n"))
	return sb.String()
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <doc>",
		Short: "Print a document's tree with kinds and result types",
		Long: `Load a document and print its tree, one node per line, with each
node's kind and derived result type. Nothing is lowered.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, err := irdoc.Load(path, opts.Registry)
	if err != nil {
		return failDocument(formatter, err)
	}

	vars := make(map[string]string, len(doc.Variables))
	for _, name := range doc.VariableNames() {
		vars[name] = meta.TypeName(doc.Variables[name].SignatureType())
	}
	return formatter.Success(InspectResult{
		Name:      doc.Name,
		Source:    path,
		Variables: vars,
		Nodes:     light.Count(doc.Root).Nodes,
		Dump:      light.Dump(doc.Root),
	})
}
