package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/weichx/FastExpressionCompiler/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Hash  string
	Limit int
}

// HistoryEntry is one stored materialization as shown by history.
type HistoryEntry struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Name       string `json:"name"`
	Source     string `json:"source"`
	RootKind   string `json:"root_kind"`
	ResultType string `json:"result_type"`
	Hash       string `json:"hash"`
	Nodes      int    `json:"nodes"`
	Variables  int    `json:"variables"`
}

// HistoryOutput is the history command's payload.
type HistoryOutput struct {
	Entries []HistoryEntry `json:"entries"`
}

func (o HistoryOutput) String() string {
	if len(o.Entries) == 0 {
		return "no materializations recorded"
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tNAME\tKIND\tTYPE\tNODES\tHASH")
	for _, e := range o.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", e.Seq, e.Name, e.RootKind, e.ResultType, e.Nodes, shortHash(e.Hash))
	}
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded materializations",
		Long: `List materializations recorded by lower --db, oldest first.
With --hash only records with that canonical hash are listed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "store path (default: config db)")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "only list records with this hash")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "list at most the n most recent records")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	db := opts.DB
	if db == "" {
		db = opts.Config.DB
	}
	if db == "" {
		return formatter.Fail(ExitCommandError, ErrCodeStore, errors.Newf("no store: pass --db or set db in %s", ConfigFileName))
	}

	s, err := store.Open(db)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err)
	}
	defer s.Close()

	var records []store.Materialization
	if opts.Hash != "" {
		records, err = s.FindByHash(cmd.Context(), opts.Hash)
		if err == nil && opts.Limit > 0 && len(records) > opts.Limit {
			records = records[len(records)-opts.Limit:]
		}
	} else {
		records, err = s.List(cmd.Context(), opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err)
	}

	out := HistoryOutput{Entries: make([]HistoryEntry, len(records))}
	for i, r := range records {
		out.Entries[i] = HistoryEntry{
			ID:         r.ID,
			Seq:        r.Seq,
			Name:       r.Name,
			Source:     r.Source,
			RootKind:   r.RootKind,
			ResultType: r.ResultType,
			Hash:       r.Hash,
			Nodes:      r.NodeCount,
			Variables:  r.VariableCount,
		}
	}
	return formatter.Success(out)
}
