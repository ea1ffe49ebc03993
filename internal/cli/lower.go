package cli

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/weichx/FastExpressionCompiler/internal/canonical"
	"github.com/weichx/FastExpressionCompiler/internal/expr"
	"github.com/weichx/FastExpressionCompiler/internal/irdoc"
	"github.com/weichx/FastExpressionCompiler/internal/light"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
	"github.com/weichx/FastExpressionCompiler/internal/store"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	DB          string
	Parallelism int
}

// LowerResult describes one lowered document.
type LowerResult struct {
	Name          string `json:"name"`
	Source        string `json:"source"`
	RootKind      string `json:"root_kind"`
	ResultType    string `json:"result_type"`
	Hash          string `json:"hash"`
	Nodes         int    `json:"nodes"`
	Variables     int    `json:"variables"`
	Canonical     string `json:"canonical"`
	CanonicalJSON string `json:"-"`
	RecordID      string `json:"record_id,omitempty"`
	Seq           int64  `json:"seq,omitempty"`
}

func (r LowerResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s (%s)\n", r.Name, r.Source)
	fmt.Fprintf(&sb, "#   %s : %s\n", r.RootKind, r.ResultType)
	fmt.Fprintf(&sb, "#   nodes=%d variables=%d hash=%s\n", r.Nodes, r.Variables, r.Hash)
	if r.RecordID != "" {
		fmt.Fprintf(&sb, "#   recorded id=%s seq=%d\n", r.RecordID, r.Seq)
	}
	sb.WriteString(r.Canonical)
	return sb.String()
}

// LowerOutput is the lower command's payload.
type LowerOutput struct {
	Documents []LowerResult `json:"documents"`
}

func (o LowerOutput) String() string {
	parts := make([]string, len(o.Documents))
	for i, d := range o.Documents {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n\n")
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <doc>...",
		Short: "Lower documents into canonical trees",
		Long: `Load each document, build its tree, materialize it into the canonical
form, check variable scopes and hash the result.

Documents are processed concurrently; output follows argument order.
With --db every result is recorded in the store.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "record results in this store")
	cmd.Flags().IntVarP(&opts.Parallelism, "parallelism", "j", 0, "documents processed at once (default: config or GOMAXPROCS)")

	return cmd
}

func runLower(ctx context.Context, opts *LowerOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]LowerResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.parallelism())
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := lowerDocument(opts.RootOptions, path)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failDocument(formatter, err)
	}
	for i, r := range results {
		formatter.VerboseLog("lowered %s (%d nodes)", paths[i], r.Nodes)
	}

	if db := opts.dbPath(); db != "" {
		if err := recordResults(ctx, db, results); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err)
		}
	}

	return formatter.Success(LowerOutput{Documents: results})
}

func (o *LowerOptions) parallelism() int {
	switch {
	case o.Parallelism > 0:
		return o.Parallelism
	case o.Config.Parallelism > 0:
		return o.Config.Parallelism
	default:
		return runtime.GOMAXPROCS(0)
	}
}

func (o *LowerOptions) dbPath() string {
	if o.DB != "" {
		return o.DB
	}
	return o.Config.DB
}

// lowerDocument runs one document through load, materialize, scope check
// and hash.
func lowerDocument(opts *RootOptions, path string) (LowerResult, error) {
	doc, err := irdoc.Load(path, opts.Registry)
	if err != nil {
		return LowerResult{}, err
	}

	m := light.NewMaterializer(light.WithLogger(opts.Logger.With("document", doc.Name)))
	out, err := m.Materialize(doc.Root)
	if err != nil {
		return LowerResult{}, errors.Wrapf(err, "%s", path)
	}
	if err := expr.CheckScopes(out); err != nil {
		return LowerResult{}, errors.Wrapf(err, "%s", path)
	}

	hash, err := expr.Hash(out)
	if err != nil {
		return LowerResult{}, errors.Wrapf(err, "%s: hashing", path)
	}
	encoded, err := canonical.Marshal(expr.Encode(out))
	if err != nil {
		return LowerResult{}, errors.Wrapf(err, "%s: encoding", path)
	}

	counts := light.Count(doc.Root)
	opts.Logger.Info("lowered document",
		"document", doc.Name,
		"kind", doc.Root.Kind().String(),
		"nodes", counts.Nodes,
		"hash", hash)

	return LowerResult{
		Name:          doc.Name,
		Source:        path,
		RootKind:      doc.Root.Kind().String(),
		ResultType:    meta.TypeName(out.Type()),
		Hash:          hash,
		Nodes:         counts.Nodes,
		Variables:     counts.Variables,
		Canonical:     expr.Format(out),
		CanonicalJSON: string(encoded),
	}, nil
}

// recordResults stores results in argument order so seq follows the
// command line.
func recordResults(ctx context.Context, path string, results []LowerResult) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	for i := range results {
		r := &results[i]
		rec, err := s.Record(ctx, store.Materialization{
			Name:          r.Name,
			Source:        r.Source,
			RootKind:      r.RootKind,
			ResultType:    r.ResultType,
			Hash:          r.Hash,
			CanonicalJSON: r.CanonicalJSON,
			NodeCount:     r.Nodes,
			VariableCount: r.Variables,
		})
		if err != nil {
			return err
		}
		r.RecordID, r.Seq = rec.ID, rec.Seq
	}
	return nil
}

// failDocument classifies a document error into an error code and exit
// code and reports it.
func failDocument(f *OutputFormatter, err error) error {
	var (
		docErr   *irdoc.Error
		scopeErr *expr.ScopeError
	)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f.Fail(ExitCommandError, ErrCodeNotFound, err)
	case light.IsUnsupportedArity(err):
		return f.Fail(ExitFailure, ErrCodeArity, err)
	case errors.As(err, &scopeErr):
		return f.Fail(ExitFailure, ErrCodeScope, err)
	case errors.As(err, &docErr):
		return f.Fail(ExitFailure, ErrCodeInvalidDocument, err)
	default:
		return f.Fail(ExitFailure, ErrCodeLowering, err)
	}
}
