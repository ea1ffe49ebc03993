package cli

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/weichx/FastExpressionCompiler/internal/light"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// ShapeOptions holds flags for the shape command.
type ShapeOptions struct {
	*RootOptions
	Returns string
}

// ShapeResult is the shape command's payload.
type ShapeResult struct {
	Shape string `json:"shape"`
	Arity int    `json:"arity"`
	Type  string `json:"type"`
}

func (r ShapeResult) String() string {
	return fmt.Sprintf("%s %s", r.Shape, r.Type)
}

// NewShapeCommand creates the shape command.
func NewShapeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShapeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shape [param-type...]",
		Short: "Resolve the signature shape for parameter and result types",
		Long: `Resolve the generic shape a lambda with the given parameter types and
result type instantiates. Without --returns the shape is an Action.`,
		Example: `  lexc shape int string --returns bool
  lexc shape "[]int"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShape(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Returns, "returns", "r", "", "result type (default: void)")

	return cmd
}

func runShape(opts *ShapeOptions, names []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	params := make([]reflect.Type, len(names))
	for i, name := range names {
		t, err := opts.Registry.Type(name)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeUnsupportedType, err)
		}
		params[i] = t
	}
	ret := meta.VoidType
	if opts.Returns != "" {
		t, err := opts.Registry.Type(opts.Returns)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeUnsupportedType, err)
		}
		ret = t
	}

	shape, err := light.ShapeOf(len(params), ret)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeArity, err)
	}
	sig, err := shape.Instantiate(params, ret)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeArity, err)
	}
	return formatter.Success(ShapeResult{
		Shape: shape.String(),
		Arity: shape.Arity,
		Type:  meta.TypeName(sig),
	})
}
