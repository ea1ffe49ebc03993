package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	LogLevel   string

	// Config is the loaded project config, or an empty one.
	Config *Config

	// Logger is built from LogLevel before any command runs.
	Logger *slog.Logger

	// Registry resolves type, constructor, method and property names in
	// documents.
	Registry *meta.Registry
}

// RootOption configures the root command.
type RootOption func(*RootOptions)

// WithRegistry sets the registry documents are resolved against.
func WithRegistry(reg *meta.Registry) RootOption {
	return func(o *RootOptions) {
		o.Registry = reg
	}
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the lexc CLI.
func NewRootCommand(options ...RootOption) *cobra.Command {
	opts := &RootOptions{
		Config:   &Config{},
		Logger:   slog.New(slog.DiscardHandler),
		Registry: meta.DefaultRegistry(),
	}
	for _, o := range options {
		o(opts)
	}

	cmd := &cobra.Command{
		Use:   "lexc",
		Short: "lexc - light expression compiler",
		Long: `Build expression trees from YAML or CUE documents, lower them into
canonical trees and inspect the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := opts.prepare(cmd)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: nearest "+ConfigFileName+")")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewLowerCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewShapeCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// prepare loads the config, applies it beneath explicit flags, validates
// the result and installs the logger.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	if err := o.loadConfig(); err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}

	flags := cmd.Flags()
	if o.Config.Format != "" && !flags.Changed("format") {
		o.Format = o.Config.Format
	}
	if o.Config.LogLevel != "" && !flags.Changed("log-level") {
		o.LogLevel = o.Config.LogLevel
	}

	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, "invalid format "+o.Format+": must be one of text, json")
	}

	logger, err := newLogger(o.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	o.Logger = logger
	return nil
}

func (o *RootOptions) loadConfig() error {
	if o.ConfigPath != "" {
		cfg, err := LoadConfig(o.ConfigPath)
		if err != nil {
			return err
		}
		o.Config = cfg
		return nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "locating config")
	}
	_, cfg, err := FindConfig(wd)
	if err != nil {
		return err
	}
	if cfg != nil {
		o.Config = cfg
	}
	return nil
}

// newLogger returns a text logger on w at the named level.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
