package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/vyperpp/internal/app"
	"github.com/spf13/cobra"
)

// Version is reported by --version. It is set at build time.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Command names a subcommand.
type Command string

// Subcommands.
const (
	CommandCompile    Command = "compile"
	CommandPreprocess Command = "preprocess"
	CommandConfig     Command = "config"
)

// Invocation is a parsed command line.
type Invocation struct {
	Command Command
	// Args are the positional arguments, made absolute.
	Args   []string
	Config *app.Config
}

// Parse processes command-line arguments. It returns the parsed Invocation,
// a boolean indicating if the program should exit cleanly (help, version or
// no subcommand), or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		inv         *Invocation
		root        string
		configPaths []string
		logFormat   string
		logLevel    string
	)

	record := func(command Command) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, positional []string) error {
			abs := make([]string, len(positional))
			for i, p := range positional {
				a, err := filepath.Abs(p)
				if err != nil {
					return err
				}
				abs[i] = a
			}
			inv = &Invocation{Command: command, Args: abs}
			return nil
		}
	}

	rootCmd := &cobra.Command{
		Use:   "vyperpp",
		Short: "Compile Vyper contracts with C-style preprocessing",
		Long: `vyperpp preprocesses Vyper sources (#define, #include, #ifdef, ...) and
compiles the result with the vyper compiler. Artifacts are keyed by the
original source paths, so the preprocessing step is invisible downstream.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slog.Debug("No subcommand provided, printing usage and exiting.")
			return cmd.Help()
		},
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(output)
	rootCmd.SetErr(output)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&root, "root", ".", "Project root directory.")
	flags.StringSliceVarP(&configPaths, "config", "c", []string{app.DefaultConfigFile}, "Configuration file or directory, relative to the root. May be repeated.")
	flags.StringVar(&logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "compile [sources...]",
			Short: "Preprocess and compile Vyper sources, writing artifacts",
			Long:  "Compiles the given sources, or every .vy file under paths.sources when none are given.",
			RunE:  record(CommandCompile),
		},
		&cobra.Command{
			Use:   "preprocess <source>",
			Short: "Print a Vyper source after preprocessing",
			Args:  cobra.ExactArgs(1),
			RunE:  record(CommandPreprocess),
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the resolved project configuration",
			Args:  cobra.NoArgs,
			RunE:  record(CommandConfig),
		},
	)

	if err := rootCmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if inv == nil {
		return nil, true, nil
	}
	slog.Debug("Arguments parsed successfully.", "command", inv.Command)

	cfg, err := app.NewConfig(app.Config{
		Root:        root,
		ConfigPaths: configPaths,
		LogFormat:   strings.ToLower(logFormat),
		LogLevel:    strings.ToLower(logLevel),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	inv.Config = cfg

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return inv, false, nil
}

// Usage returns the error message for a failed command in the form the
// caller prints to stderr.
func Usage(err error) string {
	return fmt.Sprintf("Error: %v\nRun 'vyperpp --help' for usage.", err)
}
