package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/vyperpp/internal/app"
	"github.com/specialistvlad/vyperpp/internal/cli"
	"github.com/specialistvlad/vyperpp/internal/hcl"
	"github.com/specialistvlad/vyperpp/internal/tempfs"
)

// main is the entrypoint for the vyperpp application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Staged files left behind by an interrupted compile are removed on exit.
	tempfs.SetGracefulCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	cleanupTempFiles(slog.Default())

	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, cli.Usage(exitErr))
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cleanupTempFiles removes staged files that were never released and logs
// any that could not be removed.
func cleanupTempFiles(logger *slog.Logger) {
	if err := tempfs.Cleanup(); err != nil {
		logger.Warn("Failed to remove temp files at exit.", "error", err)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Command output goes to outW, logs to logW.
func run(ctx context.Context, outW, logW io.Writer, args []string) (err error) {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean error to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	vyperpp := app.NewApp(logW, inv.Config, hcl.NewLoader())

	switch inv.Command {
	case cli.CommandCompile:
		summary, err := vyperpp.Compile(ctx, inv.Args)
		if err != nil {
			return err
		}
		fmt.Fprintf(outW, "Compiled %d Vyper source(s)", len(summary.Sources))
		if summary.Version != "" {
			fmt.Fprintf(outW, " with vyper %s", summary.Version)
		}
		fmt.Fprintln(outW)
		for _, file := range summary.Artifacts {
			fmt.Fprintf(outW, "  %s\n", file)
		}
		return nil
	case cli.CommandPreprocess:
		return vyperpp.Preprocess(ctx, inv.Args[0], outW)
	case cli.CommandConfig:
		enc := json.NewEncoder(outW)
		enc.SetIndent("", "  ")
		return enc.Encode(vyperpp.Project())
	default:
		return fmt.Errorf("unhandled command %q", inv.Command)
	}
}
