// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set by main, overridable at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMAND TREE
// =============================================================================

// streams are the process standard streams, replaceable in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	config   string
	logLevel string
	color    string
}

func (g *globalFlags) options(logs io.Writer) Options {
	return Options{
		LogWriter:  logs,
		ConfigPath: g.config,
		LogLevel:   g.logLevel,
		Color:      g.color,
	}
}

// newRootCmd builds the command tree. Running the root command starts an
// interactive session.
func newRootCmd(s streams) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "wizard",
		Short: "wizard is an interactive JSON-aware command shell",
		Long: `wizard reads commands line by line, keeps a bounded history and works on
JSON documents: parse them, keep them in variables, query and save them, and
look up Paper builds and GitHub releases for a Skript server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          noArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.color != "" {
				switch strings.ToLower(flags.color) {
				case "auto", "always", "never":
				default:
					return &UsageError{Err: fmt.Errorf("invalid --color %q: must be auto, always or never", flags.color)}
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), flags.options(s.err), s)
		},
	}
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "config file (default: ~/.skript-wizard/config.{toml,json,yaml})")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&flags.color, "color", "", "color output: auto, always or never")

	root.AddCommand(newServeCmd(flags, s))
	root.AddCommand(newVersionCmd(s))
	root.AddCommand(newDoctorCmd(flags, s))
	return root
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &UsageError{Err: fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}

// runInteractive builds the App and runs one session on the process
// streams.
func runInteractive(ctx context.Context, opts Options, s streams) error {
	app, err := NewApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		if err := app.WatchConfig(watchCtx); err != nil {
			app.Logger.Warn("config watcher stopped", "error", err)
		}
	}()

	err = app.RunLocal(ctx, s.in, s.out, Version)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// =============================================================================
// ENTRY POINT
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func run(ctx context.Context, args []string, s streams) int {
	root := newRootCmd(s)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return HandleError(s.err, err)
	}
	return ExitSuccess
}
