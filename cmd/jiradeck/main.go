// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// jiradeck is a terminal viewer for a Jira project's tickets. It keeps
// a local cache of the project, refreshes it in stages through the
// jira CLI, and applies changes optimistically while Jira catches up.
//
// Without a subcommand jiradeck opens the interactive viewer. The
// subcommands cover headless use:
//
//	jiradeck sync            refresh the cache and write the snapshot
//	jiradeck cache inspect   describe the persisted snapshot
//	jiradeck config init     write a starter configuration file
//	jiradeck config show     print the effective configuration
//	jiradeck version         print build information
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jiradeck/jiradeck/lib/config"
	"github.com/jiradeck/jiradeck/lib/process"
	"github.com/jiradeck/jiradeck/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logOutput  string
}

// AddFlags registers the global flags on flagSet.
func (globals *globalOptions) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&globals.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flagSet.StringVar(&globals.logOutput, "log-output", "", "also write JSON log records to this file")
}

func newRootCommand() *cobra.Command {
	globals := &globalOptions{}
	root := &cobra.Command{
		Use:   "jiradeck",
		Short: "Terminal viewer for a Jira project",
		Long: `jiradeck shows a Jira project's tickets grouped by person, status, and
epic. It starts from the cached snapshot of the last session, refreshes
in the background through the jira CLI, and applies moves, assignments,
comments, and edits immediately while they are sent to Jira.`,
		Version:       version.Info(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runViewer(cmd.Context(), globals)
		},
	}
	globals.AddFlags(root.PersistentFlags())

	root.AddCommand(
		newSyncCommand(globals),
		newCacheCommand(globals),
		newConfigCommand(globals),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("jiradeck " + version.Full() + "\n"))
			return err
		},
	}
}
