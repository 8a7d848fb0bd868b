// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jiradeck/jiradeck/lib/config"
	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

type syncOptions struct {
	filters []string
}

func newSyncCommand(globals *globalOptions) *cobra.Command {
	var options syncOptions
	command := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the cache once and write the snapshot",
		Long: `Runs one full refresh cycle (active tickets, epics, recently done),
fetches details for every active ticket, and writes the snapshot the
viewer starts from. Useful from cron to keep startup instant.

With --filter, the named saved filters run after the refresh and their
tickets are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), globals, options, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	command.Flags().StringArrayVar(&options.filters, "filter", nil, "saved filter to run after the refresh (repeatable)")
	return command
}

func runSync(ctx context.Context, globals *globalOptions, options syncOptions, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(globals.configPath)
	if err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	var filters []jira.SavedFilter
	for _, name := range options.filters {
		filter, ok := cfg.Filter(name)
		if !ok {
			return fmt.Errorf("no saved filter named %q", name)
		}
		filters = append(filters, filter)
	}

	logger, closer, err := headlessLogger(stderr, level, globals.logOutput)
	if err != nil {
		return fmt.Errorf("cannot open log file %s: %w", globals.logOutput, err)
	}
	defer closer()

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer engine.Close()

	var failures int
	onNotice := func(notice ticketsync.Notice) {
		if logNotice(logger, notice) {
			failures++
		}
	}
	if err := engine.Run(ctx, onNotice); err != nil {
		return err
	}

	for _, filter := range filters {
		if err := engine.RunFilter(filter); err != nil {
			return fmt.Errorf("running filter %q: %w", filter.Name, err)
		}
	}
	if err := engine.Run(ctx, onNotice); err != nil {
		return err
	}

	printSyncSummary(stdout, cfg, engine)
	for _, filter := range filters {
		keys, _ := engine.FilterKeys(filter.Name)
		printFilter(stdout, filter, engine.View().TicketsIn(keys))
	}

	if failures > 0 {
		return fmt.Errorf("sync finished with %d error(s)", failures)
	}
	return nil
}

// logNotice writes an engine notice to the logger at its level and
// reports whether it was an error.
func logNotice(logger *slog.Logger, notice ticketsync.Notice) bool {
	attrs := []any{}
	if notice.Key != "" {
		attrs = append(attrs, "key", notice.Key)
	}
	if notice.Err != nil {
		attrs = append(attrs, "error", notice.Err)
	}
	switch notice.Level {
	case ticketsync.NoticeError:
		logger.Error(notice.Message, attrs...)
		return true
	case ticketsync.NoticeWarn:
		logger.Warn(notice.Message, attrs...)
	default:
		logger.Info(notice.Message, attrs...)
	}
	return false
}

func printSyncSummary(w io.Writer, cfg *config.Config, engine *ticketsync.Engine) {
	view := engine.View()
	counts := view.ClassCounts()
	fmt.Fprintf(w, "%s: %d tickets cached (%d active, %d done), %d epics\n",
		cfg.Project, view.Len(), counts[jira.ClassActive], counts[jira.ClassDone], len(view.Epics()))

	status := engine.Status()
	if !status.SnapshotSavedAt.IsZero() {
		fmt.Fprintf(w, "snapshot saved at %s\n", status.SnapshotSavedAt.Format("2006-01-02 15:04:05"))
	}
}

func printFilter(w io.Writer, filter jira.SavedFilter, tickets []jira.Ticket) {
	fmt.Fprintf(w, "\n%s (%d)\n", filter.Name, len(tickets))
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, ticket := range tickets {
		assignee := "-"
		if ticket.IsAssigned() {
			assignee = ticket.Assignee.String()
		}
		fmt.Fprintf(table, "  %s\t%s\t%s\t%s\n", ticket.Key, ticket.Status, assignee, ticket.Summary)
	}
	table.Flush()
}
