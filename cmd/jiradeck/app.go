// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/jiradeck/jiradeck/lib/config"
	"github.com/jiradeck/jiradeck/lib/jiracli"
	"github.com/jiradeck/jiradeck/lib/snapshot"
	"github.com/jiradeck/jiradeck/lib/ticketsync"
)

// loadConfig reads and validates the configuration. Commands that
// talk to Jira or the cache call this first.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w\nRun 'jiradeck config init' to write a starter file", err)
	}
	return cfg, nil
}

// openSnapshots returns the snapshot store configured by cfg.
func openSnapshots(cfg *config.Config, logger *slog.Logger) (*snapshot.Store, error) {
	return snapshot.New(snapshot.Options{
		Directory:   cfg.Cache.Directory,
		Compression: cfg.Compression(),
		Logger:      logger.With("component", "snapshot"),
	})
}

// newEngine wires the jira CLI adapter, the snapshot store, and the
// sync engine. The engine is not started.
func newEngine(cfg *config.Config, logger *slog.Logger) (*ticketsync.Engine, error) {
	if _, err := exec.LookPath(cfg.Jira.Binary); err != nil {
		return nil, fmt.Errorf("jira CLI %q not found: %w\nInstall it or set jira.binary in the config", cfg.Jira.Binary, err)
	}

	snapshots, err := openSnapshots(cfg, logger)
	if err != nil {
		return nil, err
	}

	client := jiracli.New(
		jiracli.NewExecRunner(cfg.Jira.Binary, cfg.Jira.Timeout),
		jiracli.Options{
			Project:         cfg.Project,
			Server:          cfg.Server,
			EpicConcurrency: cfg.Jira.EpicConcurrency,
			Logger:          logger.With("component", "jiracli"),
		},
	)

	return ticketsync.NewEngine(client, ticketsync.Config{
		Project:         cfg.Project,
		Me:              cfg.Me,
		Team:            cfg.TeamMembers(),
		Statuses:        cfg.StatusSet(),
		DoneWindow:      cfg.DoneWindow(),
		Workers:         cfg.Workers,
		QueryLimit:      cfg.QueryLimit,
		RefreshInterval: cfg.RefreshInterval,
		Snapshots:       snapshots,
		Logger:          logger.With("component", "sync"),
	})
}
