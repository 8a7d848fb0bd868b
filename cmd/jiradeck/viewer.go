// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jiradeck/jiradeck/lib/config"
	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketui"
)

// runViewer runs the interactive viewer until the user quits or ctx is
// cancelled.
//
// Background logging (refresh stages, hydration, snapshot writes) is
// routed through a TUILogHandler that shows warnings and errors in the
// status bar instead of writing to stderr, which would corrupt the
// alt-screen display. --log-output additionally captures every record
// to a JSON file.
func runViewer(ctx context.Context, globals *globalOptions) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("the viewer needs a terminal; use 'jiradeck sync' for headless refreshes")
	}

	cfg, err := loadConfig(globals.configPath)
	if err != nil {
		return err
	}

	tuiHandler := ticketui.NewTUILogHandler(slog.LevelWarn)
	var handler slog.Handler = tuiHandler
	if globals.logOutput != "" {
		fileHandler, closer, err := openFileLogHandler(globals.logOutput)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", globals.logOutput, err)
		}
		defer closer()
		handler = fanoutHandler{tuiHandler, fileHandler}
	}
	logger := slog.New(handler)

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer engine.Close()

	model := ticketui.NewModel(engine, ticketui.Options{
		Filters:     cfg.Filters,
		Resolutions: cfg.Resolutions,
		SaveFilters: func(filters []jira.SavedFilter) error {
			previous := cfg.Filters
			cfg.Filters = filters
			if err := config.Save(cfg, globals.configPath); err != nil {
				cfg.Filters = previous
				return err
			}
			logger.Info("saved filters", "count", len(filters))
			return nil
		},
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	tuiHandler.SetProgram(program)

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
