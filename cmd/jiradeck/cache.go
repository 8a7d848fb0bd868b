// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jiradeck/jiradeck/lib/codec"
	"github.com/jiradeck/jiradeck/lib/process"
)

func newCacheCommand(globals *globalOptions) *cobra.Command {
	command := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the persisted ticket cache",
	}
	command.AddCommand(newCacheInspectCommand(globals))
	return command
}

type inspectOptions struct {
	json bool
	raw  bool
}

func newCacheInspectCommand(globals *globalOptions) *cobra.Command {
	var options inspectOptions
	command := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the project's snapshot file",
		Long: `Reads the project's snapshot and reports where it is, when it was
written, how it is compressed, and what it holds. Exits 1 when there is
no usable snapshot; the viewer would start cold in that case.

--raw prints the undecoded file in CBOR diagnostic notation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if options.json && options.raw {
				return errors.New("--json and --raw are mutually exclusive")
			}
			return runCacheInspect(globals, options, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	command.Flags().BoolVar(&options.json, "json", false, "print the report as JSON")
	command.Flags().BoolVar(&options.raw, "raw", false, "print the file in CBOR diagnostic notation")
	return command
}

// inspectReport is the --json form of a snapshot description.
type inspectReport struct {
	Path        string    `json:"path"`
	Project     string    `json:"project,omitempty"`
	FileSize    int64     `json:"file_size"`
	Version     int       `json:"version,omitempty"`
	SavedAt     time.Time `json:"saved_at,omitzero"`
	Compression string    `json:"compression,omitempty"`
	PayloadSize int       `json:"payload_size,omitempty"`
	Tickets     int       `json:"tickets"`
	Epics       int       `json:"epics"`
	Members     int       `json:"members"`
	Error       string    `json:"error,omitempty"`
}

func runCacheInspect(globals *globalOptions, options inspectOptions, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(globals.configPath)
	if err != nil {
		return err
	}
	store, err := openSnapshots(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}

	if options.raw {
		data, err := store.Raw(cfg.Project)
		if err != nil {
			return missingSnapshot(stderr, store.Path(cfg.Project), err)
		}
		diagnostic, err := codec.Diagnose(data)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", store.Path(cfg.Project), err)
		}
		fmt.Fprintln(stdout, diagnostic)
		return nil
	}

	info, inspectErr := store.Inspect(cfg.Project)
	if errors.Is(inspectErr, fs.ErrNotExist) {
		return missingSnapshot(stderr, info.Path, inspectErr)
	}

	report := inspectReport{
		Path:        info.Path,
		Project:     info.Project,
		FileSize:    info.FileSize,
		Version:     info.Version,
		SavedAt:     info.SavedAt,
		PayloadSize: info.PayloadSize,
		Tickets:     info.Tickets,
		Epics:       info.Epics,
		Members:     info.Members,
	}
	if info.Version != 0 {
		report.Compression = info.Compression.String()
	}
	if inspectErr != nil {
		report.Error = inspectErr.Error()
	}

	if options.json {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(stdout, report)
	}
	if inspectErr != nil {
		return &process.ExitError{Code: 1}
	}
	return nil
}

func missingSnapshot(stderr io.Writer, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "no snapshot at %s\n", path)
		return &process.ExitError{Code: 1}
	}
	return err
}

func printReport(w io.Writer, report inspectReport) {
	fmt.Fprintf(w, "path:         %s\n", report.Path)
	fmt.Fprintf(w, "file size:    %d bytes\n", report.FileSize)
	if report.Version != 0 {
		fmt.Fprintf(w, "format:       version %d, %s\n", report.Version, report.Compression)
		fmt.Fprintf(w, "project:      %s\n", report.Project)
		fmt.Fprintf(w, "saved:        %s (%s ago)\n",
			report.SavedAt.Format(time.RFC3339), time.Since(report.SavedAt).Round(time.Second))
		fmt.Fprintf(w, "payload:      %d bytes\n", report.PayloadSize)
	}
	if report.Error != "" {
		fmt.Fprintf(w, "unusable:     %s\n", report.Error)
		return
	}
	fmt.Fprintf(w, "contents:     %d tickets, %d epics, %d members\n", report.Tickets, report.Epics, report.Members)
}

