// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/jiradeck/jiradeck/lib/config"
)

func newConfigCommand(globals *globalOptions) *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Create or show the configuration file",
	}
	command.AddCommand(newConfigInitCommand(globals), newConfigShowCommand(globals))
	return command
}

type configInitOptions struct {
	project string
	force   bool
}

func newConfigInitCommand(globals *globalOptions) *cobra.Command {
	var options configInitOptions
	command := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Writes the default configuration with the given project key. When
--project is omitted and stdin is a terminal, the key is asked for.
An existing file is left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(globals, options, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	command.Flags().StringVar(&options.project, "project", "", "Jira project key")
	command.Flags().BoolVar(&options.force, "force", false, "overwrite an existing file")
	return command
}

func runConfigInit(globals *globalOptions, options configInitOptions, stdin io.Reader, stdout io.Writer) error {
	path := globals.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !options.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	project := strings.TrimSpace(options.project)
	if project == "" && isTerminal(stdin) {
		fmt.Fprint(stdout, "Jira project key: ")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading project key: %w", err)
		}
		project = strings.TrimSpace(line)
	}

	cfg := config.Default()
	cfg.Project = strings.ToUpper(project)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func newConfigShowCommand(globals *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Prints the configuration after defaults and JIRADECK_* environment
overrides are applied, as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(globals.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(cfg); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
}
