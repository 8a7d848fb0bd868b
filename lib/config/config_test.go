// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/snapshot"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DoneWindowDays != 14 {
		t.Errorf("expected done_window_days=14, got %d", cfg.DoneWindowDays)
	}
	if cfg.Workers != 6 {
		t.Errorf("expected workers=6, got %d", cfg.Workers)
	}
	if len(cfg.Statuses.Active) != 6 || cfg.Statuses.Active[0] != "Needs Triage" {
		t.Errorf("unexpected active statuses %v", cfg.Statuses.Active)
	}
	if !slices.Equal(cfg.Statuses.Done, []string{"Done", "Closed"}) {
		t.Errorf("unexpected done statuses %v", cfg.Statuses.Done)
	}
	if len(cfg.Resolutions) != 11 {
		t.Errorf("expected 11 default resolutions, got %d", len(cfg.Resolutions))
	}
	if cfg.Jira.Binary != "jira" || cfg.Jira.Timeout != 30*time.Second {
		t.Errorf("unexpected jira defaults %+v", cfg.Jira)
	}

	// Everything but the project is valid out of the box.
	cfg.Project = "AMP"
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config with a project is invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
project: AMP
team_name: Code Generation
server: https://example.atlassian.net
done_window_days: 30
refresh_interval: 5m
statuses:
  active: [To Do, Doing]
  done: [Done]
filters:
  - name: My bugs
    jql: type = Bug AND assignee = currentUser()
team:
  - name: Alice
    email: alice@example.com
  - name: Bruno
    email: bruno@example.com
cache:
  compression: lz4
jira:
  timeout: 45s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Project != "AMP" || cfg.TeamName != "Code Generation" {
		t.Errorf("unexpected project fields %q %q", cfg.Project, cfg.TeamName)
	}
	if cfg.DoneWindowDays != 30 || cfg.DoneWindow() != 30*24*time.Hour {
		t.Errorf("expected a 30 day window, got %d", cfg.DoneWindowDays)
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Errorf("expected refresh_interval=5m, got %s", cfg.RefreshInterval)
	}
	if !slices.Equal(cfg.Statuses.Active, []string{"To Do", "Doing"}) {
		t.Errorf("unexpected active statuses %v", cfg.Statuses.Active)
	}
	if len(cfg.Filters) != 1 || cfg.Filters[0].Name != "My bugs" {
		t.Errorf("unexpected filters %+v", cfg.Filters)
	}
	if len(cfg.Team) != 2 || cfg.Team[1].Name != "Bruno" {
		t.Errorf("unexpected team %+v", cfg.Team)
	}
	if cfg.Compression() != snapshot.CompressionLZ4 {
		t.Errorf("expected lz4 compression, got %s", cfg.Compression())
	}
	if cfg.Jira.Timeout != 45*time.Second {
		t.Errorf("expected jira.timeout=45s, got %s", cfg.Jira.Timeout)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Workers != 6 || cfg.Jira.Binary != "jira" || cfg.Log.Level != "info" {
		t.Errorf("defaults lost: workers=%d binary=%q level=%q", cfg.Workers, cfg.Jira.Binary, cfg.Log.Level)
	}
	if len(cfg.Resolutions) != len(DefaultResolutions) {
		t.Errorf("expected default resolutions, got %v", cfg.Resolutions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "project: AMP\ndone_window_days: 30\n")
	t.Setenv("JIRADECK_PROJECT", "OPS")
	t.Setenv("JIRADECK_DONE_WINDOW_DAYS", "7")
	t.Setenv("JIRADECK_JIRA_BINARY", "/opt/jira")
	t.Setenv("JIRADECK_CACHE_COMPRESSION", "none")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Project != "OPS" {
		t.Errorf("expected JIRADECK_PROJECT to win, got %q", cfg.Project)
	}
	if cfg.DoneWindowDays != 7 {
		t.Errorf("expected JIRADECK_DONE_WINDOW_DAYS to win, got %d", cfg.DoneWindowDays)
	}
	if cfg.Jira.Binary != "/opt/jira" {
		t.Errorf("expected nested override, got %q", cfg.Jira.Binary)
	}
	if cfg.Compression() != snapshot.CompressionNone {
		t.Errorf("expected no compression, got %s", cfg.Compression())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("JIRADECK_PROJECT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("a missing file should yield defaults, got %v", err)
	}
	if cfg.Workers != 6 {
		t.Errorf("expected defaults, got workers=%d", cfg.Workers)
	}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "project is required") {
		t.Errorf("expected a missing project error, got %v", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "project: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Project = "AMP"
	cfg.TeamName = "Code Generation"
	cfg.Me = jira.TeamMember{Name: "Alice", Email: "alice@example.com"}
	cfg.Team = []jira.TeamMember{{Name: "Bruno", Email: "bruno@example.com"}}
	cfg.Filters = []jira.SavedFilter{{Name: "Blocked", JQL: `status = "Blocked"`}}
	cfg.Jira.Timeout = 2 * time.Minute

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timeout: 2m0s") {
		t.Errorf("expected durations written as text, got:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Project != "AMP" || loaded.Me != cfg.Me {
		t.Errorf("round trip lost identity fields: %+v", loaded)
	}
	if len(loaded.Team) != 1 || loaded.Team[0] != cfg.Team[0] {
		t.Errorf("round trip lost the team: %+v", loaded.Team)
	}
	if len(loaded.Filters) != 1 || loaded.Filters[0] != cfg.Filters[0] {
		t.Errorf("round trip lost filters: %+v", loaded.Filters)
	}
	if loaded.Jira.Timeout != 2*time.Minute {
		t.Errorf("round trip lost jira.timeout: %s", loaded.Jira.Timeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"empty project", func(c *Config) { c.Project = " " }, "project is required"},
		{"zero window", func(c *Config) { c.DoneWindowDays = 0 }, "done_window_days must be positive"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers must be positive"},
		{"negative limit", func(c *Config) { c.QueryLimit = -1 }, "query_limit"},
		{"bad compression", func(c *Config) { c.Cache.Compression = "brotli" }, "cache.compression"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"no timeout", func(c *Config) { c.Jira.Timeout = 0 }, "jira.timeout"},
		{"no done statuses", func(c *Config) { c.Statuses.Done = nil }, "statuses.done"},
		{"overlapping statuses", func(c *Config) { c.Statuses.Active = append(c.Statuses.Active, "closed") }, `"closed" is both active and done`},
		{"unnamed filter", func(c *Config) { c.Filters = []jira.SavedFilter{{JQL: "x"}} }, "filters[0]"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.Project = "AMP"
			test.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("expected error containing %q, got %v", test.want, err)
			}
		})
	}
}

func TestTeamMembers(t *testing.T) {
	cfg := Default()
	cfg.Team = []jira.TeamMember{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "No Email"},
		{Name: "Alice Again", Email: "ALICE@example.com"},
		{Name: " Bruno ", Email: " bruno@example.com "},
	}
	want := []jira.TeamMember{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bruno", Email: "bruno@example.com"},
	}
	if got := cfg.TeamMembers(); !slices.Equal(got, want) {
		t.Errorf("TeamMembers() = %+v, want %+v", got, want)
	}
}

func TestStatusSet(t *testing.T) {
	cfg := Default()
	set := cfg.StatusSet()
	if set.Classify(jira.ParseStatus("closed")) != jira.ClassDone {
		t.Error("expected closed to classify as done")
	}
	if set.Classify(jira.ParseStatus("In Review")) != jira.ClassActive {
		t.Error("expected In Review to classify as active")
	}
	if set.Classify(jira.OtherStatus("QA Hold")) != jira.ClassUnrecognized {
		t.Error("expected an unknown status to be unrecognized")
	}
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, %v", level, err)
	}
}

func TestFilter(t *testing.T) {
	cfg := Default()
	cfg.Filters = []jira.SavedFilter{{Name: "bugs", JQL: "type = Bug"}}
	if filter, ok := cfg.Filter("bugs"); !ok || filter.JQL != "type = Bug" {
		t.Errorf("Filter(bugs) = %+v, %v", filter, ok)
	}
	if _, ok := cfg.Filter("nope"); ok {
		t.Error("expected no filter named nope")
	}
}
