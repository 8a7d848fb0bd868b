// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/snapshot"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JIRADECK"

// Config is the jiradeck configuration file.
type Config struct {
	// Project is the Jira project key ("AMP"). Required.
	Project string `yaml:"project" mapstructure:"project"`

	// TeamName labels the Team view.
	TeamName string `yaml:"team_name,omitempty" mapstructure:"team_name"`

	// Server is the Jira base URL, used to build browse links. The
	// jira command has its own copy in its configuration.
	Server string `yaml:"server,omitempty" mapstructure:"server"`

	// Me is the current user. When empty, jiradeck asks the jira
	// command at startup.
	Me jira.TeamMember `yaml:"me,omitempty" mapstructure:"me"`

	// DoneWindowDays bounds the recently-done query.
	DoneWindowDays int `yaml:"done_window_days" mapstructure:"done_window_days"`

	// RefreshInterval starts a refresh periodically. Zero refreshes
	// only at startup and on demand.
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty" mapstructure:"refresh_interval"`

	// QueryLimit caps each list query. Zero uses the jira command's
	// default page.
	QueryLimit int `yaml:"query_limit,omitempty" mapstructure:"query_limit"`

	// Workers bounds concurrent detail fetches and mutations.
	Workers int `yaml:"workers" mapstructure:"workers"`

	Statuses StatusConfig `yaml:"statuses" mapstructure:"statuses"`

	// Resolutions are offered when moving a ticket to a done status.
	Resolutions []string `yaml:"resolutions" mapstructure:"resolutions"`

	Filters []jira.SavedFilter `yaml:"filters,omitempty" mapstructure:"filters"`

	// Team is the roster. Members without an email are ignored.
	Team []jira.TeamMember `yaml:"team,omitempty" mapstructure:"team"`

	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`
	Jira  JiraConfig  `yaml:"jira" mapstructure:"jira"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// StatusConfig names the active and done workflow columns.
type StatusConfig struct {
	Active []string `yaml:"active" mapstructure:"active"`
	Done   []string `yaml:"done" mapstructure:"done"`
}

// CacheConfig configures the persisted snapshot.
type CacheConfig struct {
	// Directory holds one snapshot per project.
	Directory string `yaml:"directory" mapstructure:"directory"`

	// Compression is "none", "lz4", or "zstd".
	Compression string `yaml:"compression" mapstructure:"compression"`
}

// JiraConfig configures the jira command jiradeck drives.
type JiraConfig struct {
	// Binary is the command name or path.
	Binary string `yaml:"binary" mapstructure:"binary"`

	// Timeout bounds each invocation.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// EpicConcurrency bounds the parallel child queries of an epic
	// fetch.
	EpicConcurrency int `yaml:"epic_concurrency,omitempty" mapstructure:"epic_concurrency"`
}

// LogConfig configures diagnostics.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultResolutions are the resolutions offered when none are
// configured.
var DefaultResolutions = []string{
	"Done",
	"Duplicate",
	"Won't Do",
	"Cannot Reproduce",
	"Community Answered",
	"Declined",
	"Fixed",
	"Gone away",
	"Incomplete",
	"Won't Fix",
	"Works as Designed",
}

// Default returns the configuration used for every key the file and
// the environment leave unset. Project is empty and must be supplied.
func Default() *Config {
	return &Config{
		DoneWindowDays: 14,
		Workers:        6,
		Statuses: StatusConfig{
			Active: slices.Clone(jira.DefaultActiveStatuses),
			Done:   slices.Clone(jira.DefaultDoneStatuses),
		},
		Resolutions: slices.Clone(DefaultResolutions),
		Cache: CacheConfig{
			Directory:   DefaultCacheDir(),
			Compression: snapshot.CompressionZstd.String(),
		},
		Jira: JiraConfig{
			Binary:          "jira",
			Timeout:         30 * time.Second,
			EpicConcurrency: 4,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/jiradeck/config.yaml, or a
// relative config.yaml when no config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "jiradeck", "config.yaml")
}

// DefaultCacheDir returns $XDG_CACHE_HOME/jiradeck.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".cache", "jiradeck")
	}
	return filepath.Join(dir, "jiradeck")
}

// Load reads the configuration at path (DefaultPath when empty) and
// applies JIRADECK_* environment overrides. A missing file yields the
// defaults; a malformed one is an error. The result is not validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// setDefaults registers every key with viper. AutomaticEnv only
// consults the environment for keys viper already knows.
func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("project", defaults.Project)
	v.SetDefault("team_name", defaults.TeamName)
	v.SetDefault("server", defaults.Server)
	v.SetDefault("me.name", defaults.Me.Name)
	v.SetDefault("me.email", defaults.Me.Email)
	v.SetDefault("done_window_days", defaults.DoneWindowDays)
	v.SetDefault("refresh_interval", defaults.RefreshInterval)
	v.SetDefault("query_limit", defaults.QueryLimit)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("statuses.active", defaults.Statuses.Active)
	v.SetDefault("statuses.done", defaults.Statuses.Done)
	v.SetDefault("resolutions", defaults.Resolutions)
	v.SetDefault("cache.directory", defaults.Cache.Directory)
	v.SetDefault("cache.compression", defaults.Cache.Compression)
	v.SetDefault("jira.binary", defaults.Jira.Binary)
	v.SetDefault("jira.timeout", defaults.Jira.Timeout)
	v.SetDefault("jira.epic_concurrency", defaults.Jira.EpicConcurrency)
	v.SetDefault("log.level", defaults.Log.Level)
}

// Save writes cfg to path (DefaultPath when empty), creating the
// directory if needed. The file is replaced atomically.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := atomic.WriteFile(path, &buffer); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for errors. Every problem is
// reported, joined.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Project) == "" {
		errs = append(errs, fmt.Errorf("project is required (set it in the config file or %s_PROJECT)", EnvPrefix))
	}
	if c.DoneWindowDays <= 0 {
		errs = append(errs, fmt.Errorf("done_window_days must be positive, got %d", c.DoneWindowDays))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.QueryLimit < 0 {
		errs = append(errs, fmt.Errorf("query_limit must not be negative, got %d", c.QueryLimit))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("refresh_interval must not be negative, got %s", c.RefreshInterval))
	}
	if c.Jira.Binary == "" {
		errs = append(errs, errors.New("jira.binary is required"))
	}
	if c.Jira.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("jira.timeout must be positive, got %s", c.Jira.Timeout))
	}
	if c.Jira.EpicConcurrency < 0 {
		errs = append(errs, fmt.Errorf("jira.epic_concurrency must not be negative, got %d", c.Jira.EpicConcurrency))
	}
	if c.Cache.Directory == "" {
		errs = append(errs, errors.New("cache.directory is required"))
	}
	if _, err := snapshot.ParseCompression(c.Cache.Compression); err != nil {
		errs = append(errs, fmt.Errorf("cache.compression: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Statuses.Active) == 0 {
		errs = append(errs, errors.New("statuses.active must name at least one status"))
	}
	if len(c.Statuses.Done) == 0 {
		errs = append(errs, errors.New("statuses.done must name at least one status"))
	}
	done := make(map[jira.Status]string, len(c.Statuses.Done))
	for _, name := range c.Statuses.Done {
		done[jira.ParseStatus(name)] = name
	}
	for _, name := range c.Statuses.Active {
		if other, overlap := done[jira.ParseStatus(name)]; overlap {
			errs = append(errs, fmt.Errorf("status %q is both active and done (as %q)", name, other))
		}
	}

	for index, filter := range c.Filters {
		if filter.Name == "" || strings.TrimSpace(filter.JQL) == "" {
			errs = append(errs, fmt.Errorf("filters[%d]: name and jql are required", index))
		}
	}

	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// TeamMembers returns the roster in file order, deduplicated by email
// (case-insensitively). Members without an email are dropped.
func (c *Config) TeamMembers() []jira.TeamMember {
	seen := make(map[string]struct{}, len(c.Team))
	var members []jira.TeamMember
	for _, member := range c.Team {
		email := strings.TrimSpace(member.Email)
		if email == "" {
			continue
		}
		folded := strings.ToLower(email)
		if _, duplicate := seen[folded]; duplicate {
			continue
		}
		seen[folded] = struct{}{}
		members = append(members, jira.TeamMember{Name: strings.TrimSpace(member.Name), Email: email})
	}
	return members
}

// StatusSet returns the configured status classification.
func (c *Config) StatusSet() jira.StatusSet {
	return jira.NewStatusSet(c.Statuses.Active, c.Statuses.Done)
}

// DoneWindow returns DoneWindowDays as a duration.
func (c *Config) DoneWindow() time.Duration {
	return time.Duration(c.DoneWindowDays) * 24 * time.Hour
}

// Compression returns the parsed snapshot compression. Call Validate
// first; an invalid name yields snapshot.CompressionNone.
func (c *Config) Compression() snapshot.Compression {
	compression, err := snapshot.ParseCompression(c.Cache.Compression)
	if err != nil {
		return snapshot.CompressionNone
	}
	return compression
}

// Filter returns the saved filter with the given name.
func (c *Config) Filter(name string) (jira.SavedFilter, bool) {
	for _, filter := range c.Filters {
		if filter.Name == name {
			return filter, true
		}
	}
	return jira.SavedFilter{}, false
}
