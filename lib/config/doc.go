// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and saves the jiradeck configuration file.
//
// The file is YAML, by default at $XDG_CONFIG_HOME/jiradeck/config.yaml
// (see [DefaultPath]). [Load] reads it through viper, so every scalar
// key can be overridden from the environment: the key in upper case,
// dots replaced by underscores, prefixed with JIRADECK_. For example
// JIRADECK_PROJECT, JIRADECK_DONE_WINDOW_DAYS, JIRADECK_JIRA_TIMEOUT,
// and JIRADECK_CACHE_COMPRESSION.
//
// A missing file is not an error: the defaults plus any environment
// overrides are returned, and [Config.Validate] reports what is still
// required. [Save] writes the file atomically, which is how
// "jiradeck config init" produces a starter configuration.
//
// Key exports:
//
//   - [Config] with [Default], [Load], [Save], and [Config.Validate]
//   - [Config.TeamMembers] and [Config.StatusSet], the roster and
//     status classification derived from the file
package config
