// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/jiradeck/jiradeck/lib/clock"
	"github.com/jiradeck/jiradeck/lib/codec"
	"github.com/jiradeck/jiradeck/lib/ticketcache"
)

// FormatVersion is the snapshot layout this build reads and writes.
// Bump it whenever ticketcache.Contents or the envelope changes shape
// incompatibly; older files then load as "no snapshot".
const FormatVersion = 1

// envelope is the outer CBOR record of a snapshot file.
type envelope struct {
	Version     int         `cbor:"version"`
	Project     string      `cbor:"project"`
	SavedAt     time.Time   `cbor:"saved_at"`
	Compression Compression `cbor:"compression"`
	Size        int         `cbor:"size"`
	Checksum    []byte      `cbor:"checksum"`
	Payload     []byte      `cbor:"payload"`
}

// Options configures a Store.
type Options struct {
	// Directory holds one snapshot file per project. Created on first
	// save.
	Directory string

	// Compression applied to new snapshots. Any supported algorithm
	// can be read regardless of this setting.
	Compression Compression

	Clock  clock.Clock
	Logger *slog.Logger
}

// Store reads and writes project snapshots. Safe for concurrent use:
// it holds no mutable state, and each save replaces its file
// atomically.
type Store struct {
	directory   string
	compression Compression
	clock       clock.Clock
	logger      *slog.Logger
}

// New returns a Store rooted at options.Directory.
func New(options Options) (*Store, error) {
	if options.Directory == "" {
		return nil, errors.New("snapshot: directory is required")
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		directory:   options.Directory,
		compression: options.Compression,
		clock:       options.Clock,
		logger:      options.Logger,
	}, nil
}

// Path returns the snapshot file for a project.
func (store *Store) Path(project string) string {
	return filepath.Join(store.directory, fileName(project))
}

// Save writes snapshot as the project's current snapshot. Nothing is
// written once ctx is done, so a save racing application shutdown
// leaves the previous file in place.
func (store *Store) Save(ctx context.Context, project string, snapshot *ticketcache.Snapshot) error {
	path := store.Path(project)
	fail := func(err error) error {
		return &PersistenceError{Operation: "save", Path: path, Err: err}
	}

	payload, err := codec.Marshal(snapshot.Contents())
	if err != nil {
		return fail(fmt.Errorf("encoding contents: %w", err))
	}
	compressed, applied, err := compress(payload, store.compression)
	if err != nil {
		return fail(err)
	}
	data, err := codec.Marshal(envelope{
		Version:     FormatVersion,
		Project:     project,
		SavedAt:     store.clock.Now().UTC(),
		Compression: applied,
		Size:        len(payload),
		Checksum:    checksum(payload),
		Payload:     compressed,
	})
	if err != nil {
		return fail(fmt.Errorf("encoding envelope: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(store.directory, 0o700); err != nil {
		return fail(err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fail(err)
	}

	store.logger.Debug("snapshot saved",
		"project", project,
		"path", path,
		"tickets", snapshot.Len(),
		"bytes", len(data),
		"compression", applied.String(),
	)
	return nil
}

// Loaded is a snapshot read back from disk.
type Loaded struct {
	Contents ticketcache.Contents
	SavedAt  time.Time
}

// Age returns how long ago the snapshot was written.
func (loaded Loaded) Age(now time.Time) time.Duration {
	return now.Sub(loaded.SavedAt)
}

// Load reads the project's snapshot. The second result is false when
// there is no usable snapshot; the reason is logged, never returned.
func (store *Store) Load(project string) (Loaded, bool) {
	path := store.Path(project)
	header, contents, err := store.read(project)
	if err != nil {
		var schemaErr *SchemaError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			store.logger.Debug("no snapshot, starting cold", "project", project, "path", path)
		case errors.As(err, &schemaErr):
			store.logger.Info("snapshot format changed, starting cold",
				"project", project,
				"found_version", schemaErr.Found,
				"expected_version", schemaErr.Expected,
			)
		default:
			store.logger.Warn("ignoring unreadable snapshot", "project", project, "error", err)
		}
		return Loaded{}, false
	}
	return Loaded{Contents: contents, SavedAt: header.SavedAt}, true
}

// Info describes a snapshot file without loading it into a cache.
type Info struct {
	Path        string
	FileSize    int64
	Version     int
	Project     string
	SavedAt     time.Time
	Compression Compression
	PayloadSize int
	Tickets     int
	Epics       int
	Members     int
}

// Inspect reads the project's snapshot and reports its metadata. Unlike
// Load it returns the error that made a snapshot unusable.
func (store *Store) Inspect(project string) (Info, error) {
	path := store.Path(project)
	info := Info{Path: path}
	if stat, err := os.Stat(path); err == nil {
		info.FileSize = stat.Size()
	}
	header, contents, err := store.read(project)
	info.Version = header.Version
	info.Project = header.Project
	info.SavedAt = header.SavedAt
	info.Compression = header.Compression
	info.PayloadSize = header.Size
	if err != nil {
		return info, err
	}
	info.Tickets = len(contents.Tickets)
	info.Epics = len(contents.Epics)
	info.Members = len(contents.Members)
	return info, nil
}

// Raw returns the undecoded envelope bytes of the project's snapshot.
func (store *Store) Raw(project string) ([]byte, error) {
	return os.ReadFile(store.Path(project))
}

// read decodes and verifies a snapshot. The returned envelope carries
// whatever header fields were decoded, even on error, with the payload
// cleared.
func (store *Store) read(project string) (envelope, ticketcache.Contents, error) {
	path := store.Path(project)
	fail := func(err error) error {
		return &PersistenceError{Operation: "load", Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return envelope{}, ticketcache.Contents{}, fail(err)
	}

	var header envelope
	if err := codec.Unmarshal(data, &header); err != nil {
		return envelope{}, ticketcache.Contents{}, fail(fmt.Errorf("decoding envelope: %w", err))
	}
	payload := header.Payload
	header.Payload = nil

	if header.Version != FormatVersion {
		return header, ticketcache.Contents{}, fail(&SchemaError{Found: header.Version, Expected: FormatVersion})
	}
	if header.Project != project {
		return header, ticketcache.Contents{}, fail(fmt.Errorf("snapshot belongs to project %q", header.Project))
	}

	raw, err := decompress(payload, header.Compression, header.Size)
	if err != nil {
		return header, ticketcache.Contents{}, fail(err)
	}
	if !checksumMatches(raw, header.Checksum) {
		return header, ticketcache.Contents{}, fail(errors.New("payload checksum mismatch"))
	}

	var contents ticketcache.Contents
	if err := codec.Unmarshal(raw, &contents); err != nil {
		return header, ticketcache.Contents{}, fail(fmt.Errorf("decoding contents: %w", err))
	}
	return header, contents, nil
}

// fileName maps a project key to a file name. Characters outside
// [a-z0-9._-] become underscores; the project key is matched again
// against the envelope on load, so two projects that sanitize to the
// same name never read each other's data.
func fileName(project string) string {
	var builder strings.Builder
	for _, character := range strings.ToLower(project) {
		switch {
		case character >= 'a' && character <= 'z',
			character >= '0' && character <= '9',
			character == '.', character == '-', character == '_':
			builder.WriteRune(character)
		default:
			builder.WriteByte('_')
		}
	}
	name := strings.Trim(builder.String(), ".")
	if name == "" {
		name = "default"
	}
	return name + ".snapshot"
}
