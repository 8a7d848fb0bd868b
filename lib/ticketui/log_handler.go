// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package ticketui

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model for display in the
// status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// TUILogHandler is a slog.Handler that routes records into a running
// bubbletea program. Records below the configured level are dropped,
// as are records that arrive before SetProgram.
//
// Handlers derived via WithAttrs and WithGroup share the program
// pointer, so one SetProgram call reaches all of them.
type TUILogHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[tea.Program]
	attrs   []string
	group   string
}

// NewTUILogHandler creates a handler delivering records at or above
// level. Call SetProgram once the tea.Program exists.
func NewTUILogHandler(level slog.Leveler) *TUILogHandler {
	return &TUILogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives log records. Safe to call
// from any goroutine.
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record as "message (key=value, ...)" and sends it
// to the program.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}

	parts := append([]string(nil), handler.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, handler.format(attr))
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	program.Send(logRecordMsg{Summary: summary, Level: record.Level})
	return nil
}

func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *handler
	derived.attrs = append([]string(nil), handler.attrs...)
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, handler.format(attr))
	}
	return &derived
}

func (handler *TUILogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := *handler
	derived.attrs = append([]string(nil), handler.attrs...)
	derived.group = handler.group + name + "."
	return &derived
}

func (handler *TUILogHandler) format(attr slog.Attr) string {
	return handler.group + attr.Key + "=" + attr.Value.Resolve().String()
}
