/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package logging configures the process-wide slog handler. Logs go to
// stderr as text or JSON; on systemd hosts they can additionally be
// forwarded to the journal, which is where operators look for install
// diagnostics.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// Options selects the handler configuration.
type Options struct {
	// Debug lowers the level to debug. Otherwise the level comes from
	// the LOG_LEVEL environment variable, defaulting to info.
	Debug bool

	// JSON emits JSON records instead of text.
	JSON bool

	// Journal additionally forwards records to the systemd journal when
	// the journal socket is available.
	Journal bool
}

// Setup installs the default slog handler for the process.
func Setup(opts Options) {
	level := levelFromEnv()
	if opts.Debug {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, hopts)
	}

	if opts.Journal && journal.Enabled() {
		handler = &journalHandler{next: handler}
	}

	slog.SetDefault(slog.New(handler))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// journalHandler tees records to the systemd journal in front of the
// wrapped handler.
type journalHandler struct {
	next slog.Handler
}

func (h *journalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *journalHandler) Handle(ctx context.Context, record slog.Record) error {
	vars := map[string]string{"SYSLOG_IDENTIFIER": "preflightctl"}
	record.Attrs(func(a slog.Attr) bool {
		vars[journalFieldName(a.Key)] = a.Value.String()
		return true
	})
	// Journal delivery is best effort; the wrapped handler is the record
	// of truth.
	_ = journal.Send(record.Message, journalPriority(record.Level), vars)
	return h.next.Handle(ctx, record)
}

func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &journalHandler{next: h.next.WithAttrs(attrs)}
}

func (h *journalHandler) WithGroup(name string) slog.Handler {
	return &journalHandler{next: h.next.WithGroup(name)}
}

// journalFieldName maps an attr key to a valid journal field name:
// uppercase, underscores, no leading digit.
func journalFieldName(key string) string {
	var b strings.Builder
	for i, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r == '_', r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}
