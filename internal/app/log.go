package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// plibHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<opID>\t<message>\t<key=value ...>
//
// Attr values containing whitespace are quoted so the line stays
// splittable on tabs. Groups become dotted key prefixes.
type plibHandler struct {
	w     io.Writer
	opID  string
	min   slog.Level
	group string
	attrs []slog.Attr
}

func (h *plibHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *plibHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.opID, r.Message)
	if err != nil {
		return err
	}

	// Write pre-set attrs.
	for _, a := range h.attrs {
		h.writeAttr(a)
	}

	// Write per-record attrs.
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(a)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *plibHandler) writeAttr(a slog.Attr) {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t") {
		val = fmt.Sprintf("%q", val)
	}
	fmt.Fprintf(h.w, "\t%s=%s", key, val)
}

func (h *plibHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &plibHandler{
		w:     h.w,
		opID:  h.opID,
		min:   h.min,
		group: h.group,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *plibHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &plibHandler{
		w:     h.w,
		opID:  h.opID,
		min:   h.min,
		group: group,
		attrs: append([]slog.Attr{}, h.attrs...),
	}
}

// newLogger creates a structured logger that writes to both logDir/plib.log
// and stderr. Debug records are dropped unless verbose is set.
// It returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir string, opID string, verbose bool) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "plib.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	min := slog.LevelInfo
	if verbose {
		min = slog.LevelDebug
	}
	w := io.MultiWriter(f, os.Stderr)
	handler := &plibHandler{w: w, opID: opID, min: min}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the photolib.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
