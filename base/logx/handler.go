// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// Handler is a [slog.Handler] that writes one line per record,
// with the level name colored according to its severity.
type Handler struct {
	opts  slog.HandlerOptions
	out   *termenv.Output
	mu    *sync.Mutex
	attrs []slog.Attr
	group string
}

// NewHandler returns a new [Handler] writing to the given writer.
// A nil opts uses [UserLevel] as the minimum level.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{out: termenv.NewOutput(w), mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = &levelVar
	}
	return h
}

var levelVar slog.LevelVar

// SetDefaultLogger sets the default [slog] logger to a [Handler]
// writing to stderr at [UserLevel].
func SetDefaultLogger() {
	levelVar.Set(UserLevel)
	slog.SetDefault(slog.New(NewHandler(os.Stderr, nil)))
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.levelString(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	write := func(a slog.Attr) {
		if a.Equal(slog.Attr{}) {
			return
		}
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(&b, " %s=%v", key, a.Value.Resolve())
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})
	b.WriteByte('\n')
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	nh := *h
	if nh.group != "" {
		name = nh.group + "." + name
	}
	nh.group = name
	return &nh
}

func (h *Handler) levelString(level slog.Level) string {
	s := h.out.String(level.String())
	switch {
	case level >= slog.LevelError:
		s = s.Foreground(termenv.ANSIRed).Bold()
	case level >= slog.LevelWarn:
		s = s.Foreground(termenv.ANSIYellow)
	case level >= slog.LevelInfo:
		s = s.Foreground(termenv.ANSICyan)
	default:
		s = s.Faint()
	}
	return s.String()
}
