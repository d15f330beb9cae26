package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"log/syslog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SyslogHandler is a slog.Handler that logs to syslog.
type SyslogHandler struct {
	writer     *syslog.Writer
	logLeveler slog.Leveler
	addSource  bool
	attrs      []slog.Attr
}

func NewSyslogHandler(logOpts *slog.HandlerOptions) (*SyslogHandler, error) {
	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, filepath.Base(os.Args[0]))
	if err != nil {
		return nil, err
	}
	return &SyslogHandler{writer: writer, logLeveler: logOpts.Level, addSource: logOpts.AddSource}, nil
}

// formatRecord renders r as a logfmt style line.
func (h *SyslogHandler) formatRecord(r slog.Record) string {
	var sb strings.Builder
	if r.PC != 0 && h.addSource {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		fmt.Fprintf(&sb, "level=%s source=%s:%d msg=%q", r.Level.String(), sourcePath(f.File), f.Line, r.Message)
	} else {
		fmt.Fprintf(&sb, "level=%s msg=%q", r.Level.String(), r.Message)
	}
	appendAttr := func(attr slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%q", attr.Key, attr.Value.String())
		return true
	}
	for _, attr := range h.attrs {
		appendAttr(attr)
	}
	r.Attrs(appendAttr)
	return sb.String()
}

// sourcePath shortens an absolute source file path to be relative to the
// parent of the working directory.
func sourcePath(file string) string {
	if !strings.HasPrefix(file, "/") {
		return file
	}
	wd, err := os.Getwd()
	if err != nil {
		return file
	}
	rel, err := filepath.Rel(wd, file)
	if err != nil {
		return file
	}
	_, lastWd := filepath.Split(wd)
	return filepath.Join(lastWd, rel)
}

func (h *SyslogHandler) Handle(ctx context.Context, r slog.Record) error {
	msg := h.formatRecord(r)
	switch r.Level {
	case slog.LevelDebug:
		return h.writer.Debug(msg)
	case slog.LevelInfo:
		return h.writer.Info(msg)
	case slog.LevelWarn:
		return h.writer.Warning(msg)
	case slog.LevelError:
		return h.writer.Err(msg)
	default:
		return h.writer.Info(msg)
	}
}

func (h *SyslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *SyslogHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *SyslogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.logLeveler.Level()
}
