// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log provides the structured logger used throughout the
// trustee engine. It wraps zap the way a production trustee deployment
// would configure it, while keeping the engine itself independent of
// any particular backend.
package log

import (
	"go.uber.org/zap"
)

// Logger is the logging surface the engine depends on. Implementations
// must be safe for concurrent use.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)

	// With returns a logger with the given key/value pairs attached to
	// every subsequent record.
	With(kv ...any) Logger
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New builds a production logger at the given level ("debug", "info",
// "warn", "error").
func New(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	var lvl zap.AtomicLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.Level = lvl
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: base.Sugar()}, nil
}

// NewDevelopment builds a human-readable console logger, for CLI use.
func NewDevelopment() Logger {
	base, err := zap.NewDevelopment()
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{s: base.Sugar()}
}

func (l *zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

func (l *zapLogger) With(kv ...any) Logger {
	return &zapLogger{s: l.s.With(kv...)}
}

// noop is a logger that discards everything; used as the default in
// tests and wherever a caller does not supply one.
type noop struct{}

// NewNop returns a logger that discards all records.
func NewNop() Logger { return noop{} }

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}
func (noop) With(...any) Logger   { return noop{} }
