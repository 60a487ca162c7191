// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of algo-builder-sub005
//
// algo-builder-sub005 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// algo-builder-sub005 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with algo-builder-sub005.  If not, see <https://www.gnu.org/licenses/>.

// Package logging is a thin layer over logrus used by the runtime and its tools.
//
// To log to the base logger:
//
//	Base().Info("asset created")
//
// To log to a new logger:
//
//	l := NewLogger()
//	l.With("txn", 0).Debug("fee deducted")
package logging

import (
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level refers to the log logging level
type Level uint32

var baseLogger Logger

const (
	// Panic Level level, highest level of severity. Logs and then calls panic with the
	// message passed to Debug, Info, ...
	Panic Level = iota
	// Fatal Level level. Logs and then calls `os.Exit(1)`.
	Fatal
	// Error Level level. Used for errors that should definitely be noted.
	Error
	// Warn Level level. Non-critical entries that deserve eyes.
	Warn
	// Info Level level. General operational entries.
	Info
	// Debug Level level. Per-transaction and per-stage detail.
	Debug
)

var once sync.Once

// Init needs to be called to ensure our logging has been initialized
func Init() {
	once.Do(func() {
		// By default, log to stderr (logrus's default), only warnings and above.
		baseLogger = NewLogger()
		baseLogger.SetLevel(Warn)
	})
}

func init() {
	Init()
}

// Fields maps logrus fields
type Fields = logrus.Fields

// Logger is the interface for loggers.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})

	Info(...interface{})
	Infof(string, ...interface{})

	Warn(...interface{})
	Warnf(string, ...interface{})

	Error(...interface{})
	Errorf(string, ...interface{})

	Fatalf(string, ...interface{})
	Panicf(string, ...interface{})

	// Add one key-value to log
	With(key string, value interface{}) Logger

	// WithFields logs a message with specific fields
	WithFields(Fields) Logger

	SetLevel(Level)
	GetLevel() Level
	IsLevelEnabled(level Level) bool

	SetOutput(io.Writer)
	SetJSONFormatter()

	// Adds a hook to the logger
	AddHook(hook logrus.Hook)

	source() *logrus.Entry
}

type logger struct {
	entry *logrus.Entry
}

func (l logger) With(key string, value interface{}) Logger {
	return logger{l.entry.WithField(key, value)}
}

func (l logger) WithFields(fields Fields) Logger {
	return logger{l.entry.WithFields(fields)}
}

func (l logger) Debug(args ...interface{}) {
	l.source().Debug(args...)
}

func (l logger) Debugf(format string, args ...interface{}) {
	l.source().Debugf(format, args...)
}

func (l logger) Info(args ...interface{}) {
	l.source().Info(args...)
}

func (l logger) Infof(format string, args ...interface{}) {
	l.source().Infof(format, args...)
}

func (l logger) Warn(args ...interface{}) {
	l.source().Warn(args...)
}

func (l logger) Warnf(format string, args ...interface{}) {
	l.source().Warnf(format, args...)
}

func (l logger) Error(args ...interface{}) {
	l.source().Error(args...)
}

func (l logger) Errorf(format string, args ...interface{}) {
	l.source().Errorf(format, args...)
}

func (l logger) Fatalf(format string, args ...interface{}) {
	l.source().Fatalf(format, args...)
}

func (l logger) Panicf(format string, args ...interface{}) {
	l.source().Panicf(format, args...)
}

func (l logger) SetLevel(lvl Level) {
	l.entry.Logger.SetLevel(logrus.Level(lvl))
}

func (l logger) GetLevel() Level {
	return Level(l.entry.Logger.GetLevel())
}

func (l logger) IsLevelEnabled(level Level) bool {
	return l.entry.Logger.IsLevelEnabled(logrus.Level(level))
}

func (l logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

func (l logger) SetJSONFormatter() {
	l.entry.Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000000Z07:00"})
}

func (l logger) AddHook(hook logrus.Hook) {
	l.entry.Logger.AddHook(hook)
}

// source adds the caller's file and line, skipping only when Debug is on
// since runtime.Caller is comparatively slow on the hot path.
func (l logger) source() *logrus.Entry {
	event := l.entry
	if !l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return event
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		slash := strings.LastIndex(file, "/")
		event = event.WithFields(logrus.Fields{
			"file": file[slash+1:],
			"line": line,
		})
	}
	return event
}

// Base returns the default Logger
func Base() Logger {
	return baseLogger
}

// NewLogger returns a new Logger at Info level writing to stderr.
func NewLogger() Logger {
	l := logrus.New()
	if tf, ok := l.Formatter.(*logrus.TextFormatter); ok {
		tf.TimestampFormat = "2006-01-02T15:04:05.000000 -0700"
	}
	return logger{logrus.NewEntry(l)}
}
