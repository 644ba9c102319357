/*
NAME
  logging.go

DESCRIPTION
  logging.go provides the Logger interface used throughout hardsub, and a
  zap/lumberjack backed implementation.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package logging provides the structured Logger contract consumed by every
// pipeline stage, and a rotating-file implementation backed by zap.
package logging

import (
	"gopkg.in/natefinch/lumberjack.v2"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Severity levels, ordered least to most severe. Mirrors the int8 level
// convention used by the configuration surface's LogLevel field.
const (
	Debug int8 = iota
	Info
	Warning
	Error
	Fatal
)

// Logger is implemented by anything that can record leveled, structured
// events. Every stage constructor takes a Logger; there is no package-level
// logger anywhere in hardsub.
type Logger interface {
	SetLevel(level int8)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// FileConfig describes the rotating log file a Logger writes to.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      int8
}

// zapLogger adapts a zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
	atom  zap.AtomicLevel
}

// New returns a Logger that writes leveled, structured events to a rotating
// file managed by lumberjack.
func New(c FileConfig) *zapLogger {
	lj := &lumberjack.Logger{
		Filename:   c.Path,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
	}

	atom := zap.NewAtomicLevelAt(toZapLevel(c.Level))
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(lj),
		atom,
	)

	return &zapLogger{sugar: zap.New(core).Sugar(), atom: atom}
}

func toZapLevel(l int8) zapcore.Level {
	switch l {
	case Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warning:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	case Fatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (z *zapLogger) SetLevel(level int8) { z.atom.SetLevel(toZapLevel(level)) }

func (z *zapLogger) Debug(msg string, args ...interface{})   { z.sugar.Debugw(msg, args...) }
func (z *zapLogger) Info(msg string, args ...interface{})    { z.sugar.Infow(msg, args...) }
func (z *zapLogger) Warning(msg string, args ...interface{}) { z.sugar.Warnw(msg, args...) }
func (z *zapLogger) Error(msg string, args ...interface{})   { z.sugar.Errorw(msg, args...) }
func (z *zapLogger) Fatal(msg string, args ...interface{})   { z.sugar.Fatalw(msg, args...) }

// Discard is a Logger that drops every event. Useful for tests and for
// callers that don't want the rotating-file overhead.
type discard struct{}

func (discard) SetLevel(int8)                    {}
func (discard) Debug(string, ...interface{})   {}
func (discard) Info(string, ...interface{})    {}
func (discard) Warning(string, ...interface{}) {}
func (discard) Error(string, ...interface{})   {}
func (discard) Fatal(string, ...interface{})   {}

// Discard returns a Logger that records nothing.
func Discard() Logger { return discard{} }
