package raftnode

import (
	"io"
	"log"

	"github.com/hashicorp/go-hclog"

	"github.com/duskraft/mrstate-go/internal/telemetry/logger"
)

// hcLogger adapts the house structured logger to hashicorp/go-hclog's
// Logger interface, which hashicorp/raft requires.
type hcLogger struct {
	logger logger.Logger
}

func (l *hcLogger) Log(level hclog.Level, msg string, args ...any) {
	switch level {
	case hclog.Trace, hclog.Debug:
		l.logger.Debug(msg, args...)
	case hclog.Info:
		l.logger.Info(msg, args...)
	case hclog.Warn:
		l.logger.Warn(msg, args...)
	case hclog.Error:
		l.logger.Error(msg, args...)
	default:
		l.logger.Info(msg, args...)
	}
}

func (l *hcLogger) Trace(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *hcLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *hcLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *hcLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *hcLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *hcLogger) IsTrace() bool { return false }
func (l *hcLogger) IsDebug() bool { return false }
func (l *hcLogger) IsInfo() bool  { return true }
func (l *hcLogger) IsWarn() bool  { return true }
func (l *hcLogger) IsError() bool { return true }

func (l *hcLogger) ImpliedArgs() []any { return nil }
func (l *hcLogger) With(args ...any) hclog.Logger {
	return &hcLogger{logger: l.logger.With(args...)}
}
func (l *hcLogger) Name() string { return "raft" }
func (l *hcLogger) Named(name string) hclog.Logger {
	return &hcLogger{logger: l.logger.With("subsystem", name)}
}
func (l *hcLogger) ResetNamed(name string) hclog.Logger {
	return l.Named(name)
}
func (l *hcLogger) SetLevel(level hclog.Level) {}
func (l *hcLogger) GetLevel() hclog.Level      { return hclog.Info }
func (l *hcLogger) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return nil
}
func (l *hcLogger) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return nil
}
