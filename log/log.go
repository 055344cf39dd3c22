// Package log provides the package-level leveled logger used across
// stockgraph, backed by kataras/golog.
package log

import (
	"github.com/kataras/golog"
)

var logger = newLogger()

func newLogger() *golog.Logger {
	l := golog.New()
	l.SetTimeFormat("2006/01/02 15:04:05")
	l.SetLevel("info")
	return l
}

// SetLevel changes the global log level. Accepted values are the golog
// level names: "debug", "info", "warn", "error", "fatal", "disable".
func SetLevel(level string) {
	logger.SetLevel(level)
}

// Logger returns the underlying golog logger, for callers that need to
// attach fields or redirect output.
func Logger() *golog.Logger {
	return logger
}

// Debug logs a formatted debug message.
func Debug(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Info logs a formatted informational message.
func Info(format string, args ...any) {
	logger.Infof(format, args...)
}

// Warn logs a formatted warning message.
func Warn(format string, args ...any) {
	logger.Warnf(format, args...)
}

// Error logs a formatted error message.
func Error(format string, args ...any) {
	logger.Errorf(format, args...)
}
