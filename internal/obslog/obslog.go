// Package obslog is the process-wide structured logger.
//
// It mirrors the call shape of the teacher's tv-shared-go/logger wrapper
// (Info/Warn/Error/Fatal/Debug, each taking zap.Field varargs) directly on
// top of zap, so every other package logs the same way regardless of who
// constructed the underlying *zap.Logger.
package obslog

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	log = newDefault()
)

func newDefault() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		// Fall back to zap's example logger rather than crash the
		// process over a broken logging pipeline.
		l = zap.NewExample()
	}
	return l
}

// SetGlobal replaces the package-level logger. Callers own its lifecycle
// (Sync on shutdown); obslog never constructs more than one at a time.
func SetGlobal(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(msg string, fields ...zap.Field) { current().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { current().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current().Error(msg, fields...) }

// Fatal logs at error level then exits the process, matching the
// teacher's logger.Fatal behavior.
func Fatal(msg string, fields ...zap.Field) {
	current().Error(msg, fields...)
	_ = current().Sync()
	os.Exit(1)
}

// Sync flushes any buffered log entries.
func Sync() error {
	return current().Sync()
}
