// Package log provides the process-wide zap logger.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

// Init initializes the package-level logger.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	SetLogger(zapLogger)
	return nil
}

// SetLogger replaces the package-level logger.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l.Sugar()
}

// GetSugaredLogger returns the sugared logger, falling back to a production
// logger when Init was never called.
func GetSugaredLogger() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		base, err := zap.NewProduction(zap.AddCallerSkip(1))
		if err != nil {
			base = zap.NewNop()
		}
		logger = base.Sugar()
	}
	return logger
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		_ = logger.Sync()
	}
}

func Debug(args ...any)                       { GetSugaredLogger().Debug(args...) }
func Debugf(template string, args ...any)     { GetSugaredLogger().Debugf(template, args...) }
func Debugw(msg string, keysAndValues ...any) { GetSugaredLogger().Debugw(msg, keysAndValues...) }
func Info(args ...any)                        { GetSugaredLogger().Info(args...) }
func Infof(template string, args ...any)      { GetSugaredLogger().Infof(template, args...) }
func Infow(msg string, keysAndValues ...any)  { GetSugaredLogger().Infow(msg, keysAndValues...) }
func Warnf(template string, args ...any)      { GetSugaredLogger().Warnf(template, args...) }
func Warnw(msg string, keysAndValues ...any)  { GetSugaredLogger().Warnw(msg, keysAndValues...) }
func Errorf(template string, args ...any)     { GetSugaredLogger().Errorf(template, args...) }
func Errorw(msg string, keysAndValues ...any) { GetSugaredLogger().Errorw(msg, keysAndValues...) }
func Fatalf(template string, args ...any)     { GetSugaredLogger().Fatalf(template, args...) }
