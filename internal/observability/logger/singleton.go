package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init builds the process-wide logger. Idempotent: only the first call wins.
// Call it once from main before anything logs.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L returns the singleton. If Init was never called it falls back to a
// dev/info logger so library code can always log.
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Named returns the singleton tagged with a component name.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered entries. Defer it in main.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
