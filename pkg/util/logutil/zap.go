package logutil

import (
	"go.uber.org/zap"
)

// LogPanic is deferred at the top of command and goroutine entry points:
// it recovers a panic, logs the recovered value at fatal level, and lets
// the logger's fatal hook terminate the process.
func LogPanic(logger *zap.Logger) {
	e := recover()
	if e == nil {
		return
	}
	logger.Fatal("panic", zap.Reflect("recover", e))
}
