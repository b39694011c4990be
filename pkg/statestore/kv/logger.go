package kv

import (
	"go.uber.org/zap"
)

// LogAble is an Engine that also exposes the logger it should be decorated
// with.
type LogAble interface {
	Engine
	Logger() *zap.Logger
}

// Logger wraps an Engine and logs Get and Write at debug level and Open and
// Close at info level; NewIterator and iterator calls are not logged.
type Logger struct {
	LogAble
}

func (l Logger) Open(dir string) (err error) {
	err = l.LogAble.Open(dir)
	l.logger().Info("engine open", zap.String("dir", dir), zap.Error(err))
	return
}

func (l Logger) Get(key []byte) (value []byte, found bool, err error) {
	logger := l.logger()
	value, found, err = l.LogAble.Get(key)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("engine get", zap.ByteString("key", key), zap.Bool("found", found), zap.Binary("value", value), zap.Error(err))
	}
	return
}

func (l Logger) NewIterator() Iterator {
	return l.LogAble.NewIterator()
}

func (l Logger) Write(batch *Batch) (err error) {
	logger := l.logger()
	err = l.LogAble.Write(batch)
	if logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("engine write batch", zap.Int("ops", batch.Len()), zap.Error(err))
	}
	return
}

func (l Logger) Close() (err error) {
	err = l.LogAble.Close()
	l.logger().Info("engine close", zap.Error(err))
	return
}

func (l Logger) logger() *zap.Logger {
	if logger := l.LogAble.Logger(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithLogger decorates eng so every call is logged through logger.
func WithLogger(eng Engine, logger *zap.Logger) Engine {
	return Logger{LogAble: loggedEngine{Engine: eng, logger: logger}}
}

// loggedEngine pairs a plain Engine with a logger to satisfy LogAble.
type loggedEngine struct {
	Engine
	logger *zap.Logger
}

func (e loggedEngine) Logger() *zap.Logger { return e.logger }
