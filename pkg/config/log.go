// Copyright 2016 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// _rotationSink is the zap sink scheme under which rotated log files are
// registered. Registration is process-global, so Logger must only build a
// rotating logger once per process.
const _rotationSink = "statestore-rotate"

// _callerPathDepth is how many directory levels to keep when rendering the
// caller, enough to disambiguate files across this module's packages.
const _callerPathDepth = 2

// Log configures the store's zap logger and, optionally, size-based log
// file rotation.
type Log struct {
	Zap            zap.Config
	Rotate         Rotate
	EnableRotation bool
	Level          string
}

// NewLog returns the default logging configuration: production JSON
// encoding at info level, ISO8601 timestamps, and short caller paths.
func NewLog() *Log {
	log := &Log{
		Zap:   zap.NewProductionConfig(),
		Level: "info",
	}
	log.Zap.EncoderConfig.EncodeCaller = encodeCaller
	log.Zap.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return log
}

// Adjust fills derived fields: error outputs default to the normal
// outputs, rotation rewrites file paths onto the rotation sink, and Level
// is parsed into the zap config.
func (l *Log) Adjust() error {
	if l.Zap.ErrorOutputPaths == nil {
		l.Zap.ErrorOutputPaths = make([]string, len(l.Zap.OutputPaths))
		copy(l.Zap.ErrorOutputPaths, l.Zap.OutputPaths)
	}

	if l.EnableRotation {
		wd, err := os.Getwd()
		if err != nil {
			return errors.WithMessage(err, "get current directory")
		}
		l.Zap.OutputPaths = withRotationSink(l.Zap.OutputPaths, wd)
		l.Zap.ErrorOutputPaths = withRotationSink(l.Zap.ErrorOutputPaths, wd)
	}

	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return errors.WithMessage(err, "parse log level")
	}
	l.Zap.Level = zap.NewAtomicLevelAt(level)

	return nil
}

// Logger builds a zap logger from the adjusted configuration.
func (l *Log) Logger() (*zap.Logger, error) {
	if l.EnableRotation {
		if err := l.registerRotationSink(); err != nil {
			return nil, errors.WithMessage(err, "setup rotation")
		}
	}

	logger, err := l.Zap.Build()
	if err != nil {
		return nil, errors.WithMessage(err, "build logger")
	}
	return logger, nil
}

// encodeCaller renders the caller as its file name under the last
// _callerPathDepth directories, plus the line number.
func encodeCaller(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	if !caller.Defined {
		enc.AppendString("<unknown>")
		return
	}

	file := caller.File
	idx := len(file)
	for i := 0; i <= _callerPathDepth && idx != -1; i++ {
		idx = strings.LastIndexByte(file[:idx], '/')
	}
	if idx == -1 {
		enc.AppendString(caller.FullPath())
		return
	}
	enc.AppendString(file[idx+1:] + ":" + strconv.Itoa(caller.Line))
}

// Rotate mirrors the rotation knobs of lumberjack.Logger.
type Rotate struct {
	// MaxSize is the maximum size in megabytes of a log file before it is
	// rotated. lumberjack defaults this to 100 megabytes.
	MaxSize int

	// MaxAge is the maximum number of days to retain rotated files, based
	// on the timestamp in their names. Zero keeps them indefinitely.
	MaxAge int

	// MaxBackups is the maximum number of rotated files to retain. Zero
	// keeps all of them, subject to MaxAge.
	MaxBackups int

	// LocalTime formats backup-file timestamps in local time instead of
	// UTC.
	LocalTime bool

	// Compress gzips rotated files.
	Compress bool
}

// rotateSink adapts a lumberjack.Logger to zap.Sink; the embedded logger
// provides Write and Close.
type rotateSink struct {
	*lumberjack.Logger
}

func (rotateSink) Sync() error {
	return nil
}

// registerRotationSink registers the rotation sink scheme. zap rejects a
// second registration of the same scheme, so this must run at most once
// per process.
func (l *Log) registerRotationSink() error {
	err := zap.RegisterSink(_rotationSink, func(u *url.URL) (zap.Sink, error) {
		return rotateSink{&lumberjack.Logger{
			Filename:   u.Path,
			MaxSize:    l.Rotate.MaxSize,
			MaxAge:     l.Rotate.MaxAge,
			MaxBackups: l.Rotate.MaxBackups,
			LocalTime:  l.Rotate.LocalTime,
			Compress:   l.Rotate.Compress,
		}}, nil
	})
	if err != nil {
		return errors.WithMessage(err, "register sink")
	}
	return nil
}

// withRotationSink rewrites file output paths onto the rotation sink
// scheme, leaving the stdio streams untouched.
func withRotationSink(paths []string, wd string) []string {
	results := make([]string, len(paths))
	for i, path := range paths {
		switch path {
		case "stderr", "stdout":
			results[i] = path
		default:
			if !filepath.IsAbs(path) {
				path = filepath.Join(wd, path)
			}
			results[i] = fmt.Sprintf("%s:%s", _rotationSink, path)
		}
	}
	return results
}
