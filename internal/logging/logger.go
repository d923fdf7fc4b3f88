// Package logging builds the application's zap logger: a rotating JSON file,
// the console, and an in-memory tail for the developer-tools view.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// File is the log file path. Empty disables the file core.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Debug lowers every core to debug level.
	Debug bool

	// Tail receives console-encoded lines. Optional.
	Tail *LogBuffer

	// Console defaults to stdout when nil.
	Console zapcore.WriteSyncer
}

// New returns the root logger. Callers name sub-loggers per component.
func New(opt Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opt.Debug {
		level = zap.DebugLevel
	}

	consoleEnc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

	console := opt.Console
	if console == nil {
		console = zapcore.Lock(os.Stdout)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, console, level),
	}

	if opt.File != "" {
		if err := os.MkdirAll(filepath.Dir(opt.File), 0o755); err != nil {
			return nil, err
		}

		rotator := &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    orDefault(opt.MaxSizeMB, 10),
			MaxBackups: orDefault(opt.MaxBackups, 5),
			MaxAge:     orDefault(opt.MaxAgeDays, 30),
			Compress:   true,
		}

		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.MessageKey = "message"
		encoderConfig.LevelKey = "level"
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotator),
			level,
		))
	}

	if opt.Tail != nil {
		cores = append(cores, zapcore.NewCore(consoleEnc, opt.Tail, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
