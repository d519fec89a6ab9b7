// Package logger builds the zap loggers used by the autohds command.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels counted from repeated -v flags.
const (
	VerbosityQuiet = 0 // warnings and errors only
	VerbosityInfo  = 1 // -v: + stage progress
	VerbosityDebug = 2 // -vv: + per-level details
)

// VerbosityToLevel maps a -v count to a zap level.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityQuiet:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// New returns a logger writing to stderr, so stdout carries only command
// output. jsonOutput selects zap's production JSON encoding; otherwise a
// compact console format is used.
func New(verbosity int, jsonOutput bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(VerbosityToLevel(verbosity))
	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = level
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		return config.Build()
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}
