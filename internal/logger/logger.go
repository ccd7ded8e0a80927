package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the line encoding.
type Format string

const (
	// FormatConsole writes human-readable, colored lines.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

var (
	// global is the process-wide logger every context falls back to.
	//nolint:gochecknoglobals // Logger is used all over the project.
	global *zap.SugaredLogger
	// level is shared by every logger built by New, so SetLevel applies everywhere.
	//nolint:gochecknoglobals // Must be adjustable after the loggers are built.
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // Logging must work before the config is read.
	SetLogger(New(FormatConsole, os.Stdout))
}

// New builds a sugared logger writing to w in the given format.
// Unknown formats fall back to the console encoder.
func New(format Format, w io.Writer, options ...zap.Option) *zap.SugaredLogger {
	//nolint:exhaustruct // Remaining encoder fields keep their zero values.
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "message",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: ", ",
	}

	var encoder zapcore.Encoder

	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)

	return zap.New(core, options...).Sugar()
}

// ParseLogLevel converts a level name to a zap level.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel, false
	}

	return lvl, true
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatConsole, "":
		return FormatConsole, true
	case FormatJSON:
		return FormatJSON, true
	default:
		return FormatConsole, false
	}
}

// Level returns the current minimum level.
func Level() zapcore.Level {
	return level.Level()
}

// SetLevel changes the minimum level of every logger built by New.
func SetLevel(lvl zapcore.Level) {
	level.SetLevel(lvl)
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	return global
}

// SetLogger replaces the global logger. Not safe for concurrent use.
func SetLogger(l *zap.SugaredLogger) {
	global = l
}

// Sync flushes the global logger.
func Sync() {
	//nolint:errcheck // Stdout sync errors are not actionable.
	_ = global.Sync()
}
