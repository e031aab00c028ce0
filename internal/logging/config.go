package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the level, encoding and sink of a Logger.
type Config struct {
	// Level is one of DEBUG, INFO, WARN, ERROR or FATAL; anything else is INFO.
	Level string `yaml:"level"`
	// Format is json or console ("text" is accepted for console).
	Format string `yaml:"format"`
	// Output is stdout, stderr or a file path opened for appending.
	Output string `yaml:"output"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatJSON,
		Output: "stderr",
	}
}

// NewLogger builds a zap-backed Logger from cfg.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ws, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	return newLogger(parseLevel(cfg.Level), ws, newEncoder(cfg.Format)), nil
}

// parseLevel converts a string log level to LogLevel.
func parseLevel(level string) LogLevel {
	switch l := LogLevel(strings.ToUpper(level)); l {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return l
	default:
		return InfoLevel
	}
}

// newEncoder returns zap's console or JSON encoder with the field names the
// log pipeline expects.
func newEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	switch strings.ToLower(format) {
	case FormatConsole, "text":
		return zapcore.NewConsoleEncoder(encCfg)
	default:
		return zapcore.NewJSONEncoder(encCfg)
	}
}

// openSink resolves an output through zap's sink registry, which knows
// stdout and stderr and opens anything else as a file. The returned syncer
// is already locked.
func openSink(output string) (zapcore.WriteSyncer, error) {
	if output == "" {
		output = "stderr"
	}
	ws, _, err := zap.Open(output)
	if err != nil {
		return nil, fmt.Errorf("open log output %q: %w", output, err)
	}
	return ws, nil
}
