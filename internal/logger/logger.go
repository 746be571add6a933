// Package logger builds the zerolog loggers used by both binaries.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog for application logging.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string // "console" or "json"
	// Console receives log lines as well as the file. The terminal client
	// leaves it nil since tcell owns the screen.
	Console    io.Writer
	Path       string // directory for log files
	FileName   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New creates a logger. With neither Console nor Path set every event is
// discarded.
func New(cfg Config) (*Logger, error) {
	var writers []io.Writer
	if cfg.Console != nil {
		writers = append(writers, formatWriter(cfg.Format, cfg.Console))
	}

	var rotator *lumberjack.Logger
	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, errors.Wrap(err, "create log directory")
		}
		name := cfg.FileName
		if name == "" {
			name = "rbrowse.log"
		}
		rotator = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Path, name),
			MaxSize:    positiveOr(cfg.MaxSizeMB, 10),
			MaxBackups: positiveOr(cfg.MaxBackups, 3),
			MaxAge:     positiveOr(cfg.MaxAgeDays, 14),
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		// The file always gets JSON lines.
		writers = append(writers, rotator)
	}

	var output io.Writer
	switch len(writers) {
	case 0:
		output = io.Discard
	case 1:
		output = writers[0]
	default:
		output = zerolog.MultiLevelWriter(writers...)
	}

	zl := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
	return &Logger{Logger: zl, rotator: rotator}, nil
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// FilePath is the active log file, or "" when logging only to the console.
func (l *Logger) FilePath() string {
	if l.rotator == nil {
		return ""
	}
	return l.rotator.Filename
}

// WithComponent returns a logger tagged with a component field.
func (l *Logger) WithComponent(component string) zerolog.Logger {
	return l.Logger.With().Str("component", component).Logger()
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func formatWriter(format string, w io.Writer) io.Writer {
	if format == "json" {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
