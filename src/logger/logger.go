package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

// Options configures the process-wide log sink.
type Options struct {
	Level    string // debug, info, warning, error
	Format   string // json or console
	FilePath string // optional rotating log file
	Service  string
}

// Init installs the global zerolog logger every Logger writes through.
func Init(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		lvl := strings.ToLower(opts.Level)
		if lvl == "warning" {
			lvl = "warn"
		}
		parsed, err := zerolog.ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	if opts.Format == "json" {
		writers = append(writers, os.Stdout)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"})
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    50, // MB
			MaxAge:     14, // days
			MaxBackups: 5,
			Compress:   true,
		})
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	log.Logger = ctx.Logger()
	return nil
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	fields []field
}

type field struct {
	key   string
	value string
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance
func NewLogger(name string) *Logger {
	return &Logger{name: name}
}

// With returns a child logger that adds key=value to every entry.
func (l *Logger) With(key, value string) *Logger {
	fields := make([]field, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	return &Logger{name: l.name, fields: append(fields, field{key, value})}
}

// Name returns the component name.
func (l *Logger) Name() string {
	return l.name
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	ev := log.Logger.WithLevel(level)
	if ev == nil {
		return nil
	}
	ev = ev.Str("component", l.name)
	for _, f := range l.fields {
		ev = ev.Str(f.key, f.value)
	}
	return ev
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if ev := l.event(zerolog.DebugLevel); ev != nil {
		ev.Msgf(format, args...)
	}
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	if ev := l.event(zerolog.WarnLevel); ev != nil {
		ev.Msgf(format, args...)
	}
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	if ev := l.event(zerolog.InfoLevel); ev != nil {
		ev.Msgf(format, args...)
	}
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if ev := l.event(zerolog.ErrorLevel); ev != nil {
		ev.Msgf(format, args...)
	}
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	if ev := l.event(zerolog.FatalLevel); ev != nil {
		ev.Msgf(format, args...)
	}
	os.Exit(1)
}
