// Package logging builds the leveled loggers used across the service.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level      string
	Format     string
	File       string // optional rotating file sink
	MaxSizeMB  int
	MaxAgeDays int
	Compress   bool
	Prefix     string
}

// Logger wraps a charmbracelet logger together with its optional file sink.
type Logger struct {
	*log.Logger
	file *lumberjack.Logger
}

// New creates a logger writing to stdout and, when opts.File is set, to a
// size-rotated file as well.
func New(opts Options) (*Logger, error) {
	var w io.Writer = os.Stdout
	var file *lumberjack.Logger

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file = &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  opts.MaxSizeMB,
			MaxAge:   opts.MaxAgeDays,
			Compress: opts.Compress,
		}
		w = io.MultiWriter(os.Stdout, file)
	}

	l := NewWithWriter(w, opts)
	return &Logger{Logger: l, file: file}, nil
}

// NewWithWriter creates a logger writing only to w.
func NewWithWriter(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format),
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Prefix:          opts.Prefix,
	})
}

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps DEBUG, INFO, WARNING, ERROR and CRITICAL (any case) to a
// log level. Unknown values yield InfoLevel.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "critical", "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
