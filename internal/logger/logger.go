// Package logger provides the process-wide structured logger.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Options controls where and how verbosely the logger writes
type Options struct {
	Level string
	File  string
}

// Configure replaces the package logger. The logger is still replaced when the
// level is unknown or the file cannot be opened; those problems are returned.
func Configure(opts Options) error {
	level := slog.LevelInfo
	var levelErr error
	if strings.TrimSpace(opts.Level) != "" {
		level, levelErr = ParseLevel(opts.Level)
	}

	writer := io.Writer(os.Stdout)
	var fileErr error
	if strings.TrimSpace(opts.File) != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			fileErr = err
		} else if file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
			fileErr = err
		} else {
			writer = io.MultiWriter(os.Stdout, file)
		}
	}

	SetOutput(writer, level)
	return errors.Join(levelErr, fileErr)
}

// SetOutput points the logger at w with the given minimum level
func SetOutput(w io.Writer, level slog.Level) {
	Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a level name to a slog level
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", value)
	}
}

func Debug(msg string, args ...any) { Logger.Debug(msg, args...) }

func Info(msg string, args ...any) { Logger.Info(msg, args...) }

func Warn(msg string, args ...any) { Logger.Warn(msg, args...) }

func Error(msg string, args ...any) { Logger.Error(msg, args...) }
