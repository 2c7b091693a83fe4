package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EnvLevel names the environment variable that overrides the log level.
const EnvLevel = "TINMACRO_LOG"

// ParseLevel maps a level name to a slog level. Unknown names give Info
// and false.
func ParseLevel(s string) (l slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return slog.LevelDebug, true
	case "info", "inf":
		return slog.LevelInfo, true
	case "warn", "wrn":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Level picks the level from the environment first, then from flag.
func Level(flag string) slog.Level {
	if l, ok := ParseLevel(os.Getenv(EnvLevel)); ok {
		return l
	}
	l, _ := ParseLevel(flag)
	return l
}

// New returns a text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	// slog defaults to logging in the order of time, level, msg, and other attributes.
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// InitLogger opens the log file at path, creating its directory, and makes
// it the default slog destination. The caller closes the returned file.
func InitLogger(path string, level slog.Level) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	slog.SetDefault(New(logFile, level))
	return logFile, nil
}
