// Package logging configures the process-wide slog logger: human readable
// text to stderr and to <dir>/app.log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const FileName = "app.log"

// ParseLevel maps a config value to a slog level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup opens the log file (creating dir if needed) and returns a logger
// writing to it and to stderr, plus a function closing the file. An empty dir
// logs to stderr only.
func Setup(dir, level string) (*slog.Logger, func() error, error) {
	var out io.Writer = os.Stderr
	closeFn := func() error { return nil }

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
		f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = f.Close
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(level)}))
	return logger, closeFn, nil
}
