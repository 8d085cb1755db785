package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/squadchat/internal/logging"
)

// NewLogger parses level and writes to w, usually os.Stderr so that
// stdout stays free for the conversation or the MCP stdio transport.
// A non-empty logFile also receives every record, appended; the returned
// function closes it.
func NewLogger(w io.Writer, level, logFile string) (*slog.Logger, func() error, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" {
		return logging.NewWithWriter(w, lvl), func() error { return nil }, nil
	}

	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logging.NewWithWriter(io.MultiWriter(w, f), lvl), f.Close, nil
}
