package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// NopLogger returns a logger that discards all output.
// Use this in tests to avoid log noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// LogRecord is one decoded JSON log line
type LogRecord struct {
	Level   string
	Message string
	Attrs   map[string]any
}

// LogCapture collects JSON log output so tests can assert on it
type LogCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer
func (c *LogCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// Records decodes every captured line
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var records []LogRecord
	for _, line := range strings.Split(c.buf.String(), "\n") {
		if line == "" {
			continue
		}
		attrs := map[string]any{}
		if err := json.Unmarshal([]byte(line), &attrs); err != nil {
			continue
		}
		level, _ := attrs["level"].(string)
		msg, _ := attrs["msg"].(string)
		delete(attrs, "level")
		delete(attrs, "msg")
		delete(attrs, "time")
		records = append(records, LogRecord{Level: level, Message: msg, Attrs: attrs})
	}
	return records
}

// Count returns the number of records at the given level ("WARN", "INFO", ...)
func (c *LogCapture) Count(level string) int {
	n := 0
	for _, r := range c.Records() {
		if r.Level == level {
			n++
		}
	}
	return n
}

// CaptureLogger returns a debug-level logger whose output is kept in memory
func CaptureLogger() (*slog.Logger, *LogCapture) {
	capture := &LogCapture{}
	logger := slog.New(slog.NewJSONHandler(capture, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, capture
}
