// =============================================================================
// Invoice Receipts - Logging
// =============================================================================

package converter

import (
	"fmt"
	"strings"
)

// Log levels, from most to least verbose.
const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

// NewLogger creates the standard leveled logger. The level string comes
// from the main configuration ("debug", "info", "warn", "error");
// unrecognized values fall back to "info".
func NewLogger(level string) Logger {
	return &defaultLogger{level: parseLevel(level)}
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// defaultLogger is a simple leveled logger that prints to stdout.
type defaultLogger struct {
	level int
}

func (l *defaultLogger) Debug(msg string, args ...interface{}) {
	if l.level <= levelDebug {
		fmt.Printf("[DEBUG] "+msg+"\n", args...)
	}
}

func (l *defaultLogger) Info(msg string, args ...interface{}) {
	if l.level <= levelInfo {
		fmt.Printf("[INFO] "+msg+"\n", args...)
	}
}

func (l *defaultLogger) Warn(msg string, args ...interface{}) {
	if l.level <= levelWarn {
		fmt.Printf("[WARN] "+msg+"\n", args...)
	}
}

func (l *defaultLogger) Error(msg string, args ...interface{}) {
	if l.level <= levelError {
		fmt.Printf("[ERROR] "+msg+"\n", args...)
	}
}
