package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level is a log severity threshold
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converts a LOG_LEVEL value into a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var threshold atomic.Int32

func init() {
	threshold.Store(int32(ParseLevel(os.Getenv("LOG_LEVEL"))))
}

// SetLevel changes the process-wide level threshold
func SetLevel(l Level) {
	threshold.Store(int32(l))
}

// Logger is a wrapper around the standard library logger
type Logger struct {
	*log.Logger
	channelID string
}

// New creates a new logger with the given channel ID
func New(channelID string) *Logger {
	return NewWithWriter(os.Stdout, channelID)
}

// NewWithWriter creates a logger that writes to w
func NewWithWriter(w io.Writer, channelID string) *Logger {
	return &Logger{
		Logger:    log.New(w, "", 0),
		channelID: channelID,
	}
}

// With returns a logger for a sub-channel, e.g. "dialog" -> "dialog/42"
func (l *Logger) With(sub string) *Logger {
	channel := sub
	if l.channelID != "" {
		channel = l.channelID + "/" + sub
	}
	return &Logger{Logger: l.Logger, channelID: channel}
}

// formatMessage formats a log message with timestamp and channel ID
func (l *Logger) formatMessage(level, format string, v ...interface{}) string {
	timestamp := time.Now().Format(time.RFC3339)
	message := fmt.Sprintf(format, v...)

	if l.channelID != "" {
		return fmt.Sprintf("[%s] [%s] [Channel: %s] %s", timestamp, level, l.channelID, message)
	}

	return fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)
}

func (l *Logger) print(lvl Level, name, format string, v ...interface{}) {
	if lvl < Level(threshold.Load()) {
		return
	}
	l.Logger.Println(l.formatMessage(name, format, v...))
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.print(LevelInfo, "INFO", format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.print(LevelError, "ERROR", format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.print(LevelDebug, "DEBUG", format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.print(LevelWarn, "WARN", format, v...)
}

// Global logger instance for application-wide logging
var Global = New("")
