package logger

import (
	"log"
	"os"
	"time"
)

// Level represents log level
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelOrder = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger provides structured logging
type Logger struct {
	*log.Logger
	minLevel Level
	fields   []Field
}

// New creates a new logger. The minimum level is read from LOG_LEVEL
// (DEBUG, INFO, WARN, ERROR) and defaults to INFO.
func New() *Logger {
	min := Level(os.Getenv("LOG_LEVEL"))
	if _, ok := levelOrder[min]; !ok {
		min = LevelInfo
	}
	return &Logger{
		Logger:   log.New(os.Stdout, "", 0),
		minLevel: min,
	}
}

// With returns a child logger that includes the given fields in every entry.
// Used to scope a logger to a single component.
func (l *Logger) With(fields ...Field) *Logger {
	child := &Logger{
		Logger:   l.Logger,
		minLevel: l.minLevel,
	}
	child.fields = append(append([]Field{}, l.fields...), fields...)
	return child
}

// Log writes a structured log entry
func (l *Logger) Log(level Level, message string, fields ...Field) {
	if levelOrder[level] < levelOrder[l.minLevel] {
		return
	}
	timestamp := time.Now().Format(time.RFC3339)
	all := append(append([]Field{}, l.fields...), fields...)
	entry := formatLogEntry(timestamp, string(level), message, all...)
	l.Logger.Println(entry)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...Field) {
	l.Log(LevelDebug, message, fields...)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...Field) {
	l.Log(LevelInfo, message, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...Field) {
	l.Log(LevelWarn, message, fields...)
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...Field) {
	l.Log(LevelError, message, fields...)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value string
}

// F creates a Field
func F(key, value string) Field {
	return Field{Key: key, Value: value}
}

func formatLogEntry(timestamp, level, message string, fields ...Field) string {
	entry := timestamp + " [" + level + "] " + message
	if len(fields) > 0 {
		entry += " |"
		for _, field := range fields {
			entry += " " + field.Key + "=" + field.Value
		}
	}
	return entry
}
