// Structured logging for the G-code post-processor
//
// Provides a small leveled logger with:
// - Log levels (DEBUG, INFO, WARN, ERROR)
// - Structured fields (key-value pairs)
// - Text or JSON output
// - ANSI colors when the terminal supports them
// - Per-component loggers with prefixes
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota

	// INFO level for general informational messages
	INFO

	// WARN level for warning messages
	WARN

	// ERROR level for error messages
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a LogLevel, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// OutputFormat specifies the output format for log messages
type OutputFormat int

const (
	// FormatText outputs human-readable text format
	FormatText OutputFormat = iota
	// FormatJSON outputs machine-readable JSON format
	FormatJSON
)

// ParseFormat parses "text" or "json"
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// Fields is a map of structured logging fields
type Fields map[string]interface{}

// output is shared by a logger and everything derived from it
type output struct {
	mu       sync.Mutex
	writer   io.Writer
	colorize bool
}

// Logger writes leveled messages with a component prefix
type Logger struct {
	out       *output
	prefix    string
	level     LogLevel
	outFormat OutputFormat
	fields    Fields
}

const textTimeFormat = "2006-01-02 15:04:05.000"

var levelColors = map[LogLevel]string{
	DEBUG: "6", // cyan
	INFO:  "2", // green
	WARN:  "3", // yellow
	ERROR: "1", // red
}

// New creates a logger writing to stderr
func New(prefix string) *Logger {
	l := &Logger{
		out:       &output{},
		prefix:    prefix,
		level:     INFO,
		outFormat: FormatText,
	}
	l.SetWriter(os.Stderr)
	return l
}

// SetWriter sets the output writer. Color is enabled only if the writer
// is a terminal that supports it and NO_COLOR is unset.
func (l *Logger) SetWriter(w io.Writer) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.writer = w
	l.out.colorize = termenv.NewOutput(w).EnvColorProfile() != termenv.Ascii
}

// SetColorize forces colorized output on or off
func (l *Logger) SetColorize(enable bool) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.colorize = enable
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) { l.level = level }

// Level returns the minimum log level
func (l *Logger) Level() LogLevel { return l.level }

// SetFormat sets the output format
func (l *Logger) SetFormat(format OutputFormat) { l.outFormat = format }


// WithPrefix returns a logger for a sub-component sharing this output
func (l *Logger) WithPrefix(prefix string) *Logger {
	c := *l
	c.prefix = prefix
	return &c
}

// WithFields returns a logger that attaches fields to every message
func (l *Logger) WithFields(fields Fields) *Logger {
	c := *l
	c.fields = make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		c.fields[k] = v
	}
	for k, v := range fields {
		c.fields[k] = v
	}
	return &c
}

// WithField returns a logger that attaches one field to every message
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(Fields{key: value})
}

// WithError attaches an error field
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(DEBUG, msg, args) }

// Info logs a message at INFO level
func (l *Logger) Info(msg string, args ...interface{}) { l.log(INFO, msg, args) }

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string, args ...interface{}) { l.log(WARN, msg, args) }

// Error logs a message at ERROR level
func (l *Logger) Error(msg string, args ...interface{}) { l.log(ERROR, msg, args) }

func (l *Logger) log(level LogLevel, msg string, args []interface{}) {
	if level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	var line string
	if l.outFormat == FormatJSON {
		line = l.formatJSON(level, msg)
	} else {
		line = l.formatText(level, msg)
	}
	fmt.Fprint(l.out.writer, line)
}

func (l *Logger) formatText(level LogLevel, msg string) string {
	var sb strings.Builder
	sb.WriteString(time.Now().Format(textTimeFormat))
	sb.WriteString(" [")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString("] ")

	prefix := l.prefix
	if l.out.colorize && prefix != "" {
		prefix = termenv.String(prefix).Foreground(termenv.ANSI.Color(levelColors[level])).String()
	}
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, l.fields[k])
		}
		sb.WriteString("}")
	}
	sb.WriteString("\n")
	return sb.String()
}

// JSONLogEntry is the structure for JSON formatted log entries
type JSONLogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) formatJSON(level LogLevel, msg string) string {
	entry := JSONLogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Logger:    l.prefix,
		Message:   msg,
		Fields:    l.fields,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal log entry: %v"}`+"\n", err)
	}
	return string(data) + "\n"
}

// ConfigureFromEnv applies environment-based configuration to the logger.
// Environment variables:
//   - KLIPPER_LOG_LEVEL: DEBUG, INFO, WARN, ERROR
//   - KLIPPER_LOG_FORMAT: text, json
func ConfigureFromEnv(l *Logger) {
	if levelStr := os.Getenv("KLIPPER_LOG_LEVEL"); levelStr != "" {
		l.SetLevel(ParseLevel(levelStr))
	}
	if formatStr := os.Getenv("KLIPPER_LOG_FORMAT"); formatStr != "" {
		if f, err := ParseFormat(formatStr); err == nil {
			l.SetFormat(f)
		}
	}
}

// Discard returns a logger that writes nothing
func Discard() *Logger {
	l := New("")
	l.SetWriter(io.Discard)
	l.SetLevel(ERROR + 1)
	return l
}
