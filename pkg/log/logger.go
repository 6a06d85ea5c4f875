// Leveled, structured logging for the encoder host.
//
// Supports log levels, per-component prefixes, structured key-value
// fields, and text or JSON output. The daemon writes to stderr or a
// file chosen by configuration; tests swap the writer for a buffer.
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
)

// LogLevel represents the severity of a log message.
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

// String returns the string representation of the log level.
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

// ParseLevel parses a string into a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// OutputFormat specifies the output format for log messages.
type OutputFormat int

const (
	// FormatText outputs human-readable text format
	FormatText OutputFormat = iota
	// FormatJSON outputs machine-readable JSON format
	FormatJSON
)

// ParseFormat parses a string into an OutputFormat, defaulting to text.
func ParseFormat(s string) OutputFormat {
	if strings.EqualFold(s, "json") {
		return FormatJSON
	}
	return FormatText
}

// Fields is a map of structured logging fields.
type Fields map[string]interface{}

// Logger writes leveled log messages for one component.
type Logger struct {
	mu         sync.Mutex
	prefix     string
	writer     io.Writer
	level      LogLevel
	timeFormat string
	outFormat  OutputFormat
}

// New creates a new logger with the given component prefix.
func New(prefix string) *Logger {
	return &Logger{
		prefix:     prefix,
		writer:     os.Stderr,
		level:      INFO,
		timeFormat: "2006-01-02 15:04:05.000",
		outFormat:  FormatText,
	}
}

// WithPrefix returns a new logger sharing this logger's settings but
// tagged with a sub-component prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		prefix:     l.prefix + "." + prefix,
		writer:     l.writer,
		level:      l.level,
		timeFormat: l.timeFormat,
		outFormat:  l.outFormat,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetWriter sets the output writer.
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// SetFormat sets the output format (FormatText or FormatJSON).
func (l *Logger) SetFormat(format OutputFormat) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outFormat = format
}

// Entry carries structured fields toward a log call.
type Entry struct {
	logger *Logger
	fields Fields
}

// WithField returns an Entry with one field attached.
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return &Entry{logger: l, fields: Fields{key: value}}
}

// WithFields returns an Entry with the given fields attached.
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// WithError returns an Entry with the error field set.
func (l *Logger) WithError(err error) *Entry {
	return l.WithField("error", err.Error())
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, nil, format, args...)
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, nil, format, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, nil, format, args...)
}

// Error logs at ERROR level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, nil, format, args...)
}

// Debug logs the entry at DEBUG level.
func (e *Entry) Debug(format string, args ...interface{}) {
	e.logger.log(DEBUG, e.fields, format, args...)
}

// Info logs the entry at INFO level.
func (e *Entry) Info(format string, args ...interface{}) {
	e.logger.log(INFO, e.fields, format, args...)
}

// Warn logs the entry at WARN level.
func (e *Entry) Warn(format string, args ...interface{}) {
	e.logger.log(WARN, e.fields, format, args...)
}

// Error logs the entry at ERROR level.
func (e *Entry) Error(format string, args ...interface{}) {
	e.logger.log(ERROR, e.fields, format, args...)
}

func (l *Logger) log(level LogLevel, fields Fields, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	var line string
	if l.outFormat == FormatJSON {
		line = l.formatJSON(level, msg, fields)
	} else {
		line = l.formatText(level, msg, fields)
	}
	fmt.Fprintln(l.writer, line)
}

func (l *Logger) formatText(level LogLevel, msg string, fields Fields) string {
	var sb strings.Builder
	sb.WriteString(time.Now().Format(l.timeFormat))
	sb.WriteString(" [")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString("] ")
	sb.WriteString(l.prefix)
	sb.WriteString(": ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, fields[k]))
		}
		sb.WriteString("}")
	}
	return sb.String()
}

func (l *Logger) formatJSON(level LogLevel, msg string, fields Fields) string {
	record := map[string]interface{}{
		"time":      time.Now().Format(time.RFC3339Nano),
		"level":     level.String(),
		"component": l.prefix,
		"msg":       msg,
	}
	for k, v := range fields {
		record[k] = v
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","msg":"log marshal failed: %v"}`, err)
	}
	return string(data)
}
