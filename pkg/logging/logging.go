package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// ParseLevel converts a config or flag value ("debug", "info", "warn",
// "error") to a LogLevel. Unknown values map to LevelInfo.
func ParseLevel(s string) LogLevel {
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

// FileOptions configures the rotating log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	fileWriter    *lumberjack.Logger
)

// InitForCLI initializes the logger to write text records to output.
// This should be called once at application startup.
func InitForCLI(level LogLevel, output io.Writer) {
	opts := &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}

	logger := slog.New(slog.NewTextHandler(output, opts))

	mu.Lock()
	defaultLogger = logger
	mu.Unlock()

	slog.SetDefault(logger)
}

// InitForFile initializes the logger to write JSON records to a rotating
// file. Records are also written to console when it is non-nil.
func InitForFile(level LogLevel, fo FileOptions, console io.Writer) error {
	if fo.Path == "" {
		return fmt.Errorf("log file path is empty")
	}
	if fo.MaxSizeMB <= 0 {
		fo.MaxSizeMB = 10
	}
	if fo.MaxBackups <= 0 {
		fo.MaxBackups = 3
	}
	if fo.MaxAgeDays <= 0 {
		fo.MaxAgeDays = 28
	}

	lj := &lumberjack.Logger{
		Filename:   fo.Path,
		MaxSize:    fo.MaxSizeMB,
		MaxBackups: fo.MaxBackups,
		MaxAge:     fo.MaxAgeDays,
	}

	var out io.Writer = lj
	if console != nil {
		out = io.MultiWriter(lj, console)
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level.SlogLevel()}))

	mu.Lock()
	if fileWriter != nil {
		_ = fileWriter.Close()
	}
	fileWriter = lj
	defaultLogger = logger
	mu.Unlock()

	slog.SetDefault(logger)
	return nil
}

// Close flushes and closes the rotating log file, if one is open.
// Should be called on application shutdown.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	mu.RLock()
	logger := defaultLogger
	mu.RUnlock()

	if logger == nil {
		// Not initialized: nothing below warn reaches the terminal.
		if level < LevelWarn {
			return
		}
		logger = slog.Default()
	}

	if !logger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// AuditEvent describes a security-relevant change to stored credentials.
// Token values must never be placed in any field.
type AuditEvent struct {
	Action  string
	Outcome string
	Target  string
	Error   string
}

// Audit logs a credential audit record at INFO level with a SECURITY_AUDIT prefix.
func Audit(ev AuditEvent) {
	mu.RLock()
	logger := defaultLogger
	mu.RUnlock()
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("subsystem", "Audit"),
		slog.String("event", ev.Action),
		slog.String("outcome", ev.Outcome),
		slog.Time("at", time.Now()),
	}
	if ev.Target != "" {
		attrs = append(attrs, slog.String("target", ev.Target))
	}
	if ev.Error != "" {
		attrs = append(attrs, slog.String("error", ev.Error))
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "SECURITY_AUDIT: "+ev.Action, attrs...)
}
