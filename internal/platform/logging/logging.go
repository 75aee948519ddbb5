package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// DefaultLogger is used by components that are constructed without an
// explicit logger.
var DefaultLogger *Logger

const (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m"
	colorDebug = "\x1b[36m"
	colorInfo  = "\x1b[32m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
)

// tag colors for bracketed module prefixes, e.g. "[HTTP] route registered".
var tagColors = map[string]string{
	"[Boot]":     "\x1b[96m",
	"[HTTP]":     "\x1b[95m",
	"[Provider]": "\x1b[34m",
	"[Parser]":   "\x1b[36m",
	"[Store]":    "\x1b[92m",
}

// consoleHandler renders timestamped, colorized lines for terminals.
type consoleHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var levelStr, levelColor string
	switch r.Level {
	case slog.LevelDebug:
		levelStr, levelColor = "DEBUG", colorDebug
	case slog.LevelWarn:
		levelStr, levelColor = "WARN", colorWarn
	case slog.LevelError:
		levelStr, levelColor = "ERROR", colorError
	default:
		levelStr, levelColor = "INFO", colorInfo
	}

	msg := r.Message
	for tag, color := range tagColors {
		if strings.HasPrefix(msg, tag) {
			msg = color + tag + colorReset + msg[len(tag):]
			break
		}
	}

	_, err := fmt.Fprintf(
		h.writer,
		"%s%s%s %s[%s]%s %s\n",
		colorTime, timeStr, colorReset,
		levelColor, levelStr, colorReset,
		msg,
	)
	return err
}

func (h *consoleHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *consoleHandler) WithGroup(string) slog.Handler      { return h }

// fileHandler writes plain, uncolored lines.
type fileHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func (h *fileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *fileHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var levelStr string
	switch r.Level {
	case slog.LevelDebug:
		levelStr = "DEBUG"
	case slog.LevelWarn:
		levelStr = "WARN"
	case slog.LevelError:
		levelStr = "ERROR"
	default:
		levelStr = "INFO"
	}

	_, err := fmt.Fprintf(
		h.writer,
		"%s [%s] %s\n",
		r.Time.Format("2006-01-02 15:04:05.000"),
		levelStr,
		r.Message,
	)
	return err
}

func (h *fileHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *fileHandler) WithGroup(string) slog.Handler      { return h }

// fanoutHandler duplicates records to every underlying handler.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sub := range h.handlers {
		if sub.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, sub := range h.handlers {
		if !sub.Enabled(ctx, r.Level) {
			continue
		}
		if err := sub.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *fanoutHandler) WithGroup(string) slog.Handler      { return h }

// Logger wraps slog with printf-style helpers and module tags.
type Logger struct {
	slogger *slog.Logger
	file    *os.File
	level   slog.Level
}

// New creates a Logger writing colorized output to stdout and plain output
// to Dir/Filename. The log file is optional: an empty Filename disables it.
func New(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.Level)

	handlers := []slog.Handler{
		&consoleHandler{writer: os.Stdout, level: level},
	}

	var file *os.File
	if cfg.Filename != "" {
		dir := cfg.Dir
		if dir == "" {
			dir = "logs"
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		path := filepath.Join(dir, cfg.Filename)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		handlers = append(handlers, &fileHandler{writer: f, level: level})
	}

	return &Logger{
		slogger: slog.New(&fanoutHandler{handlers: handlers}),
		file:    file,
		level:   level,
	}, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Slog exposes the structured logger for integrations that want slog directly.
func (l *Logger) Slog() *slog.Logger {
	return l.slogger
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l *Logger) DebugTag(tag, format string, args ...any) {
	l.log(slog.LevelDebug, "["+tag+"] "+format, args...)
}

func (l *Logger) InfoTag(tag, format string, args ...any) {
	l.log(slog.LevelInfo, "["+tag+"] "+format, args...)
}

func (l *Logger) WarnTag(tag, format string, args ...any) {
	l.log(slog.LevelWarn, "["+tag+"] "+format, args...)
}

func (l *Logger) ErrorTag(tag, format string, args ...any) {
	l.log(slog.LevelError, "["+tag+"] "+format, args...)
}

func (l *Logger) log(level slog.Level, format string, args ...any) {
	if l == nil || l.slogger == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.slogger.Log(context.Background(), level, msg)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Timestamp returns the formatted current time used by startup banners.
func Timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000")
}
