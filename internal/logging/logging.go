package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

// Options configures the logger output. The zero value logs to stderr
// using the level taken from the environment.
type Options struct {
	// Level overrides LOG_LEVEL when non-empty. DEBUG=true still wins.
	Level string
	// File enables a rotating log file in addition to the console.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Color enables ANSI colors on the console writer.
	Color bool
}

var (
	mu           sync.RWMutex
	currentLevel LogLevel
	logger       zerolog.Logger
	levelOnce    sync.Once
)

// initLevel initializes the log level and a default console logger from
// environment variables.
func initLevel() {
	levelOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		currentLevel = levelFromEnv("")
		logger = newLogger(consoleWriter(os.Stderr, false))
	})
}

// levelFromEnv resolves the level from DEBUG, then fallback, then LOG_LEVEL.
func levelFromEnv(fallback string) LogLevel {
	if debug := os.Getenv("DEBUG"); debug != "" {
		switch strings.ToLower(debug) {
		case "1", "true", "yes", "on":
			return LevelDebug
		}
	}

	if level, ok := ParseLevel(fallback); ok {
		return level
	}

	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return level
}

// ParseLevel converts a level name into a LogLevel. Unknown names map to
// LevelInfo and report false.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// Configure replaces the default logger. It is safe to call more than once;
// the last call wins.
func Configure(opts Options) {
	initLevel()

	writers := []io.Writer{consoleWriter(os.Stderr, opts.Color)}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}

	mu.Lock()
	defer mu.Unlock()
	currentLevel = levelFromEnv(opts.Level)
	logger = newLogger(io.MultiWriter(writers...))
}

// SetOutput sends all log output to w without console formatting.
// Used by tests to capture log lines.
func SetOutput(w io.Writer) {
	initLevel()

	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// SetLevel changes the active level at runtime.
func SetLevel(level LogLevel) {
	initLevel()

	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

func consoleWriter(out io.Writer, color bool) io.Writer {
	return zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = out
		w.NoColor = !color
		w.TimeFormat = time.DateTime
	})
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.TraceLevel).With().Timestamp().Logger()
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()

	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func emit(level LogLevel, format string, args ...interface{}) {
	if GetLevel() > level {
		return
	}

	mu.RLock()
	l := logger
	mu.RUnlock()

	var ev *zerolog.Event
	switch level {
	case LevelDebug:
		ev = l.Debug()
	case LevelWarn:
		ev = l.Warn()
	case LevelError:
		ev = l.Error()
	default:
		ev = l.Info()
	}
	ev.Msgf(format, args...)
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	emit(LevelDebug, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	emit(LevelInfo, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	emit(LevelWarn, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	emit(LevelError, format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	initLevel()

	mu.RLock()
	l := logger
	mu.RUnlock()

	l.WithLevel(zerolog.FatalLevel).Msgf(format, args...)
	os.Exit(1)
}

// Printf logs at info level regardless of the configured level
func Printf(format string, args ...interface{}) {
	initLevel()

	mu.RLock()
	l := logger
	mu.RUnlock()

	l.Log().Msgf(format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
