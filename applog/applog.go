// Package applog provides general-purpose application logging.
//
// Logs are written to ~/.chatdb/logs/app.log (or the configured path) as
// zerolog JSON or console lines. Until Setup runs, logging is discarded so
// the TUI's terminal is never written to.
package applog

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the log sink.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Path   string // empty means ~/.chatdb/logs/app.log

	// Output overrides Path when set.
	Output io.Writer
}

var (
	mu      sync.RWMutex
	base    = zerolog.Nop()
	logFile *os.File
)

// Setup opens the log sink. Calling it again replaces the previous sink.
func Setup(opts Options) error {
	out := opts.Output
	var f *os.File
	if out == nil {
		path := opts.Path
		if path == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(homeDir, ".chatdb", "logs", "app.log")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return err
		}
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		out = f
	}

	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime, NoColor: true}
	}
	zl := zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	base = zl
	return nil
}

// Logger returns the root logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// For returns a sub-logger tagged with a component name.
func For(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

// Info logs a general info message.
func Info(format string, args ...interface{}) {
	l := Logger()
	l.Info().Msgf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	l := Logger()
	l.Error().Msgf(format, args...)
}

// Event logs a message under a category such as "startup" or "warehouse".
func Event(category string, format string, args ...interface{}) {
	l := Logger()
	l.Info().Str("category", category).Msgf(format, args...)
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	base = zerolog.Nop()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
