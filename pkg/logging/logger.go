// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup builds a logger from cfg. It does not touch the zerolog globals;
// callers pass the returned logger to the components that need it.
func Setup(cfg Config) zerolog.Logger {
	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent derives a logger tagged with the given component name.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Individual upstream requests and cache hits
//   - Staging file paths
//
// Info: Normal operation events
//   - Batch completion with progress
//   - Crawl start/finish and export paths
//
// Warn: Conditions that don't abort the crawl
//   - Detail lookups answered with 404 (placeholder written)
//   - Detail lookups with any other non-200 status (dropped)
//   - Retry attempts, cache errors
//
// Error: Conditions that abort the crawl
//   - Transport failures
//   - Staging file failures
//
// Context Fields:
//   - component: emitting component
//   - run_id: crawl run identifier
//   - resource: "subarea", "school_list" or "school_detail"
//   - batch / batches: batch index and total
//   - npsn, url, status: per-item detail outcome
//   - staging_file: staging file path
