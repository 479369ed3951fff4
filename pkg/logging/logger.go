// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is the minimum level an entry needs to be written.
type LogLevel string

// Levels accepted by Setup. Unknown values fall back to LevelInfo.
const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Component names carried in the "component" field.
const (
	ComponentPagination = "pagination"
	ComponentFetch      = "fetch"
	ComponentPagectl    = "pagectl"
)

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to uncoloured console output.
	Pretty bool

	// Output receives the entries (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup installs the global logger and level. Loggers returned by
// NewLogger copy the global logger, so call Setup before building a
// Paginator or fetch.Engine.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, NoColor: true}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Page transitions (page, direction, record count)
//   - Rejected page requests and discarded stale responses
//   - Cache operations (hit/miss, key, TTL)
//   - Instance lifecycle (initialized, destroyed)
//
// Info: Normal operation events
//   - Batch fetch progress and completion
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - JSONP failures with no error handler
//   - Cache errors (fallback to direct request)
//   - Failed page requests inside a batch
//
// Error: Error conditions requiring attention
//   - Standard transport failures with no error handler
//   - Asynchronous data source failures
//   - Configuration errors
//
// Context Fields:
//   - component: Package emitting the entry (pagination, fetch, cache, pagectl)
//   - container: ID of the container element
//   - page: Requested page number
//   - transport: standard, jsonp or cache
//   - tag: fetchError, jsonpTimeout or jsonpError
//   - status_code: HTTP status code
//   - duration: Request duration
//   - cache_hit: Boolean indicating cache hit
