// Package logger owns the process-wide zerolog logger. Adapters and the
// orchestrator take a Named child so every line carries its component.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the project-wide logging type.
type Logger = zerolog.Logger

// Options configures the root logger.
type Options struct {
	Level  string // trace|debug|info|warn|error
	Format string // console|json
	Writer io.Writer
}

// FromEnv reads LOG_LEVEL and LOG_FORMAT.
func FromEnv() Options {
	return Options{
		Level:  strings.ToLower(envOr("LOG_LEVEL", "info")),
		Format: strings.ToLower(envOr("LOG_FORMAT", "console")),
	}
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Init builds the root logger. Only the first call has effect.
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stderr
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format != "json" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		l := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp().Str("service", "leadscout").Logger()
		root.Store(&l)
	})
}

// Get returns the root logger, initializing it from the environment if needed.
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Named returns a child logger with a component field.
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}

// Nop is handy for tests and for components constructed without a logger.
func Nop() *Logger {
	l := zerolog.Nop()
	return &l
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
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

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
