// Package logger configures the structured zerolog logger shared by the CLI, server and worker.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. Until Init is called it is zerolog's
// default stderr logger.
var Logger = log.Logger

// Config controls level and output format.
type Config struct {
	Level      string `json:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `json:"format" yaml:"format"`           // json or pretty
	TimeFormat string `json:"time_format" yaml:"time_format"` // defaults to RFC3339
}

// New builds a logger writing to w according to cfg.
func New(w io.Writer, cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	output := w
	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: timeFormat,
		}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Init replaces the global logger. Logs go to stderr so stdout stays free for command output.
func Init(cfg Config) zerolog.Logger {
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}
	Logger = New(os.Stderr, cfg)
	log.Logger = Logger
	return Logger
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithContext attaches the global logger to ctx.
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}

// Ctx returns the logger stored in ctx, or a disabled logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
