// Package logging configures zerolog for the cadastre client and its commands.
//
// Packages log through component loggers from NewLogger. Page-level detail is
// Debug, region and project events are Info, VWorld rejections, retries and
// cache fallbacks are Warn, and transport failures are Error. Common fields
// are query, page, status, features, error_text, http_status and duration.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component names used with NewLogger.
const (
	ComponentClient    = "vworld-client"
	ComponentCollector = "collector"
	ComponentCache     = "cache"
	ComponentProject   = "project-store"
	ComponentServer    = "server"
)

// Config holds logger configuration.
type Config struct {
	// Level is a zerolog level name such as "debug" or "warn".
	Level string

	// Pretty switches from JSON lines to console output.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{Level: zerolog.InfoLevel.String(), Output: os.Stderr}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return log.Logger
}

// ParseLevel maps a level name to a zerolog level. "warning" is accepted as
// "warn"; empty and unknown names yield info.
func ParseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Options are command-line logging options for go-flags parsers.
type Options struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Pretty bool   `long:"log-pretty" env:"LOG_PRETTY" description:"Human-readable console output instead of JSON"`
}

// Setup configures the global logger from the options, writing to stderr.
func (o Options) Setup() zerolog.Logger {
	return Setup(Config{Level: o.Level, Pretty: o.Pretty})
}
