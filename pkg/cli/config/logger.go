package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Logger holds logger configuration
type Logger struct {
	Level  string
	Format string
}

// Flags returns CLI flags for Logger configuration
func (l *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Category:    "Logging",
			Value:       "info",
			Sources:     cli.EnvVars("DEFECTPULSE_LOG_LEVEL"),
			Destination: &l.Level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json, auto)",
			Category:    "Logging",
			Value:       "auto",
			Sources:     cli.EnvVars("DEFECTPULSE_LOG_FORMAT"),
			Destination: &l.Format,
		},
	}
}

// Configure builds a logger from the configuration
func (l *Logger) Configure() (*slog.Logger, error) {
	switch l.Format {
	case "console", "json", "auto", "":
	default:
		return nil, goerr.New("invalid log format", goerr.V("format", l.Format))
	}

	switch l.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return nil, goerr.New("invalid log level", goerr.V("level", l.Level))
	}

	return logging.New(logging.ParseLevel(l.Level), os.Stdout, logging.ParseFormat(l.Format)), nil
}

// LogValue returns structured log value
func (l Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", l.Level),
		slog.String("format", l.Format),
	)
}
