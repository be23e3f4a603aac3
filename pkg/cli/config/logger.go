package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags for logger configuration
type Logger struct {
	level  string
	format string
	output string
}

// Flags returns CLI flags for logger configuration
func (l *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RELAYDESK_LOG_LEVEL"),
			Destination: &l.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console or json)",
			Value:       "console",
			Sources:     cli.EnvVars("RELAYDESK_LOG_FORMAT"),
			Destination: &l.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output destination (stdout, stderr, or a file path)",
			Value:       "stdout",
			Sources:     cli.EnvVars("RELAYDESK_LOG_OUTPUT"),
			Destination: &l.output,
		},
	}
}

// LogValue returns log attributes for the logger configuration
func (l Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", l.level),
		slog.String("format", l.format),
		slog.String("output", l.output),
	)
}

// Configure builds the process wide logger from the configured flags and
// installs it as the default. The returned func closes the output file when
// one was opened.
func (l *Logger) Configure() (func(), error) {
	level, err := parseLogLevel(l.level)
	if err != nil {
		return nil, err
	}

	format, err := parseLogFormat(l.format)
	if err != nil {
		return nil, err
	}

	closer := func() {}
	var w *os.File
	switch l.output {
	case "stdout", "-", "":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		// #nosec G304 - path is expected to be provided by CLI argument
		f, err := os.OpenFile(l.output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open log output file", goerr.V("path", l.output))
		}
		w = f
		closer = func() {
			_ = f.Close()
		}
	}

	logging.SetDefault(logging.New(w, level, format))
	return closer, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, goerr.New("invalid log level", goerr.V("level", s))
	}
}

func parseLogFormat(s string) (logging.Format, error) {
	switch strings.ToLower(s) {
	case "console":
		return logging.FormatConsole, nil
	case "json":
		return logging.FormatJSON, nil
	default:
		return 0, goerr.New("invalid log format", goerr.V("format", s))
	}
}
