// Package logging sets up the process-wide charmbracelet/log logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/config"
)

// New builds a logger writing to w from the log section of the config.
func New(w io.Writer, cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	formatter, err := parseFormatter(cfg.Format)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: level == log.DebugLevel,
		Prefix:          "tada",
	}), nil
}

// Setup builds the logger and installs it as the default.
func Setup(w io.Writer, cfg config.LogConfig) (*log.Logger, error) {
	l, err := New(w, cfg)
	if err != nil {
		return nil, err
	}
	log.SetDefault(l)
	return l, nil
}

func parseFormatter(name string) (log.Formatter, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return log.TextFormatter, fmt.Errorf("unknown log format %q", name)
}
