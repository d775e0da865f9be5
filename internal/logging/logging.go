// Package logging builds the logrus loggers used across the binary.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format selects the logrus formatter.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New returns a logger writing to stderr at the given level. Unknown levels
// are rejected so a typo in configuration does not silently drop logs.
func New(level string, format Format) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if err := SetLevel(logger, level); err != nil {
		return nil, err
	}

	switch Format(strings.ToLower(string(format))) {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText, "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return logger, nil
}

// SetLevel applies a textual level ("debug", "info", "warn", "error").
func SetLevel(logger *logrus.Logger, level string) error {
	if strings.TrimSpace(level) == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	logger.SetLevel(parsed)
	return nil
}

// Discard returns a logger that drops everything. Library types default to it
// when no logger is injected.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
