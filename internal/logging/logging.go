// Package logging holds the process-wide logrus logger.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// Log returns the shared logger.
func Log() *logrus.Logger {
	return logger
}

// Configure sets the level ("debug", "info", "warn", "error") and the formatter ("json" or "text").
// An unknown level keeps the current one and is reported at warn.
func Configure(level, format string) {
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		logger.SetLevel(lvl)
	} else if level != "" {
		logger.Warnf("Unknown LOG_LEVEL %q, keeping %s.", level, logger.GetLevel())
	}

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects the shared logger; tests use it to capture entries.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}
