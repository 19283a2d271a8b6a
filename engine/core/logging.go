package core

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

const defaultLogPrefix = "delta"

/** @brief Logger configuration, read from the [log] table of the project config. */
type LogConfig struct {
	/** @brief One of debug, info, warn, error, fatal. */
	Level string `toml:"level"`
	/** @brief Prefix printed in front of every line. */
	Prefix string `toml:"prefix"`
	/** @brief Report the calling file and line. */
	ReportCaller bool `toml:"report_caller"`
}

// NewLogger builds the session logger. Every subsystem receives it explicitly;
// nothing in the engine reaches for a package-level logger.
func NewLogger(w io.Writer, cfg LogConfig) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultLogPrefix
	}
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.ReportCaller,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = log.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// LoggerOrDefault returns l, or the charmbracelet default logger when l is nil.
func LoggerOrDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
