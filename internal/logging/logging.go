// Package logging builds the go-kit logger shared by every component.
package logging

import (
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/a3tai/pdf-unlocker/internal/config"
)

// New returns a leveled logger for the configured format and level.
// In stdio mode stdout carries the MCP protocol, so output goes to stderr and is
// dropped entirely unless debug logging was requested.
func New(cfg *config.Config) log.Logger {
	var w io.Writer = os.Stdout
	if cfg.IsStdioMode() {
		w = os.Stderr
		if !cfg.IsDebug() {
			return log.NewNopLogger()
		}
	}
	return NewWithWriter(w, cfg.LogFormat, cfg.LogLevel, cfg.ServerName)
}

// NewWithWriter builds the logger on an explicit writer.
func NewWithWriter(w io.Writer, format, lvl, svc string) log.Logger {
	var logger log.Logger
	if format == config.LogFormatJSON {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}
	logger = level.NewFilter(logger, levelOption(lvl))
	return log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
		"svc", svc,
	)
}

func levelOption(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
