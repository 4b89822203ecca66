package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/brianly1003/glance/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures the global logger. With fileOnly set, nothing is
// written to stderr; the TUI uses this so log lines never reach the screen.
func setupLogging(cfg *config.Config, fileOnly bool) io.Closer {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if !fileOnly {
		writers = append(writers, consoleOrJSON(cfg.Logging.Format, os.Stderr))
	}

	var closer io.Closer = nopCloser{}
	if sink := fileSink(cfg.Logging); sink != nil {
		writers = append(writers, sink)
		closer = sink
	}

	switch len(writers) {
	case 0:
		log.Logger = zerolog.New(io.Discard)
	case 1:
		log.Logger = zerolog.New(writers[0]).With().Timestamp().Logger()
	default:
		log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	}
	return closer
}

// consoleOrJSON picks the stderr encoding. "auto" means console on a TTY and
// json otherwise.
func consoleOrJSON(format string, out *os.File) io.Writer {
	console := format == "console" || verbose
	if format == "auto" || format == "" {
		console = isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	}
	if console {
		return zerolog.ConsoleWriter{Out: out}
	}
	return out
}

func fileSink(cfg config.LoggingConfig) *lumberjack.Logger {
	if cfg.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
