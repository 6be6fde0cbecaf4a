package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxload/internal/engine"
	"github.com/samcharles93/ktxload/internal/logger"
)

var (
	capabilities string
	engineName   string
	enginePath   string
	engineArgs   []string
	workers      int64
	logLevel     string
	logFormat    string
	debug        bool
)

func capabilityFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "caps",
		Usage:       "comma-separated GPU capabilities (astc, bptc, dxt, pvrtc, etc1)",
		Destination: &capabilities,
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		capabilityFlag(),
		&cli.StringFlag{
			Name:        "engine",
			Usage:       "transcoding engine (" + engine.Available() + ")",
			Value:       engine.None,
			Destination: &engineName,
		},
		&cli.StringFlag{
			Name:        "engine-path",
			Usage:       "path to the transcoder binary for the process engine",
			Destination: &enginePath,
		},
		&cli.StringSliceFlag{
			Name:        "engine-args",
			Usage:       "extra arguments passed to the transcoder binary",
			Destination: &engineArgs,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "levels transcoded concurrently (0 or 1 decodes sequentially)",
			Destination: &workers,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// setupLogging overlays the config file onto the logging flags and stores
// the resulting logger in the context.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	applyLoggingConfig(cmd, LoadConfig())
	log := newLogger(os.Stderr, logFormat, logLevel, debug)
	return logger.WithContext(ctx, log), nil
}

func newLogger(w io.Writer, format, level string, debug bool) logger.Logger {
	lvl := logger.ParseLevel(level)
	if debug {
		lvl = logger.ParseLevel("debug")
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return logger.JSON(w, lvl)
	case "text":
		return logger.Text(w, lvl)
	default:
		return logger.Pretty(w, lvl)
	}
}
