package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxload/internal/api"
	"github.com/samcharles93/ktxload/internal/engine"
	"github.com/samcharles93/ktxload/internal/logger"
	"github.com/samcharles93/ktxload/internal/transcode"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxUpload   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the texture REST API",
		Flags: append(engineFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-upload",
				Usage:       "maximum container upload in bytes",
				Value:       api.DefaultMaxUpload,
				Destination: &maxUpload,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, LoadConfig(), &addr)

			caps, err := transcode.ParseCapabilities(capabilities)
			if err != nil {
				return err
			}
			svc, closer, err := engine.New(ctx, engine.Config{
				Name:   engineName,
				Path:   enginePath,
				Args:   engineArgs,
				Logger: log,
			})
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			server := api.NewServer(api.NewTextureStore(), api.Options{
				Service:      svc,
				Capabilities: caps,
				Workers:      int(workers),
				MaxUpload:    maxUpload,
				Logger:       log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "engine", engineName, "caps", caps.String())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
