package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/urfave/cli/v3"

	"github.com/atom0s/depak/internal/pak"
	"github.com/atom0s/depak/internal/server"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:      "serve",
		Usage:     "Browse a PAK archive over HTTP",
		ArgsUsage: "<archive.pak>",
		Flags: append(loggingFlags(),
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
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return cli.Exit("error: no input file given", exitInvalidInput)
			}
			path := cmd.Args().First()

			cfg, err := loadConfig()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read config: %v", err), exitInvalidInput)
			}
			applyConfig(cmd, cfg, nil, &addr)

			log := newLogger()

			a, err := pak.Open(path)
			if err != nil {
				return exitErr(err)
			}
			defer func() { _ = a.Close() }()

			srv, err := server.New(a, path, log)
			if err != nil {
				return exitErr(err)
			}

			e := echo.New()
			srv.Register(e)
			log.Info("serving archive", "path", path, "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(s *http.Server) error {
					s.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
