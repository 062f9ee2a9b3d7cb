// Command easelserve hosts a shared board over HTTP. Browsers connect to a
// websocket for input and change events, and pull rendered frames from the
// snapshot endpoint. All engine access is serialized onto one goroutine;
// handlers post closures to it instead of touching the board directly.
//
// Configuration comes from the environment with the EASEL_ prefix, for
// example EASEL_ADDR=:9000 EASEL_DOC=team.json easelserve.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/easel2d/easel/engine/core"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `default:":8080"`

	// Doc is a board file to load at startup and save on shutdown. Empty
	// starts blank and keeps nothing.
	Doc string `default:""`

	// Width and Height fix the logical board size in pixels. Clients adapt
	// to the server, not the other way around.
	Width  int `default:"1280"`
	Height int `default:"720"`

	Grid bool `default:"true"`

	LogLevel slog.Level `envconfig:"LOG_LEVEL" default:"INFO"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("easel", &cfg); err != nil {
		slog.Error("easelserve: bad configuration", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	core.SetLogger(logger)

	srv, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("easelserve: start failed", "err", err)
		os.Exit(1)
	}

	web := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- web.ListenAndServe() }()
	logger.Info("easelserve: listening", "addr", cfg.Addr, "board", boardName(cfg))

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("easelserve: listener failed", "err", err)
			srv.close()
			os.Exit(1)
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := web.Shutdown(shutCtx); err != nil {
		logger.Warn("easelserve: shutdown incomplete", "err", err)
	}
	srv.close()
	logger.Info("easelserve: stopped")
}

func boardName(cfg Config) string {
	if cfg.Doc == "" {
		return "(blank)"
	}
	return cfg.Doc
}
