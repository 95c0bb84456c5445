// Package main is the entry point for the schema-merge HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/app"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/config"
	internaldb "github.com/selvxhini-10/EY-Schema-Merger/internal/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	pools, err := internaldb.OpenPools(cfg.HistoryDBPath, 0)
	if err != nil {
		return fmt.Errorf("open history db: %w", err)
	}
	defer pools.Close() //nolint:errcheck

	application, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		WriteDB: pools.Write,
		ReadDB:  pools.Read,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if err := application.Pruner.Start(ctx); err != nil {
		return fmt.Errorf("start history pruner: %w", err)
	}
	defer application.Pruner.Stop()

	srv := newHTTPServer(ctx, cfg.ListenAddr, application.Router(ctx, cfg, logger))

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP API listening", "addr", cfg.ListenAddr, "env", cfg.Env,
		"try", "curl http://"+curlHostForListenAddr(cfg.ListenAddr)+"/healthz")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// newHTTPServer builds the API server. Request contexts derive from ctx, so
// cancelling it ends open pipeline log streams before Shutdown waits on them.
func newHTTPServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 15 * time.Second,
		// no WriteTimeout: the pipeline log stream stays open
		IdleTimeout: 120 * time.Second,
	}
}

// newLogger returns a JSON logger in production and a text logger otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// curlHostForListenAddr turns a listen address into a host:port a local
// client can reach. Wildcard and empty hosts become localhost.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
