// Command nowcastd publishes the local media session to nowcast displays.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"nowcast/internal/config"
	"nowcast/internal/hub"
	"nowcast/internal/media"
	"nowcast/internal/poller"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/nowcast/config.yaml)")
	listen := flag.String("listen", "", "Listen address, e.g. :8765")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	overrides := map[string]any{}
	if *listen != "" {
		overrides["server.listen"] = *listen
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}

	loader, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := loader.Config().Get()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("hub stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	provider, err := media.NewProvider()
	if err != nil {
		return err
	}

	h := hub.New(provider, hub.WithLogger(logger.With("component", "hub")))
	defer h.Close()

	p := poller.New(provider, h, cfg.PollInterval(),
		poller.WithLogger(logger.With("component", "poller")),
	)

	srv := hub.NewServer(h,
		hub.WithSendBuffer(cfg.Server.SendBuffer),
		hub.WithCommandRate(cfg.Server.CommandRate, cfg.Server.CommandBurst),
		hub.WithPingInterval(cfg.ServerPingInterval()),
		hub.WithServerLogger(logger.With("component", "server")),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("hub listening", "addr", cfg.Server.Listen, "poll_interval", cfg.PollInterval())
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.Close()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
