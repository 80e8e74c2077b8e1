// Command nowcast is the terminal display of a nowcast hub: it shows the
// track playing on the hub's machine and sends transport commands back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"nowcast/internal/animator"
	"nowcast/internal/artwork"
	"nowcast/internal/config"
	"nowcast/internal/conn"
)

func main() {
	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	loader, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := loader.Config().Get()

	// The terminal belongs to the UI, so logs go to a file.
	logPath := cfg.Log.File
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "nowcast.log")
	}
	logFile, err := tea.LogToFile(logPath, "nowcast")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	if err := run(loader, cfg, logger); err != nil {
		logger.Error("display stopped", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(loader *config.Loader, cfg config.Config, logger *slog.Logger) error {
	extractor, err := artwork.NewExtractor(cfg.Animation.Palette)
	if err != nil {
		logger.Warn("unknown palette, using quantize", "palette", cfg.Animation.Palette, "error", err)
		extractor = artwork.QuantizeExtractor{}
	}

	anim := animator.New(extractor,
		append(animatorOptions(cfg), animator.WithLogger(logger.With("component", "animator")))...,
	)

	mgr := conn.New(cfg.Client.URL,
		conn.WithRetryDelay(cfg.RetryDelay()),
		conn.WithPingInterval(cfg.ClientPingInterval()),
		conn.WithLogger(logger.With("component", "conn")),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go mgr.Run(ctx)

	loader.Watch(notifyConfigChange)
	logger.Info("display starting", "url", cfg.Client.URL, "palette", extractor.Name(), "config", loader.File())

	p := tea.NewProgram(newModel(loader.Config(), mgr, anim, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// animatorOptions are the animator settings that follow the config file.
func animatorOptions(cfg config.Config) []animator.Option {
	return []animator.Option{
		animator.WithCoverFade(cfg.CoverFade()),
		animator.WithGradientFade(cfg.GradientFade()),
		animator.WithMultipliers(cfg.Animation.TopMultiplier, cfg.Animation.BottomMultiplier),
		animator.WithCoverSize(cfg.UI.CoverColumns, cfg.UI.CoverRows*2),
	}
}
