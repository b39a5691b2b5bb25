package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/cardroom/holdem/internal/server"
)

var CLI struct {
	Config     string `short:"c" default:"holdem-server.hcl" help:"Path to HCL configuration file"`
	Addr       string `short:"a" help:"Listen address (overrides config)"`
	LogLevel   string `short:"l" help:"Log level (overrides config)"`
	ArchiveDir string `help:"Hand history directory (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("holdem-server"),
		kong.Description("WebSocket server for heads-up-style hold'em sessions against bots."))

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		log.Fatal("failed to load config", "path", CLI.Config, "err", err)
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.ArchiveDir != "" {
		cfg.Archive.Dir = CLI.ArchiveDir
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.Fatal("invalid log level", "level", cfg.Server.LogLevel)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	addr := cfg.Server.ListenAddr()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	var opts []server.GameServiceOption
	if cfg.Archive.Dir != "" {
		opts = append(opts, server.WithArchiver(server.NewArchiver(cfg.Archive.Dir, logger)))
	}
	service := server.NewGameService(cfg, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(addr, service, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited", "err", err)
		kctx.Exit(1)
	}
}
