package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"ReviewDesk/internal/app"
	"ReviewDesk/internal/config"
	"ReviewDesk/internal/logging"
)

func main() {
	configPath := pflag.String("config", "", "path to the YAML config (defaults to $REVIEWDESK_CONFIG)")
	once := pflag.Bool("once", false, "refresh the feed once, print it as JSON and exit")
	limit := pflag.Int("limit", 0, "feed size for --once (defaults to feed.limit)")
	pflag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.New("warn").Warn("cannot load .env", "error", err)
	}

	cfg := config.Load(*configPath)
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	if *once {
		err = application.RunOnce(ctx, *limit, os.Stdout)
	} else {
		err = application.Run(ctx)
	}
	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
