package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yaron8/dashboard-feed/generator/bootstrap"
	"github.com/yaron8/dashboard-feed/generator/config"
	"github.com/yaron8/dashboard-feed/logi"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	level, err := logi.ParseLevel(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	if _, err := logi.NewLog(&logi.Config{
		LogDir:      cfg.Log.Dir,
		LogFileName: cfg.Log.File,
		Stdout:      cfg.Log.Stdout,
		Level:       level,
	}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger := logi.GetLogger()

	bootstrap, err := bootstrap.NewBootstrap(cfg, logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to create generator bootstrap: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Run(ctx); err != nil {
		logger.Error("Generator exited with error", "error", err)
		os.Exit(1)
	}
}
