// Package main is the entry point for the scenegl viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/app"
	"github.com/Faultbox/scenegl/internal/config"
	"github.com/Faultbox/scenegl/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := initLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== scenegl viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}

	err = a.Run(ctx)
	a.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

func initLogger(cfg config.LoggingConfig) error {
	if cfg.LogFile == "" {
		return logger.Init(cfg.Level, "")
	}
	fileCfg := logger.DefaultFileConfig(cfg.LogFile)
	fileCfg.JSON = cfg.JSON
	return logger.InitWithFileConfig(cfg.Level, fileCfg, true)
}
