package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"firetype/config"
	fhttp "firetype/http"
	"firetype/inference"
	"firetype/logging"
	"firetype/ml"
	"firetype/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	// 1. Load config
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    cfg.Log.Compress,
		Development: cfg.UI.DevMode,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 3. Artifacts, before the listener opens
	metrics := monitoring.NewMetrics()
	adapter, err := inference.Load(inference.Options{
		ScalerPath: cfg.Artifacts.ScalerPath,
		ModelPath:  cfg.Artifacts.ModelPath,
		CacheSize:  cfg.Inference.CacheSize,
		Logger:     logger,
		Metrics:    metrics,
	})
	if err != nil {
		var loadErr *ml.ArtifactLoadError
		if errors.As(err, &loadErr) {
			logger.Error("cannot load artifact",
				zap.String("artifact", loadErr.Artifact),
				zap.String("path", loadErr.Path),
				zap.Error(loadErr.Err))
		}
		return err
	}

	// 4. HTTP server
	server, err := fhttp.NewServer(fhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		Locale:         cfg.UI.Locale,
		DevMode:        cfg.UI.DevMode,
		TemplateDir:    cfg.UI.TemplateDir,
	}, fhttp.Dependencies{Predictor: adapter, Logger: logger, Metrics: metrics})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	logger.Info("exiting")
	return nil
}
