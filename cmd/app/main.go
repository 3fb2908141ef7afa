package main

import (
	"flag"
	"log"

	"github.com/aayeshatech/SYMBOLASTRO/internal/di"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/config"
	applogger "github.com/aayeshatech/SYMBOLASTRO/pkg/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	l := app.Logger()
	l.Info("starting",
		applogger.String("env", cfg.Environment),
		applogger.String("cache_backend", cfg.Cache.Backend),
		applogger.Bool("kafka", cfg.Kafka.Enabled),
		applogger.Bool("notify", cfg.Notify.Enabled),
		applogger.Strings("symbols", cfg.Analysis.Symbols),
	)

	// Run application (blocks until signal). Fatal skips deferred calls,
	// so cleanup runs explicitly first.
	err = app.Run()
	cleanup()
	if err != nil {
		l.Fatal("app error", applogger.Error(err))
	}
}
