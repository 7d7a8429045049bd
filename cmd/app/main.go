package main

import (
	"flag"
	"log"
	"os"

	"EconDash/internal/di"
	"EconDash/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s data_dir=%s history=%s indicators=%d", cfg.Environment, cfg.Storage.DataDir, cfg.Storage.History, len(cfg.Indicators))
	for _, w := range cfg.Warnings {
		log.Printf("config warning: %s", w)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	err = app.Run()
	cleanup()
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
