package main

import (
	"flag"
	"log"
	"os"

	"ETFScraper/internal/di"
	"ETFScraper/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "optional YAML config file path")
	flag.Parse()

	// Load config: defaults, YAML, .env, environment
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
