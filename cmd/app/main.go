package main

import (
	"flag"
	"fmt"
	"os"

	"StockInsight/internal/di"
	"StockInsight/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "app initialization failed: %v\n", err)
		os.Exit(1)
	}

	// Run logs its own failures; cleanup closes the clients either way.
	runErr := app.Run()
	cleanup()
	if runErr != nil {
		os.Exit(1)
	}
}
