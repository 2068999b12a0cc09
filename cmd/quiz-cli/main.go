package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"quiz-client/internal/cli"
	"quiz-client/internal/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("QUIZ_CONFIG"), "path to a YAML config file")
	server := flag.String("server", "", "quiz backend base URL (overrides config)")
	dbPath := flag.String("db", "", "local session database (overrides config)")
	timeout := flag.Duration("timeout", 0, "HTTP timeout (overrides config)")
	verbose := flag.Bool("v", false, "log diagnostics to stderr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Client.ServerURL = *server
	}
	if *dbPath != "" {
		cfg.Client.DBPath = *dbPath
	}
	if *timeout > 0 {
		cfg.Client.HTTPTimeout = *timeout
	}

	// Diagnostics would interleave with the prompt, so they are off unless asked for.
	logger := log.New(os.Stderr, "quiz-cli: ", log.LstdFlags)
	if !*verbose {
		logger.SetOutput(io.Discard)
		log.SetOutput(io.Discard)
	}

	// Every change is saved as it happens, so an interrupt loses nothing.
	err = cli.Run(context.Background(), os.Stdin, os.Stdout, cli.Config{
		ServerURL:    cfg.Client.ServerURL,
		HTTPTimeout:  cfg.Client.HTTPTimeout,
		TickInterval: cfg.Client.TickInterval,
		DBPath:       cfg.Client.DBPath,
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
