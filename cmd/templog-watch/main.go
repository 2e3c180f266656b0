// Package main implements the terminal dashboard for the temperature logger.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/logging"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	serverURL := flag.String("server", cfg.Client.ServerURL, "websocket URL of the logger")
	logFile := flag.String("log", "templog-watch.log", "log file (the terminal belongs to the dashboard)")
	flag.Parse()
	cfg.Client.ServerURL = *serverURL

	// Console logging would corrupt the TUI; log to the file only
	cfg.Logging.File = *logFile
	logger, err := logging.NewWithWriter(cfg.Logging, io.Discard)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan interface{}, 64)
	client := watch.NewClient(cfg.Client, logger.Named("client"))
	go func() {
		_ = client.Run(ctx, events)
	}()

	model := watch.NewModel(watch.NewState(cfg.Client), events, cfg.Client.ServerURL)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("dashboard failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
