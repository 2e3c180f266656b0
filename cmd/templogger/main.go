// Package main implements the temperature logger server entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/api"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/history"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/logging"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/metrics"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/sink"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/station"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/telemetry"
)

// Version is the server version.
const Version = "1.0.0"

func main() {
	// Step 1: Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Step 2: Initialize logging
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Close()

	lg := logger.Logger
	lg.Info("starting temperature logger",
		zap.String("version", Version),
		zap.String("environment", cfg.Server.Environment))

	// Step 3: Initialize metrics
	m := metrics.New()

	// Step 4: Initialize telemetry hub
	hub := telemetry.NewHub(cfg.Telemetry, lg.Named("hub"), m)

	// Step 5: Initialize sinks
	sinks := sink.FromConfig(cfg.Sinks, lg.Named("sink"))
	fanout := sink.NewFanout(sinks, cfg.Sinks.QueueSize, sink.WriteTimeout(cfg.Sinks), lg.Named("sink"), m)

	// Step 6: Create station
	gen := reading.NewGenerator(cfg.Sampling.Seed,
		reading.WithBounds(cfg.Sampling.Min, cfg.Sampling.Max),
		reading.WithSineTrend(cfg.Sampling.TrendPeriod, cfg.Sampling.TrendAmplitude),
		reading.WithTrendWeight(cfg.Sampling.TrendWeight),
	)
	st := station.New(cfg.Sampling, cfg.History, station.Deps{
		Generator: gen,
		Store:     history.New(cfg.History.Capacity),
		Hub:       hub,
		Mirror:    fanout,
		Recorder:  m,
		Logger:    lg.Named("station"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := st.Run(ctx); err != nil && ctx.Err() == nil {
			lg.Error("station stopped unexpectedly", zap.Error(err))
		}
	}()

	// Step 7: Start HTTP server
	server := api.NewServer(cfg, st, m, lg.Named("api"), logger.Writer("access"))

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	lg.Info("temperature logger started",
		zap.String("addr", cfg.Server.Addr()),
		zap.Duration("tickInterval", cfg.Sampling.TickInterval),
		zap.Int("sinks", fanout.Len()))

	// Set up graceful shutdown; SIGHUP reopens the log file
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

wait:
	for {
		select {
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				if err := logger.Rotate(); err != nil {
					lg.Warn("log rotation failed", zap.Error(err))
				}
				continue
			}
			lg.Info("received signal, shutting down", zap.String("signal", sig.String()))
			break wait
		case err := <-serverErr:
			lg.Error("server error", zap.Error(err))
			break wait
		}
	}

	// Ticker first so no reading is produced during teardown, then viewers
	// and sinks, then the listener.
	st.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		lg.Warn("error stopping HTTP server", zap.Error(err))
	}

	lg.Info("temperature logger shutdown complete")
}
