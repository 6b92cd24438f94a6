package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meps-serve/internal/api"
	"meps-serve/internal/cfg"
	"meps-serve/internal/metrics"
	"meps-serve/internal/pipeline"
	"meps-serve/internal/serve"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components
	m := metrics.New()
	mw := metrics.NewWrapper(m)
	svc := serve.New(c.ModelsDir, pipeline.DefaultSymbols(), mw)

	reportModelAge(c.ModelsDir, m)

	// Start metrics server
	startMetricsServer(ctx, c)

	// Start prediction server
	server := api.New(svc, version, c.ListenPort, c.HTTPTimeout, m.HTTPRequests)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("prediction server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, cancel)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown prediction server")
	}
	log.Info().Msg("shutdown complete")
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// reportModelAge sets the model age gauge from the newest artifact's mtime.
func reportModelAge(modelsDir string, m *metrics.Metrics) {
	info, err := os.Stat(modelsDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", modelsDir).Msg("failed to stat models directory")
		return
	}
	m.ModelAge.Set(time.Since(info.ModTime()).Seconds())
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until a termination signal arrives or ctx is done.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutdown signal received")
		cancel()
	case <-ctx.Done():
	}
}
