package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rshade/hostcarbon/internal/config"
	"github.com/rshade/hostcarbon/internal/hardware"
	"github.com/rshade/hostcarbon/internal/impact"
	"github.com/rshade/hostcarbon/internal/metrics"
	"github.com/rshade/hostcarbon/internal/power"
	"github.com/rshade/hostcarbon/internal/server"
	"github.com/rshade/hostcarbon/internal/tsdb"
)

func main() {
	configPath := flag.String("config", "hostcarbon.yaml", "Path to the YAML configuration file")
	listenAddr := flag.String("listen", "", "Listen address, overrides the configured one")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	impactClient := impact.NewClient(
		cfg.ImpactEndpoint,
		cfg.CarbonAwareAPIEndpoint,
		cfg.CarbonAwareAPIToken,
		cfg.HTTPTimeout,
		logger,
	)

	var store tsdb.Store
	if cfg.InfluxURL != "" {
		store = tsdb.NewInfluxStore(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, logger)
	} else {
		logger.Warn().Msg("no influx_url configured, persisted metrics are in-memory only")
		store = tsdb.NewMemoryStore()
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("closing metric store failed")
		}
	}()

	assembler := metrics.NewAssembler(
		hardware.NewProvider(cfg.HardwareFilePath, cfg.HardwareCLI, logger),
		power.NewFileAggregator(cfg.PowerFilePath),
		impactClient,
		cfg.SecondsInOneYear,
		cfg.DefaultLifetime,
		logger,
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(cfg, assembler, impactClient, store, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
		<-signalChan

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
		close(shutdownDone)
	}()

	logger.Info().Str("addr", cfg.ListenAddr).Msg("starting hostcarbon")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
	<-shutdownDone
}
