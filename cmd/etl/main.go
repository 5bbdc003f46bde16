package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	fileadapter "github.com/couchcryptid/charging-station-etl/internal/adapter/file"
	httpadapter "github.com/couchcryptid/charging-station-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/charging-station-etl/internal/adapter/kafka"
	"github.com/couchcryptid/charging-station-etl/internal/config"
	"github.com/couchcryptid/charging-station-etl/internal/merge"
	"github.com/couchcryptid/charging-station-etl/internal/observability"
	"github.com/couchcryptid/charging-station-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	merger, err := merge.New(cfg.Merge, logger)
	if err != nil {
		logger.Error("invalid merge options", "error", err)
		os.Exit(1)
	}
	logger.Info("merge configured",
		"match_radius_meters", cfg.Merge.MatchRadiusMeters,
		"source_priority", cfg.Merge.SourcePriority,
	)

	reader := fileadapter.NewReader(cfg.DataDir, logger)

	var sinks []pipeline.Sink
	if cfg.OutputFile != "" {
		sinks = append(sinks, pipeline.Sink{Name: "file", Loader: fileadapter.NewWriter(cfg.OutputFile, logger)})
		logger.Info("file sink enabled", "path", cfg.OutputFile)
	}
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: kafkaWriter})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(reader, merger, clockwork.NewRealClock(), logger, metrics, cfg.MergeInterval, sinks...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start consolidation loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
