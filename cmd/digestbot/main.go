package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-digest-bot/internal/health"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/metrics"
	"portfolio-digest-bot/internal/pipeline"
	"portfolio-digest-bot/internal/scheduler"
	"portfolio-digest-bot/internal/trace"
	"portfolio-digest-bot/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	once := flag.Bool("once", false, "run the pipeline immediately and exit")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		os.Exit(1)
	}

	recorder := metrics.New()

	fetcher, err := initializeFetcher(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize holdings fetcher", err)
		os.Exit(1)
	}
	generator, err := initializeGenerator(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize insight generator", err)
		os.Exit(1)
	}
	notifier, err := initializeNotifier(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize notifier", err)
		os.Exit(1)
	}

	pipe := pipeline.New(cfg, fetcher, generator, notifier, recorder)

	if *once {
		os.Exit(runOnce(ctx, pipe))
	}

	sched, err := scheduler.New(cfg, func(ctx context.Context) error {
		_, err := pipe.Run(ctx)
		return err
	}, recorder)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize scheduler", err)
		os.Exit(1)
	}

	if cfg.Health.Enabled {
		srv := health.NewServer(cfg.Health.Port, sched.Status)
		srv.Start(ctx)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigc
		logger.Info(ctx, "Shutting down", "signal", sig.String())
		cancel()
	}()

	sched.Start(ctx)
}

// runOnce executes a single cycle. A delivery failure still counts as
// a partially successful run: the digest was built, only the send
// failed, so the exit code stays zero.
func runOnce(ctx context.Context, pipe *pipeline.Pipeline) int {
	_, err := pipe.Run(ctx)
	if err == nil {
		return 0
	}
	var deliveryErr *types.DeliveryError
	if errors.As(err, &deliveryErr) {
		logger.Warn(ctx, "Digest built but delivery failed", "error", err)
		return 0
	}
	logger.ErrorWithErr(ctx, "Run failed", err)
	return 1
}
