package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"portfolio-digest-bot/internal/broker/brokerobs"
	"portfolio-digest-bot/internal/broker/groww"
	"portfolio-digest-bot/internal/broker/zerodha"
	"portfolio-digest-bot/internal/headlines"
	"portfolio-digest-bot/internal/insight/gemini"
	"portfolio-digest-bot/internal/insight/insightobs"
	"portfolio-digest-bot/internal/insight/noop"
	"portfolio-digest-bot/internal/insight/perplexity"
	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/notify"
	"portfolio-digest-bot/internal/notify/notifyobs"
	"portfolio-digest-bot/internal/store"
	"portfolio-digest-bot/internal/trace"
	"portfolio-digest-bot/internal/types"
)

// initializeSystem loads the environment and initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeFetcher builds the holdings fetcher for the configured
// brokerage with observability
func initializeFetcher(ctx context.Context, cfg *store.Config) (interfaces.HoldingsFetcher, error) {
	var (
		fetcher interfaces.HoldingsFetcher
		err     error
	)

	switch cfg.Broker.Provider {
	case "ZERODHA":
		fetcher, err = zerodha.New(zerodha.Params{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
		})
	default:
		fetcher, err = groww.New(groww.Params{
			APIKey:    os.Getenv("GROWW_API_KEY"),
			APISecret: os.Getenv("GROWW_API_SECRET"),
			BaseURL:   cfg.Broker.BaseURL,
			Timeout:   time.Duration(cfg.Broker.TimeoutSeconds) * time.Second,
		})
	}
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Holdings fetcher ready", "provider", cfg.Broker.Provider)

	// Wrap with observability middleware
	return brokerobs.Wrap(fetcher), nil
}

// initializeGenerator builds the insight generator for the configured
// provider with observability
func initializeGenerator(ctx context.Context, cfg *store.Config) (interfaces.InsightGenerator, error) {
	var source interfaces.HeadlineSource
	if cfg.Insight.Headlines {
		source = headlines.NewScraper(time.Duration(cfg.Insight.TimeoutSeconds) * time.Second)
		logger.Info(ctx, "Headline enrichment enabled")
	}

	var (
		generator interfaces.InsightGenerator
		err       error
	)

	switch cfg.Insight.Provider {
	case "PERPLEXITY":
		generator, err = perplexity.New(cfg, source)
	case "GEMINI":
		generator, err = gemini.New(ctx, cfg, source)
	default:
		generator = noop.New()
		logger.Warn(ctx, "No insight provider configured - every holding gets the placeholder")
	}
	if err != nil {
		return nil, err
	}

	// Wrap with observability middleware
	return insightobs.Wrap(generator), nil
}

// initializeNotifier builds the delivery channel with observability
func initializeNotifier(ctx context.Context, cfg *store.Config) (interfaces.Notifier, error) {
	var notifier interfaces.Notifier

	switch cfg.Notify.Channel {
	case types.ChannelWhatsApp:
		wa, err := notify.NewWhatsApp(notify.WhatsAppParams{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			From:       os.Getenv("TWILIO_WHATSAPP_FROM"),
			To:         os.Getenv("WHATSAPP_TO"),
		})
		if err != nil {
			return nil, err
		}
		notifier = wa
	default:
		notifier = notify.NewTerminal(nil)
	}

	logger.Info(ctx, "Notifier ready", "channel", cfg.Notify.Channel)

	// Wrap with observability middleware
	return notifyobs.Wrap(notifier), nil
}
