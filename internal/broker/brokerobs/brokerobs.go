package brokerobs

import (
	"context"

	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/trace"
	"portfolio-digest-bot/internal/types"
)

// observableFetcher wraps a HoldingsFetcher with logging and tracing
type observableFetcher struct {
	fetcher interfaces.HoldingsFetcher
}

// Compile-time interface check
var _ interfaces.HoldingsFetcher = (*observableFetcher)(nil)

// Wrap wraps a holdings fetcher with observability middleware
func Wrap(fetcher interfaces.HoldingsFetcher) interfaces.HoldingsFetcher {
	return &observableFetcher{fetcher: fetcher}
}

func (of *observableFetcher) Holdings(ctx context.Context) ([]types.Holding, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Holdings")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching holdings")

	holdings, err := of.fetcher.Holdings(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch holdings", err)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Holdings fetched successfully", "count", len(holdings))
	return holdings, nil
}
