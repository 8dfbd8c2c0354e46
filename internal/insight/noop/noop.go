package noop

import (
	"context"

	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/types"
)

// Generator is used when no insight provider is configured. Every
// holding gets the placeholder blurb.
type Generator struct{}

var _ interfaces.InsightGenerator = (*Generator)(nil)

func New() *Generator {
	return &Generator{}
}

func (g *Generator) Insight(ctx context.Context, symbol string) (types.Insight, error) {
	logger.Debug(ctx, "Insight provider disabled, returning placeholder", "symbol", symbol)
	return types.PlaceholderFor(symbol), nil
}
