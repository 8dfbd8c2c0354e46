package interfaces

import (
	"context"

	"portfolio-digest-bot/internal/types"
)

type InsightGenerator interface {
	Insight(ctx context.Context, symbol string) (types.Insight, error)
}

// HeadlineSource supplies recent headlines for a symbol. Generators use
// it to enrich prompts; a nil source means plain prompts.
type HeadlineSource interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]string, error)
}
