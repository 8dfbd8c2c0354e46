package insightobs

import (
	"context"

	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/trace"
	"portfolio-digest-bot/internal/types"
)

// observableGenerator wraps an InsightGenerator with logging and tracing
type observableGenerator struct {
	generator interfaces.InsightGenerator
}

// Compile-time interface check
var _ interfaces.InsightGenerator = (*observableGenerator)(nil)

// Wrap wraps an insight generator with observability middleware
func Wrap(generator interfaces.InsightGenerator) interfaces.InsightGenerator {
	return &observableGenerator{generator: generator}
}

func (og *observableGenerator) Insight(ctx context.Context, symbol string) (types.Insight, error) {
	ctx, span := trace.StartSpan(ctx, "insight.Generate")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting insight", "symbol", symbol)

	ins, err := og.generator.Insight(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to generate insight", err, "symbol", symbol)
		return types.Insight{}, err
	}

	logger.DebugSkip(ctx, 1, "Insight generated",
		"symbol", symbol,
		"chars", len(ins.Text),
		"placeholder", ins.Placeholder,
	)
	return ins, nil
}
