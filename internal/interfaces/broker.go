package interfaces

import (
	"context"

	"portfolio-digest-bot/internal/types"
)

type HoldingsFetcher interface {
	Holdings(ctx context.Context) ([]types.Holding, error)
}
