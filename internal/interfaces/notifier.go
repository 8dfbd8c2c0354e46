package interfaces

import (
	"context"

	"portfolio-digest-bot/internal/types"
)

type Notifier interface {
	Deliver(ctx context.Context, digest types.Digest) (types.DeliveryResult, error)
}
