package notifyobs

import (
	"context"

	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/trace"
	"portfolio-digest-bot/internal/types"
)

// observableNotifier wraps a Notifier with logging and tracing
type observableNotifier struct {
	notifier interfaces.Notifier
}

// Compile-time interface check
var _ interfaces.Notifier = (*observableNotifier)(nil)

// Wrap wraps a notifier with observability middleware
func Wrap(notifier interfaces.Notifier) interfaces.Notifier {
	return &observableNotifier{notifier: notifier}
}

func (on *observableNotifier) Deliver(ctx context.Context, d types.Digest) (types.DeliveryResult, error) {
	ctx, span := trace.StartSpan(ctx, "notify.Deliver")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Delivering digest", "entries", len(d.Entries))

	res, err := on.notifier.Deliver(ctx, d)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Digest delivery failed", err)
		return res, err
	}

	logger.Delivery(ctx, res.Channel, res.MessageID, len(d.Entries))
	return res, nil
}
