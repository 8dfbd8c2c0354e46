// Package notify delivers rendered digests to the configured channel.
// Channels are distinct notifier types selected at startup, not a flag
// branched through the pipeline.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"portfolio-digest-bot/internal/digest"
	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/types"
)

// Terminal writes the digest to a local stream. It is the default channel
// and the fallback when messaging credentials are not configured.
type Terminal struct {
	w io.Writer
}

// Compile-time interface check
var _ interfaces.Notifier = (*Terminal)(nil)

// NewTerminal returns a notifier writing to w, or stdout when w is nil.
func NewTerminal(w io.Writer) *Terminal {
	if w == nil {
		w = os.Stdout
	}
	return &Terminal{w: w}
}

func (t *Terminal) Deliver(ctx context.Context, d types.Digest) (types.DeliveryResult, error) {
	if err := ctx.Err(); err != nil {
		return types.DeliveryResult{}, &types.DeliveryError{Channel: types.ChannelTerminal, Err: err}
	}
	if _, err := fmt.Fprintln(t.w, digest.Render(d)); err != nil {
		return types.DeliveryResult{}, &types.DeliveryError{Channel: types.ChannelTerminal, Err: err}
	}
	return types.DeliveryResult{Channel: types.ChannelTerminal, SentAt: time.Now()}, nil
}
