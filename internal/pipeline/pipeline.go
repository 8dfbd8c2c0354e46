// Package pipeline runs one scheduled digest cycle: fetch holdings,
// generate an insight per symbol with a bounded worker pool, build the
// digest and hand it to the notifier.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"portfolio-digest-bot/internal/digest"
	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/metrics"
	"portfolio-digest-bot/internal/store"
	"portfolio-digest-bot/internal/trace"
	"portfolio-digest-bot/internal/types"
)

type Pipeline struct {
	cfg       *store.Config
	fetcher   interfaces.HoldingsFetcher
	generator interfaces.InsightGenerator
	notifier  interfaces.Notifier
	recorder  *metrics.Recorder

	// Overridable in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg *store.Config, fetcher interfaces.HoldingsFetcher, generator interfaces.InsightGenerator, notifier interfaces.Notifier, recorder *metrics.Recorder) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		generator: generator,
		notifier:  notifier,
		recorder:  recorder,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Run executes one full cycle. AuthError and NetworkError abort the run;
// a DeliveryError is returned alongside the result of the work already
// done so callers can treat the run as partially successful.
func (p *Pipeline) Run(ctx context.Context) (types.DeliveryResult, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	start := p.now()

	holdings, err := p.fetcher.Holdings(ctx)
	if err != nil {
		p.recorder.RecordRun(metrics.StatusFailed, p.now().Sub(start).Seconds())
		return types.DeliveryResult{}, err
	}
	p.recorder.RecordHoldings(len(holdings))

	insights := p.generateAll(ctx, holdings)
	d := digest.Build(holdings, insights, p.now())

	res, err := p.notifier.Deliver(ctx, d)
	if err != nil {
		p.recorder.RecordDelivery(p.cfg.Notify.Channel, metrics.StatusFailed)
		p.recorder.RecordRun(metrics.StatusPartial, p.now().Sub(start).Seconds())
		return res, err
	}
	p.recorder.RecordDelivery(res.Channel, metrics.StatusOK)
	p.recorder.RecordRun(metrics.StatusOK, p.now().Sub(start).Seconds())

	logger.Info(ctx, "Run complete",
		"holdings", len(holdings),
		"channel", res.Channel,
		"duration", p.now().Sub(start).String(),
	)
	return res, nil
}

// generateAll fans the holdings out over a bounded worker pool. Every
// symbol ends up with an insight: real on success, the placeholder on
// any failure. Completion order does not matter; the digest sorts.
func (p *Pipeline) generateAll(ctx context.Context, holdings []types.Holding) map[string]types.Insight {
	insights := make(map[string]types.Insight, len(holdings))
	if len(holdings) == 0 {
		return insights
	}

	workers := p.cfg.Insight.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(holdings) {
		workers = len(holdings)
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				ins := p.generateOne(ctx, symbol)
				mu.Lock()
				insights[symbol] = ins
				mu.Unlock()
			}
		}()
	}

	for _, h := range holdings {
		jobs <- h.Symbol
	}
	close(jobs)
	wg.Wait()

	return insights
}

// generateOne fetches a single insight, retrying once after a backoff
// when the provider rate-limits. Any remaining failure becomes the
// placeholder.
func (p *Pipeline) generateOne(ctx context.Context, symbol string) types.Insight {
	provider := strings.ToLower(p.cfg.Insight.Provider)

	ins, err := p.generator.Insight(ctx, symbol)
	var rateErr *types.RateLimitError
	if errors.As(err, &rateErr) {
		backoff := time.Duration(p.cfg.Insight.RetryBackoffSeconds) * time.Second
		if rateErr.RetryAfter > backoff {
			backoff = rateErr.RetryAfter
		}
		logger.Warn(ctx, "Rate limited, retrying once", "symbol", symbol, "backoff", backoff.String())
		if serr := p.sleep(ctx, backoff); serr == nil {
			ins, err = p.generator.Insight(ctx, symbol)
		}
	}
	if err != nil {
		logger.Warn(ctx, "Insight unavailable, using placeholder", "symbol", symbol, "error", err)
		p.recorder.RecordInsight(provider, metrics.StatusFailed)
		return types.PlaceholderFor(symbol)
	}

	p.recorder.RecordInsight(provider, metrics.StatusOK)
	return ins
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
