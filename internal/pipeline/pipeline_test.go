package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-digest-bot/internal/store"
	"portfolio-digest-bot/internal/types"
)

type fakeFetcher struct {
	holdings []types.Holding
	err      error
}

func (f *fakeFetcher) Holdings(ctx context.Context) ([]types.Holding, error) {
	return f.holdings, f.err
}

type fakeGenerator struct {
	mu       sync.Mutex
	calls    map[string]int
	inflight atomic.Int32
	maxSeen  atomic.Int32
	fn       func(symbol string, attempt int) (types.Insight, error)
}

func (g *fakeGenerator) Insight(ctx context.Context, symbol string) (types.Insight, error) {
	cur := g.inflight.Add(1)
	for {
		max := g.maxSeen.Load()
		if cur <= max || g.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	defer g.inflight.Add(-1)

	g.mu.Lock()
	if g.calls == nil {
		g.calls = map[string]int{}
	}
	g.calls[symbol]++
	attempt := g.calls[symbol]
	g.mu.Unlock()

	if g.fn != nil {
		return g.fn(symbol, attempt)
	}
	return types.Insight{Symbol: symbol, Text: symbol + " had a quiet week."}, nil
}

func (g *fakeGenerator) attempts(symbol string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[symbol]
}

type fakeNotifier struct {
	mu        sync.Mutex
	delivered []types.Digest
	err       error
}

func (n *fakeNotifier) Deliver(ctx context.Context, d types.Digest) (types.DeliveryResult, error) {
	n.mu.Lock()
	n.delivered = append(n.delivered, d)
	n.mu.Unlock()
	if n.err != nil {
		return types.DeliveryResult{}, n.err
	}
	return types.DeliveryResult{Channel: types.ChannelTerminal, SentAt: time.Now()}, nil
}

func testConfig(workers int) *store.Config {
	cfg := &store.Config{}
	cfg.Insight.Provider = "PERPLEXITY"
	cfg.Insight.Workers = workers
	cfg.Insight.RetryBackoffSeconds = 0
	cfg.Notify.Channel = types.ChannelTerminal
	return cfg
}

func holdings(symbols ...string) []types.Holding {
	hs := make([]types.Holding, 0, len(symbols))
	for _, s := range symbols {
		hs = append(hs, types.Holding{Symbol: s, Quantity: decimal.NewFromInt(1)})
	}
	return hs
}

func newTestPipeline(cfg *store.Config, f *fakeFetcher, g *fakeGenerator, n *fakeNotifier) *Pipeline {
	p := New(cfg, f, g, n, nil)
	p.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return p
}

func TestRunDeliversOneInsightPerHolding(t *testing.T) {
	fetcher := &fakeFetcher{holdings: holdings("TCS", "INFY", "WIPRO")}
	gen := &fakeGenerator{}
	notifier := &fakeNotifier{}

	p := newTestPipeline(testConfig(2), fetcher, gen, notifier)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(notifier.delivered) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(notifier.delivered))
	}
	d := notifier.delivered[0]
	if len(d.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(d.Entries))
	}
	for _, e := range d.Entries {
		if e.Insight.Text == "" {
			t.Errorf("holding %s has no insight", e.Holding.Symbol)
		}
	}
}

func TestRunSubstitutesPlaceholderOnInsightError(t *testing.T) {
	fetcher := &fakeFetcher{holdings: holdings("TCS", "INFY")}
	gen := &fakeGenerator{fn: func(symbol string, attempt int) (types.Insight, error) {
		if symbol == "TCS" {
			return types.Insight{}, &types.InsightError{Symbol: symbol, Err: errors.New("boom")}
		}
		return types.Insight{Symbol: symbol, Text: "Fine."}, nil
	}}
	notifier := &fakeNotifier{}

	p := newTestPipeline(testConfig(1), fetcher, gen, notifier)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("insight failure should not fail the run: %v", err)
	}

	d := notifier.delivered[0]
	// Sorted: INFY first, TCS second
	if d.Entries[1].Holding.Symbol != "TCS" || !d.Entries[1].Insight.Placeholder {
		t.Errorf("expected placeholder for TCS, got %+v", d.Entries[1].Insight)
	}
	if d.Entries[1].Insight.Text != types.PlaceholderInsight {
		t.Errorf("expected %q, got %q", types.PlaceholderInsight, d.Entries[1].Insight.Text)
	}
	if d.Entries[0].Insight.Placeholder {
		t.Error("INFY should have a real insight")
	}
}

func TestRunRetriesOnceOnRateLimit(t *testing.T) {
	fetcher := &fakeFetcher{holdings: holdings("TCS")}
	gen := &fakeGenerator{fn: func(symbol string, attempt int) (types.Insight, error) {
		if attempt == 1 {
			return types.Insight{}, &types.RateLimitError{Provider: "perplexity"}
		}
		return types.Insight{Symbol: symbol, Text: "Recovered on retry."}, nil
	}}
	notifier := &fakeNotifier{}

	p := newTestPipeline(testConfig(1), fetcher, gen, notifier)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if got := gen.attempts("TCS"); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
	if notifier.delivered[0].Entries[0].Insight.Placeholder {
		t.Error("retry result should have been used, not the placeholder")
	}
}

func TestRunFallsBackAfterSecondRateLimit(t *testing.T) {
	fetcher := &fakeFetcher{holdings: holdings("TCS")}
	gen := &fakeGenerator{fn: func(symbol string, attempt int) (types.Insight, error) {
		return types.Insight{}, &types.RateLimitError{Provider: "perplexity"}
	}}
	notifier := &fakeNotifier{}

	p := newTestPipeline(testConfig(1), fetcher, gen, notifier)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if got := gen.attempts("TCS"); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}
	if !notifier.delivered[0].Entries[0].Insight.Placeholder {
		t.Error("expected placeholder after retry also rate limited")
	}
}

func TestRunBoundsWorkerPool(t *testing.T) {
	syms := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	fetcher := &fakeFetcher{holdings: holdings(syms...)}
	gen := &fakeGenerator{fn: func(symbol string, attempt int) (types.Insight, error) {
		time.Sleep(10 * time.Millisecond)
		return types.Insight{Symbol: symbol, Text: "Done."}, nil
	}}
	notifier := &fakeNotifier{}

	p := newTestPipeline(testConfig(3), fetcher, gen, notifier)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if max := gen.maxSeen.Load(); max > 3 {
		t.Errorf("worker pool exceeded bound: %d concurrent calls", max)
	}
	if len(notifier.delivered[0].Entries) != len(syms) {
		t.Errorf("expected %d entries, got %d", len(syms), len(notifier.delivered[0].Entries))
	}
}

func TestRunOrderingStableUnderParallelism(t *testing.T) {
	fetcher := &fakeFetcher{holdings: holdings("WIPRO", "TCS", "INFY", "HDFCBANK")}
	gen := &fakeGenerator{fn: func(symbol string, attempt int) (types.Insight, error) {
		// Later alphabetical symbols finish first
		time.Sleep(time.Duration(len(symbol)) * time.Millisecond)
		return types.Insight{Symbol: symbol, Text: "Done."}, nil
	}}
	notifier := &fakeNotifier{}

	p := newTestPipeline(testConfig(4), fetcher, gen, notifier)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	want := []string{"HDFCBANK", "INFY", "TCS", "WIPRO"}
	entries := notifier.delivered[0].Entries
	for i, sym := range want {
		if entries[i].Holding.Symbol != sym {
			t.Fatalf("entry %d: expected %s, got %s", i, sym, entries[i].Holding.Symbol)
		}
	}
}

func TestRunAbortsOnFetchError(t *testing.T) {
	authErr := &types.AuthError{Provider: "groww", Err: errors.New("bad totp")}
	fetcher := &fakeFetcher{err: authErr}
	gen := &fakeGenerator{}
	notifier := &fakeNotifier{}

	p := newTestPipeline(testConfig(1), fetcher, gen, notifier)
	_, err := p.Run(context.Background())

	var got *types.AuthError
	if !errors.As(err, &got) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if len(notifier.delivered) != 0 {
		t.Error("nothing should be delivered when holdings fetch fails")
	}
}

func TestRunReturnsDeliveryError(t *testing.T) {
	fetcher := &fakeFetcher{holdings: holdings("TCS")}
	gen := &fakeGenerator{}
	notifier := &fakeNotifier{err: &types.DeliveryError{Channel: types.ChannelWhatsApp, Err: errors.New("twilio 401")}}

	p := newTestPipeline(testConfig(1), fetcher, gen, notifier)
	_, err := p.Run(context.Background())

	var got *types.DeliveryError
	if !errors.As(err, &got) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if len(notifier.delivered) != 1 {
		t.Error("delivery should have been attempted")
	}
}
