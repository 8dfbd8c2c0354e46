package digest

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-digest-bot/internal/types"
)

func holding(symbol string, qty int64, avg string) types.Holding {
	return types.Holding{
		Symbol:       symbol,
		Quantity:     decimal.NewFromInt(qty),
		AveragePrice: decimal.RequireFromString(avg),
	}
}

func TestBuildOrdersBySymbol(t *testing.T) {
	holdings := []types.Holding{
		holding("TCS", 10, "3514.50"),
		holding("INFY", 5, "1450.00"),
	}
	insights := map[string]types.Insight{
		"TCS":  {Symbol: "TCS", Text: "TCS posted steady quarterly growth."},
		"INFY": {Symbol: "INFY", Text: "INFY expanded its digital services arm."},
	}

	d := Build(holdings, insights, time.Now())

	if len(d.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(d.Entries))
	}
	if d.Entries[0].Holding.Symbol != "INFY" || d.Entries[1].Holding.Symbol != "TCS" {
		t.Errorf("entries not sorted by symbol: got [%s, %s]",
			d.Entries[0].Holding.Symbol, d.Entries[1].Holding.Symbol)
	}
}

func TestBuildSubstitutesPlaceholder(t *testing.T) {
	holdings := []types.Holding{holding("TCS", 10, "3514.50")}

	cases := map[string]map[string]types.Insight{
		"missing insight": {},
		"blank text":      {"TCS": {Symbol: "TCS", Text: "   "}},
	}
	for name, insights := range cases {
		t.Run(name, func(t *testing.T) {
			d := Build(holdings, insights, time.Now())
			if len(d.Entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(d.Entries))
			}
			ins := d.Entries[0].Insight
			if !ins.Placeholder {
				t.Error("expected a placeholder insight")
			}
			if ins.Text != types.PlaceholderInsight {
				t.Errorf("expected placeholder text %q, got %q", types.PlaceholderInsight, ins.Text)
			}
		})
	}
}

func TestBuildCoversEveryHolding(t *testing.T) {
	holdings := []types.Holding{
		holding("WIPRO", 20, "420.00"),
		holding("HDFCBANK", 8, "1502.25"),
		holding("TCS", 10, "3514.50"),
	}
	insights := map[string]types.Insight{
		"TCS": {Symbol: "TCS", Text: "Steady quarter."},
	}

	d := Build(holdings, insights, time.Now())

	if len(d.Entries) != len(holdings) {
		t.Fatalf("expected %d entries, got %d", len(holdings), len(d.Entries))
	}
	for _, e := range d.Entries {
		if strings.TrimSpace(e.Insight.Text) == "" {
			t.Errorf("holding %s has no insight text", e.Holding.Symbol)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	holdings := []types.Holding{
		holding("WIPRO", 20, "420.00"),
		holding("HDFCBANK", 8, "1502.25"),
		holding("TCS", 10, "3514.50"),
	}
	insights := map[string]types.Insight{
		"TCS":   {Symbol: "TCS", Text: "Steady quarter."},
		"WIPRO": {Symbol: "WIPRO", Text: "New consulting deal announced."},
	}

	first := Build(holdings, insights, now)
	second := Build(holdings, insights, now)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different digests")
	}
	if Render(first) != Render(second) {
		t.Error("identical digests rendered differently")
	}
}

func TestRender(t *testing.T) {
	now := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	holdings := []types.Holding{
		holding("TCS", 10, "3514.5"),
		holding("INFY", 5, "1450"),
	}
	insights := map[string]types.Insight{
		"TCS": {Symbol: "TCS", Text: "TCS posted steady quarterly growth."},
	}

	got := Render(Build(holdings, insights, now))
	want := "📊 Daily Portfolio Update\n\n" +
		"• INFY | Qty: 5 | Avg: ₹1450.00\n" +
		"  (No update available)\n\n" +
		"• TCS | Qty: 10 | Avg: ₹3514.50\n" +
		"  TCS posted steady quarterly growth."
	if got != want {
		t.Errorf("rendered digest mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderEmptyPortfolio(t *testing.T) {
	got := Render(Build(nil, nil, time.Now()))
	if got != "No holdings found." {
		t.Errorf("expected empty-portfolio message, got %q", got)
	}
}
