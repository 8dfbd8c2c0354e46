// Package digest builds and renders the portfolio report delivered at the
// end of each run. Both operations are pure: identical inputs produce
// identical output regardless of the order insights arrived in.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"portfolio-digest-bot/internal/types"
)

const header = "📊 Daily Portfolio Update"

// emptyMessage is delivered when the brokerage reports no positions.
const emptyMessage = "No holdings found."

// Build pairs every holding with its insight and sorts the entries
// alphabetically by symbol. Holdings without a usable insight get the
// placeholder so the digest always carries exactly one insight per holding.
func Build(holdings []types.Holding, insights map[string]types.Insight, now time.Time) types.Digest {
	entries := make([]types.DigestEntry, 0, len(holdings))
	for _, h := range holdings {
		ins, ok := insights[h.Symbol]
		if !ok || strings.TrimSpace(ins.Text) == "" {
			ins = types.PlaceholderFor(h.Symbol)
		}
		entries = append(entries, types.DigestEntry{Holding: h, Insight: ins})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Holding.Symbol < entries[j].Holding.Symbol
	})

	return types.Digest{Entries: entries, GeneratedAt: now}
}

// Render formats a digest as the message body sent to the notifier.
func Render(d types.Digest) string {
	if len(d.Entries) == 0 {
		return emptyMessage
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, e := range d.Entries {
		b.WriteString("\n")
		fmt.Fprintf(&b, "• %s | Qty: %s | Avg: ₹%s\n",
			e.Holding.Symbol, e.Holding.Quantity.String(), e.Holding.AveragePrice.StringFixed(2))
		if e.Insight.Placeholder {
			b.WriteString("  (No update available)\n")
		} else {
			fmt.Fprintf(&b, "  %s\n", e.Insight.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
