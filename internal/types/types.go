package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Delivery channels.
const (
	ChannelTerminal = "terminal"
	ChannelWhatsApp = "whatsapp"
)

// PlaceholderInsight is the text used when no insight could be generated
// for a holding.
const PlaceholderInsight = "insight unavailable"

type Holding struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

type Insight struct {
	Symbol      string `json:"symbol"`
	Text        string `json:"text"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// PlaceholderFor returns the fallback insight for a symbol whose
// generation failed or produced nothing usable.
func PlaceholderFor(symbol string) Insight {
	return Insight{Symbol: symbol, Text: PlaceholderInsight, Placeholder: true}
}

type DigestEntry struct {
	Holding Holding `json:"holding"`
	Insight Insight `json:"insight"`
}

type Digest struct {
	Entries     []DigestEntry `json:"entries"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type DeliveryResult struct {
	Channel   string    `json:"channel"`
	MessageID string    `json:"message_id,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}
