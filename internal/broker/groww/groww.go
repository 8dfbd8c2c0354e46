package groww

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/shopspring/decimal"

	"portfolio-digest-bot/internal/api"
	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/types"
)

const defaultBaseURL = "https://api.groww.in"

// Params configures the Groww client
type Params struct {
	APIKey    string
	APISecret string // base32 TOTP seed issued with the API key
	BaseURL   string
	Timeout   time.Duration
}

// Client fetches holdings from the Groww trading API. Each call mints a
// fresh access token from the API key and a TOTP derived from the secret.
type Client struct {
	params Params
	http   *api.Client
	now    func() time.Time
}

// Compile-time interface check
var _ interfaces.HoldingsFetcher = (*Client)(nil)

func New(p Params) (*Client, error) {
	if p.APIKey == "" || p.APISecret == "" {
		return nil, &types.AuthError{Provider: "groww", Err: errors.New("GROWW_API_KEY and GROWW_API_SECRET are required")}
	}
	if p.BaseURL == "" {
		p.BaseURL = defaultBaseURL
	}
	if p.Timeout <= 0 {
		p.Timeout = 12 * time.Second
	}

	return &Client{
		params: p,
		http: api.NewClient(
			api.WithBaseURL(p.BaseURL),
			api.WithTimeout(p.Timeout),
			api.WithHeader("Accept", "application/json"),
			api.WithHeader("X-API-VERSION", "1.0"),
			api.WithLogging(true),
		),
		now: time.Now,
	}, nil
}

// Holdings returns the current holdings for the account
func (c *Client) Holdings(ctx context.Context) ([]types.Holding, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.GET(ctx, "/v1/holdings/user", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return nil, mapStatusErr("groww holdings", err)
	}

	records, err := extractHoldings(resp.Body)
	if err != nil {
		// The API has shipped several envelope shapes; an unknown one
		// degrades to an empty portfolio rather than a failed run
		logger.Warn(ctx, "Unexpected holdings response shape", "error", err)
		return []types.Holding{}, nil
	}

	holdings := make([]types.Holding, 0, len(records))
	for _, r := range records {
		holdings = append(holdings, r.toHolding())
	}
	logger.Debug(ctx, "Fetched holdings", "count", len(holdings))
	return holdings, nil
}

// accessToken exchanges the API key plus a fresh TOTP for a session token
func (c *Client) accessToken(ctx context.Context) (string, error) {
	code, err := totp.GenerateCode(c.params.APISecret, c.now())
	if err != nil {
		return "", &types.AuthError{Provider: "groww", Err: fmt.Errorf("generate totp: %w", err)}
	}

	resp, err := c.http.POST(ctx, "/v1/token/api/access",
		map[string]string{"key_type": "totp", "totp": code},
		map[string]string{"Authorization": "Bearer " + c.params.APIKey},
	)
	if err != nil {
		return "", mapStatusErr("groww token", err)
	}

	var out struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return "", &types.NetworkError{Op: "groww token", Err: err}
	}
	token := out.Token
	if token == "" {
		token = out.AccessToken
	}
	if token == "" {
		return "", &types.AuthError{Provider: "groww", Err: errors.New("empty access token in response")}
	}
	return token, nil
}

// mapStatusErr converts client errors into the run-level error taxonomy
func mapStatusErr(op string, err error) error {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
			return &types.AuthError{Provider: "groww", Err: err}
		}
	}
	return &types.NetworkError{Op: op, Err: err}
}

// holdingRecord tolerates the field aliases seen across API versions
type holdingRecord struct {
	TradingSymbol string           `json:"trading_symbol"`
	Symbol        string           `json:"symbol"`
	Ticker        string           `json:"ticker"`
	Quantity      *decimal.Decimal `json:"quantity"`
	Qty           *decimal.Decimal `json:"qty"`
	AveragePrice  *decimal.Decimal `json:"average_price"`
	AvgPrice      *decimal.Decimal `json:"avg_price"`
}

func (r holdingRecord) toHolding() types.Holding {
	symbol := r.TradingSymbol
	if symbol == "" {
		symbol = r.Symbol
	}
	if symbol == "" {
		symbol = r.Ticker
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = "UNKNOWN"
	}

	h := types.Holding{Symbol: symbol}
	switch {
	case r.Quantity != nil:
		h.Quantity = *r.Quantity
	case r.Qty != nil:
		h.Quantity = *r.Qty
	}
	switch {
	case r.AveragePrice != nil:
		h.AveragePrice = *r.AveragePrice
	case r.AvgPrice != nil:
		h.AveragePrice = *r.AvgPrice
	}
	return h
}

// extractHoldings finds the holdings list in one of the envelope shapes
// the API returns: payload.holdings, data.holdings, a top-level
// holdings key, or payload as a bare list
func extractHoldings(body []byte) ([]holdingRecord, error) {
	var envelope struct {
		Payload  json.RawMessage `json:"payload"`
		Data     json.RawMessage `json:"data"`
		Holdings []holdingRecord `json:"holdings"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	if h := nestedHoldings(envelope.Payload); h != nil {
		return h, nil
	}
	if h := nestedHoldings(envelope.Data); h != nil {
		return h, nil
	}
	if envelope.Holdings != nil {
		return envelope.Holdings, nil
	}
	if len(envelope.Payload) > 0 {
		var list []holdingRecord
		if err := json.Unmarshal(envelope.Payload, &list); err == nil && list != nil {
			return list, nil
		}
	}
	return nil, errors.New("no holdings list found")
}

func nestedHoldings(raw json.RawMessage) []holdingRecord {
	if len(raw) == 0 {
		return nil
	}
	var nested struct {
		Holdings []holdingRecord `json:"holdings"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil
	}
	return nested.Holdings
}
