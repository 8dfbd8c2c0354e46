package zerodha

import (
	"context"
	"errors"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/shopspring/decimal"

	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/types"
)

type Params struct {
	APIKey      string
	AccessToken string
}

// Zerodha fetches holdings through the Kite Connect API. The access
// token comes from Kite's daily login flow and is supplied via env.
type Zerodha struct {
	p  Params
	kc *kiteconnect.Client
}

var _ interfaces.HoldingsFetcher = (*Zerodha)(nil)

func New(p Params) (*Zerodha, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, &types.AuthError{Provider: "zerodha", Err: errors.New("KITE_API_KEY and KITE_ACCESS_TOKEN are required")}
	}

	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &Zerodha{p: p, kc: kc}, nil
}

func (z *Zerodha) Holdings(ctx context.Context) ([]types.Holding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kiteHoldings, err := z.kc.GetHoldings()
	if err != nil {
		return nil, &types.NetworkError{Op: "zerodha holdings", Err: err}
	}

	holdings := make([]types.Holding, 0, len(kiteHoldings))
	for _, h := range kiteHoldings {
		holdings = append(holdings, types.Holding{
			Symbol:       h.Tradingsymbol,
			Quantity:     decimal.NewFromFloat(float64(h.Quantity)),
			AveragePrice: decimal.NewFromFloat(h.AveragePrice),
		})
	}
	logger.Debug(ctx, "Fetched holdings", "count", len(holdings))
	return holdings, nil
}
