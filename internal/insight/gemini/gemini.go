package gemini

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"google.golang.org/genai"

	"portfolio-digest-bot/internal/insight"
	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/store"
	"portfolio-digest-bot/internal/trace"
	"portfolio-digest-bot/internal/types"
)

// Generator produces per-symbol blurbs from the Gemini API.
type Generator struct {
	cfg       *store.Config
	client    *genai.Client
	headlines interfaces.HeadlineSource
}

var _ interfaces.InsightGenerator = (*Generator)(nil)

func New(ctx context.Context, cfg *store.Config, headlines interfaces.HeadlineSource) (*Generator, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY missing")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &Generator{cfg: cfg, client: client, headlines: headlines}, nil
}

func (g *Generator) Insight(ctx context.Context, symbol string) (types.Insight, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	if g.cfg.Insight.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.cfg.Insight.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.cfg.Insight.Temperature),
		MaxOutputTokens: int32(g.cfg.Insight.MaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Insight.Model, genai.Text(g.prompt(ctx, symbol)), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return types.Insight{}, &types.RateLimitError{Provider: "gemini"}
		}
		return types.Insight{}, &types.InsightError{Symbol: symbol, Err: err}
	}

	text := insight.Normalize(resp.Text(), g.cfg.Insight.MaxWords)
	if text == "" {
		return types.Insight{}, &types.InsightError{Symbol: symbol, Err: errors.New("empty completion")}
	}
	return types.Insight{Symbol: symbol, Text: text}, nil
}

func (g *Generator) prompt(ctx context.Context, symbol string) string {
	var headlines []string
	if g.headlines != nil {
		hs, err := g.headlines.Headlines(ctx, symbol, 3)
		if err != nil {
			logger.Warn(ctx, "Headline lookup failed, using plain prompt", "symbol", symbol, "error", err)
		} else {
			headlines = hs
		}
	}
	return insight.BuildPrompt(symbol, headlines)
}
