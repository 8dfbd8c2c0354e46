package perplexity

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"portfolio-digest-bot/internal/insight"
	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/store"
	"portfolio-digest-bot/internal/trace"
	"portfolio-digest-bot/internal/types"
)

// Generator produces per-symbol blurbs from the Perplexity chat
// completions API, which speaks the OpenAI wire format.
type Generator struct {
	cfg       *store.Config
	client    *openai.Client
	headlines interfaces.HeadlineSource
}

var _ interfaces.InsightGenerator = (*Generator)(nil)

func New(cfg *store.Config, headlines interfaces.HeadlineSource) (*Generator, error) {
	apiKey := os.Getenv("PERPLEXITY_API_KEY")
	if apiKey == "" {
		return nil, errors.New("PERPLEXITY_API_KEY missing")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = cfg.Insight.BaseURL

	return &Generator{
		cfg:       cfg,
		client:    openai.NewClientWithConfig(clientConfig),
		headlines: headlines,
	}, nil
}

func (g *Generator) Insight(ctx context.Context, symbol string) (types.Insight, error) {
	ctx, span := trace.StartSpan(ctx, "perplexity-api-call")
	defer span.End()

	if g.cfg.Insight.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.cfg.Insight.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Insight.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: g.prompt(ctx, symbol)},
		},
		MaxTokens:   g.cfg.Insight.MaxTokens,
		Temperature: g.cfg.Insight.Temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return types.Insight{}, &types.RateLimitError{Provider: "perplexity"}
		}
		return types.Insight{}, &types.InsightError{Symbol: symbol, Err: err}
	}
	if len(resp.Choices) == 0 {
		return types.Insight{}, &types.InsightError{Symbol: symbol, Err: errors.New("no choices in response")}
	}

	text := insight.Normalize(resp.Choices[0].Message.Content, g.cfg.Insight.MaxWords)
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
