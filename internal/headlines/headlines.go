package headlines

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/logger"
)

const defaultBaseURL = "https://news.google.com"

// Scraper pulls recent headline titles from Google News search. It is
// best-effort: callers treat errors as "no headlines".
type Scraper struct {
	baseURL string
	timeout time.Duration
}

var _ interfaces.HeadlineSource = (*Scraper)(nil)

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{baseURL: defaultBaseURL, timeout: timeout}
}

func (s *Scraper) Headlines(ctx context.Context, symbol string, limit int) ([]string, error) {
	if limit < 1 {
		limit = 3
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}

	titles := []string{}
	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(titles) >= limit {
			return
		}
		title := strings.TrimSpace(e.ChildText("h3, h4"))
		if title != "" {
			titles = append(titles, title)
		}
	})

	searchQuery := url.QueryEscape(symbol + " stock news India")
	searchURL := fmt.Sprintf("%s/search?q=%s&hl=en-IN&gl=IN&ceid=IN:en", s.baseURL, searchQuery)

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("scrape headlines for %s: %w", symbol, err)
	}
	c.Wait()

	logger.Debug(ctx, "Headlines scraped", "symbol", symbol, "count", len(titles))
	return titles, nil
}
