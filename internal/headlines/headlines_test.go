package headlines

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const searchPage = `<html><body>
<article><h3>TCS bags multi-year cloud deal</h3></article>
<article><h4>IT sector outlook improves</h4></article>
<article><h3>Quarterly margins steady</h3></article>
<article><h3>Fourth headline beyond the limit</h3></article>
<article><div>no title here</div></article>
</body></html>`

func TestHeadlines(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if q := r.URL.Query().Get("q"); q == "" {
			t.Error("missing search query")
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	s := &Scraper{baseURL: srv.URL, timeout: 5 * time.Second}
	titles, err := s.Headlines(context.Background(), "TCS", 3)
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}

	if gotPath != "/search" {
		t.Errorf("path = %q, want /search", gotPath)
	}
	if len(titles) != 3 {
		t.Fatalf("got %d titles, want 3 (limit)", len(titles))
	}
	if titles[0] != "TCS bags multi-year cloud deal" {
		t.Errorf("titles[0] = %q", titles[0])
	}
}

func TestHeadlinesUnreachable(t *testing.T) {
	s := &Scraper{baseURL: "http://127.0.0.1:0", timeout: time.Second}
	if _, err := s.Headlines(context.Background(), "TCS", 3); err == nil {
		t.Fatal("expected error for unreachable host")
	}
}
