package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const fetchTimeout = 15 * time.Second

// allOriginsEndpoint is a neutral read-only proxy that returns the
// original page HTML. Used as a last resort when publishers block the
// direct fetch.
const allOriginsEndpoint = "https://api.allorigins.win/raw?url="

// fetchStrategy is one way of obtaining the HTML of an article page.
// Strategies are tried in order until one yields usable HTML.
type fetchStrategy interface {
	Name() string
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

type directStrategy struct {
	httpClient *http.Client
	userAgent  string
}

func (s *directStrategy) Name() string { return "direct" }

func (s *directStrategy) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	return fetchHTML(ctx, s.httpClient, pageURL, s.userAgent)
}

type proxyStrategy struct {
	httpClient *http.Client
	userAgent  string
	endpoint   string
}

func (s *proxyStrategy) Name() string { return "proxy" }

func (s *proxyStrategy) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	return fetchHTML(ctx, s.httpClient, s.endpoint+url.QueryEscape(pageURL), s.userAgent)
}

func fetchHTML(ctx context.Context, client *http.Client, requestURL, userAgent string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	return data, nil
}
