package enrich

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Result carries whatever metadata could be recovered from the article
// page. Fields are empty when extraction failed; the item proceeds
// without them.
type Result struct {
	URL         string
	ImageURL    string
	PublishedAt string
}

// Enricher visits an article page to recover the image and publish time
// the feed did not supply. It never returns an error: every step
// degrades to empty fields.
type Enricher struct {
	httpClient *http.Client
	userAgent  string
	strategies []fetchStrategy
}

func NewEnricher(httpClient *http.Client, userAgent string) *Enricher {
	return &Enricher{
		httpClient: httpClient,
		userAgent:  userAgent,
		strategies: []fetchStrategy{
			&directStrategy{httpClient: httpClient, userAgent: userAgent},
			&proxyStrategy{httpClient: httpClient, userAgent: userAgent, endpoint: allOriginsEndpoint},
		},
	}
}

// Run resolves the final article URL and extracts image and publish
// time from the page metadata.
func (e *Enricher) Run(ctx context.Context, articleURL string) Result {
	result := Result{URL: e.ResolveURL(ctx, articleURL)}

	data := e.fetchPage(ctx, result.URL)
	if len(data) == 0 {
		return result
	}

	result.ImageURL, result.PublishedAt = extractMetadata(data)

	if result.ImageURL == "" || result.PublishedAt == "" {
		image, published := readabilityFallback(data, result.URL)
		if result.ImageURL == "" {
			result.ImageURL = image
		}
		if result.PublishedAt == "" {
			result.PublishedAt = published
		}
	}

	return result
}

// ResolveURL follows redirects to the canonical article URL. Google
// News links wrap the original publisher URL behind one. A GET is used
// rather than HEAD since many publishers block HEAD; the body is
// discarded. Any failure keeps the original URL.
func (e *Enricher) ResolveURL(ctx context.Context, articleURL string) string {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", articleURL, nil)
	if err != nil {
		return articleURL
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return articleURL
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return articleURL
}

func (e *Enricher) fetchPage(ctx context.Context, pageURL string) []byte {
	for _, strategy := range e.strategies {
		data, err := strategy.Fetch(ctx, pageURL)
		if err != nil {
			slog.Debug("Fetch strategy failed", "strategy", strategy.Name(), "url", pageURL, "error", err)
			continue
		}
		return data
	}
	return nil
}

// extractMetadata reads og:/twitter:/article: meta tags, falling back
// to the first <time datetime> element for the publish instant.
func extractMetadata(data []byte) (imageURL, publishedAt string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", ""
	}

	metaContent := func(attr, value string) string {
		if s, ok := doc.Find(`meta[`+attr+`="`+value+`"]`).First().Attr("content"); ok {
			return strings.TrimSpace(s)
		}
		return ""
	}

	imageURL = firstNonEmpty(
		metaContent("property", "og:image"),
		metaContent("property", "og:image:secure_url"),
		metaContent("name", "twitter:image"),
		metaContent("name", "twitter:image:src"),
	)

	publishedAt = firstNonEmpty(
		metaContent("property", "article:published_time"),
		metaContent("property", "og:updated_time"),
	)
	if publishedAt == "" {
		if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			publishedAt = strings.TrimSpace(datetime)
		}
	}

	return imageURL, publishedAt
}

func readabilityFallback(data []byte, pageURL string) (imageURL, publishedAt string) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return "", ""
	}

	if article.PublishedTime != nil {
		publishedAt = article.PublishedTime.UTC().Format(time.RFC3339)
	}

	return article.Image, publishedAt
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
