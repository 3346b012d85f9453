package collect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pdrcorrea/PontoNews/app/config"
	"github.com/pdrcorrea/PontoNews/app/enrich"
	"github.com/pdrcorrea/PontoNews/app/feed"
	"github.com/pdrcorrea/PontoNews/app/imagecache"
)

const googleNewsSearchEndpoint = "https://news.google.com/rss/search"

// Collector turns one configured source into normalized items.
type Collector struct {
	httpClient   *http.Client
	parser       *feed.Parser
	filterer     *feed.Filterer
	enricher     *enrich.Enricher
	images       *imagecache.Cache
	userAgent    string
	fetchTimeout time.Duration
}

func NewCollector(httpClient *http.Client, parser *feed.Parser, filterer *feed.Filterer,
	enricher *enrich.Enricher, images *imagecache.Cache, userAgent string, fetchTimeout time.Duration) *Collector {
	return &Collector{
		httpClient:   httpClient,
		parser:       parser,
		filterer:     filterer,
		enricher:     enricher,
		images:       images,
		userAgent:    userAgent,
		fetchTimeout: fetchTimeout,
	}
}

// FeedURL builds the feed URL for a source: pass-through for direct
// RSS, a composed search-RSS endpoint for Google News sources.
func FeedURL(source config.Source) (string, error) {
	switch source.Kind {
	case config.KindRSS:
		if source.URL == "" {
			return "", fmt.Errorf("source %s has no feed URL", source.Name)
		}
		return source.URL, nil

	case config.KindGoogleNewsSearch:
		if source.Query == "" {
			return "", fmt.Errorf("source %s has no search query", source.Name)
		}
		params := url.Values{}
		params.Set("q", source.Query)
		params.Set("hl", source.Language)
		params.Set("gl", source.Country)
		params.Set("ceid", source.Country+":"+source.Language)
		return googleNewsSearchEndpoint + "?" + params.Encode(), nil

	default:
		return "", fmt.Errorf("source %s has unknown kind: %s", source.Name, source.Kind)
	}
}

// Run fetches and normalizes one source, stopping at limit items. It
// returns the attempted feed URL alongside the error so the caller can
// record failures with context. Per-entry problems never surface as
// errors; only source-level ones (bad URL, unreachable feed) do.
func (c *Collector) Run(ctx context.Context, source config.Source, limit int) ([]feed.Item, string, error) {
	feedURL, err := FeedURL(source)
	if err != nil {
		return nil, "", err
	}

	data, err := c.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, feedURL, fmt.Errorf("failed to fetch feed: %w", err)
	}

	entries := c.parser.Run(data)
	slog.Debug("Feed parsed", "source", source.Name, "entries", len(entries))

	items := make([]feed.Item, 0, min(limit, len(entries)))
	seen := make(map[string]bool)

	for _, entry := range entries {
		if len(items) >= limit {
			break
		}

		item, ok := c.normalizeEntry(ctx, source, entry)
		if !ok {
			continue
		}
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true

		items = append(items, item)
	}

	return items, feedURL, nil
}

func (c *Collector) normalizeEntry(ctx context.Context, source config.Source, entry feed.RawEntry) (feed.Item, bool) {
	title := entry.Title
	if source.Kind == config.KindGoogleNewsSearch {
		title = feed.TrimPublisherSuffix(title)
	} else {
		title = feed.TrimSourceSuffix(title, source.Name)
	}
	if title == "" {
		return feed.Item{}, false
	}

	summary := feed.Truncate(feed.StripHTML(entry.Summary), feed.SummaryLimit)

	if c.filterer.Excluded(title, summary) {
		slog.Debug("Entry excluded by blocklist", "source", source.Name, "title", title)
		return feed.Item{}, false
	}

	publishedAt := feed.NormalizeDate(entry.Date)
	articleURL := entry.Link
	imageURL := entry.ImageURL

	if source.Enrich && articleURL != "" && (imageURL == "" || publishedAt == "") {
		result := c.enricher.Run(ctx, articleURL)
		articleURL = result.URL
		if imageURL == "" {
			imageURL = result.ImageURL
		}
		if publishedAt == "" && result.PublishedAt != "" {
			publishedAt = feed.NormalizeDate(result.PublishedAt)
		}
	}

	return feed.Item{
		ID:          itemID(source.Name, articleURL, title),
		Title:       title,
		Summary:     summary,
		Source:      source.Name,
		Scope:       source.Scope,
		City:        source.City,
		PublishedAt: publishedAt,
		URL:         articleURL,
		Image:       c.images.FetchAndCache(ctx, imageURL),
		Logo:        source.Logo,
	}, true
}

func (c *Collector) fetchFeed(ctx context.Context, feedURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// itemID derives a stable identifier from the source name and the final
// article URL, falling back to the title when no URL exists. Re-runs
// with the same inputs produce the same IDs.
func itemID(source, articleURL, title string) string {
	identity := articleURL
	if identity == "" {
		identity = title
	}

	hash := sha256.Sum256([]byte(source + "|" + identity))
	return hex.EncodeToString(hash[:])[:16]
}
