package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdrcorrea/PontoNews/app/collect"
	"github.com/pdrcorrea/PontoNews/app/config"
	"github.com/pdrcorrea/PontoNews/app/enrich"
	"github.com/pdrcorrea/PontoNews/app/feed"
	"github.com/pdrcorrea/PontoNews/app/imagecache"
)

func newTestAggregator(client *http.Client, opts Options) *Aggregator {
	images := imagecache.NewCache(imagecache.NewMemStore(), client, "test-agent")
	collector := collect.NewCollector(
		client,
		feed.NewParser(),
		feed.NewFilterer(),
		enrich.NewEnricher(client, "test-agent"),
		images,
		"test-agent",
		5*time.Second,
	)
	return New(collector, images, opts)
}

func serveRSS(t *testing.T, items string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>%s</channel></rss>`, items)
	}))
}

func TestRunMixedSourcesRecordsFailure(t *testing.T) {
	server := serveRSS(t, `
<item><title>Noticia recente</title><link>https://example.com/a</link><pubDate>Wed, 03 Dec 2025 10:00:00 GMT</pubDate></item>
<item><title>Noticia antiga</title><link>https://example.com/b</link><pubDate>Mon, 01 Dec 2025 10:00:00 GMT</pubDate></item>`)
	defer server.Close()

	sources := []config.Source{
		{Name: "valida", Kind: config.KindRSS, URL: server.URL},
		{Name: "quebrada", Kind: config.KindGoogleNewsSearch}, // no query
	}

	agg := newTestAggregator(server.Client(), Options{MaxItems: 80, PerSourceMax: 12, Workers: 2})
	manifest := agg.Run(context.Background(), sources)

	if manifest.Stats.Sources != 2 {
		t.Errorf("Expected 2 configured sources, got %d", manifest.Stats.Sources)
	}
	if len(manifest.Stats.Failures) != 1 {
		t.Fatalf("Expected exactly 1 failure, got %d", len(manifest.Stats.Failures))
	}
	if manifest.Stats.Failures[0].Source != "quebrada" {
		t.Errorf("Expected failure for 'quebrada', got: %s", manifest.Stats.Failures[0].Source)
	}
	if manifest.Stats.Failures[0].Error == "" {
		t.Error("Expected failure error text")
	}

	if len(manifest.Items) != 2 {
		t.Fatalf("Expected 2 items from the valid source, got %d", len(manifest.Items))
	}
	for _, item := range manifest.Items {
		if item.Source != "valida" {
			t.Errorf("Expected all items from 'valida', got: %s", item.Source)
		}
	}

	// Sorted by publish instant descending.
	if manifest.Items[0].Title != "Noticia recente" {
		t.Errorf("Expected newest item first, got: %s", manifest.Items[0].Title)
	}

	if manifest.Stats.ItemsBeforeLimit != 2 {
		t.Errorf("Expected items_before_limit 2, got %d", manifest.Stats.ItemsBeforeLimit)
	}
	if len(manifest.Stats.PerSource) != 1 || manifest.Stats.PerSource[0].Count != 2 {
		t.Errorf("Unexpected per-source stats: %+v", manifest.Stats.PerSource)
	}
}

func TestRunAppliesGlobalCap(t *testing.T) {
	var items string
	for i := 0; i < 6; i++ {
		items += fmt.Sprintf(`<item><title>Noticia %d</title><link>https://example.com/%d</link><pubDate>Wed, 0%d Dec 2025 10:00:00 GMT</pubDate></item>`, i, i, i+1)
	}
	server := serveRSS(t, items)
	defer server.Close()

	sources := []config.Source{{Name: "unica", Kind: config.KindRSS, URL: server.URL}}

	agg := newTestAggregator(server.Client(), Options{MaxItems: 3, PerSourceMax: 12, Workers: 1})
	manifest := agg.Run(context.Background(), sources)

	if len(manifest.Items) != 3 {
		t.Errorf("Expected cap of 3 items, got %d", len(manifest.Items))
	}
	if manifest.Stats.ItemsBeforeLimit != 6 {
		t.Errorf("Expected items_before_limit 6, got %d", manifest.Stats.ItemsBeforeLimit)
	}
}

func TestRunUnknownDatesSortLast(t *testing.T) {
	server := serveRSS(t, `
<item><title>Sem data</title><link>https://example.com/nodate</link></item>
<item><title>Com data</title><link>https://example.com/dated</link><pubDate>Wed, 03 Dec 2025 10:00:00 GMT</pubDate></item>`)
	defer server.Close()

	sources := []config.Source{{Name: "fonte", Kind: config.KindRSS, URL: server.URL}}

	agg := newTestAggregator(server.Client(), Options{MaxItems: 80, PerSourceMax: 12, Workers: 1})
	manifest := agg.Run(context.Background(), sources)

	if len(manifest.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(manifest.Items))
	}
	if manifest.Items[0].Title != "Com data" {
		t.Errorf("Expected dated item first, got: %s", manifest.Items[0].Title)
	}
	if manifest.Items[1].PublishedAt != "" {
		t.Errorf("Expected undated item last, got: %s", manifest.Items[1].PublishedAt)
	}
}

func TestRunDeterministicAcrossRuns(t *testing.T) {
	server := serveRSS(t, `
<item><title>Primeira</title><link>https://example.com/1</link><pubDate>Wed, 03 Dec 2025 10:00:00 GMT</pubDate></item>
<item><title>Segunda</title><link>https://example.com/2</link><pubDate>Tue, 02 Dec 2025 10:00:00 GMT</pubDate></item>`)
	defer server.Close()

	sources := []config.Source{{Name: "fonte", Kind: config.KindRSS, URL: server.URL}}
	opts := Options{MaxItems: 80, PerSourceMax: 12, Workers: 3}

	first := newTestAggregator(server.Client(), opts).Run(context.Background(), sources)
	second := newTestAggregator(server.Client(), opts).Run(context.Background(), sources)

	if len(first.Items) != len(second.Items) {
		t.Fatalf("Expected identical item counts, got %d and %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i].ID != second.Items[i].ID {
			t.Errorf("Item %d: expected identical IDs, got %s and %s", i, first.Items[i].ID, second.Items[i].ID)
		}
	}
}

func TestRunSummaryLengthBound(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "palavras repetidas para estourar o limite "
	}
	server := serveRSS(t, fmt.Sprintf(`<item><title>Resumo longo</title><link>https://example.com/l</link><description>%s</description></item>`, long))
	defer server.Close()

	sources := []config.Source{{Name: "fonte", Kind: config.KindRSS, URL: server.URL}}
	manifest := newTestAggregator(server.Client(), Options{MaxItems: 80, PerSourceMax: 12, Workers: 1}).Run(context.Background(), sources)

	if len(manifest.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(manifest.Items))
	}

	summary := []rune(manifest.Items[0].Summary)
	if len(summary) > feed.SummaryLimit+1 {
		t.Errorf("Summary exceeds %d runes: %d", feed.SummaryLimit+1, len(summary))
	}
	if string(summary[len(summary)-1:]) != feed.Ellipsis {
		t.Error("Expected truncated summary to end with ellipsis")
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "news.json")

	manifest := EmptyManifest("sources file not found: ./sources.yml")
	if err := WriteManifest(manifest, path); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected manifest written, got: %v", err)
	}

	var decoded Manifest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if decoded.Items == nil || len(decoded.Items) != 0 {
		t.Errorf("Expected empty items array, got: %v", decoded.Items)
	}
	if decoded.Stats.Note == "" {
		t.Error("Expected explanatory note preserved")
	}
	if decoded.GeneratedAt == "" {
		t.Error("Expected generatedAt set")
	}
}

func TestSweepImagesRemovesUnreferenced(t *testing.T) {
	store := imagecache.NewMemStore()
	if _, err := store.Put(imagecache.Key("https://example.com/old.jpg"), ".jpg", []byte("old")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	images := imagecache.NewCache(store, http.DefaultClient, "test-agent")
	agg := New(nil, images, Options{})

	manifest := EmptyManifest("")
	if removed := agg.SweepImages(manifest); removed != 1 {
		t.Errorf("Expected 1 stale image removed, got %d", removed)
	}
}
