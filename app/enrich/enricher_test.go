package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
  <meta property="og:image" content="https://cdn.example.com/capa.jpg"/>
  <meta property="article:published_time" content="2025-06-10T08:30:00Z"/>
  <title>Materia</title>
</head>
<body><article><p>Texto da materia.</p></article></body>
</html>`

func TestRunExtractsMetaTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	enricher := NewEnricher(server.Client(), "test-agent")
	result := enricher.Run(context.Background(), server.URL+"/materia")

	if result.ImageURL != "https://cdn.example.com/capa.jpg" {
		t.Errorf("Expected og:image URL, got: %s", result.ImageURL)
	}
	if result.PublishedAt != "2025-06-10T08:30:00Z" {
		t.Errorf("Expected article:published_time, got: %s", result.PublishedAt)
	}
	if result.URL != server.URL+"/materia" {
		t.Errorf("Expected canonical URL preserved, got: %s", result.URL)
	}
}

func TestRunTwitterImageAndTimeElementFallback(t *testing.T) {
	page := `<html><head>
<meta name="twitter:image" content="https://cdn.example.com/tw.png"/>
</head><body><time datetime="2025-06-11T10:00:00Z">11 de junho</time></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	result := NewEnricher(server.Client(), "test-agent").Run(context.Background(), server.URL)

	if result.ImageURL != "https://cdn.example.com/tw.png" {
		t.Errorf("Expected twitter:image fallback, got: %s", result.ImageURL)
	}
	if result.PublishedAt != "2025-06-11T10:00:00Z" {
		t.Errorf("Expected <time datetime> fallback, got: %s", result.PublishedAt)
	}
}

func TestResolveURLFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/wrapped", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})

	enricher := NewEnricher(server.Client(), "test-agent")
	resolved := enricher.ResolveURL(context.Background(), server.URL+"/wrapped")

	if resolved != server.URL+"/final" {
		t.Errorf("Expected redirect resolved to /final, got: %s", resolved)
	}
}

func TestResolveURLKeepsOriginalOnFailure(t *testing.T) {
	enricher := NewEnricher(http.DefaultClient, "test-agent")
	original := "http://127.0.0.1:1/unreachable"

	if resolved := enricher.ResolveURL(context.Background(), original); resolved != original {
		t.Errorf("Expected original URL kept on fetch failure, got: %s", resolved)
	}
}

type fakeStrategy struct {
	name string
	data []byte
	err  error
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	return s.data, s.err
}

func TestFetchPageFallsBackToNextStrategy(t *testing.T) {
	enricher := &Enricher{
		strategies: []fetchStrategy{
			&fakeStrategy{name: "first", err: fmt.Errorf("blocked")},
			&fakeStrategy{name: "second", data: []byte(articlePage)},
		},
	}

	data := enricher.fetchPage(context.Background(), "https://example.com/materia")
	if len(data) == 0 {
		t.Fatal("Expected second strategy to supply HTML")
	}

	imageURL, publishedAt := extractMetadata(data)
	if imageURL != "https://cdn.example.com/capa.jpg" {
		t.Errorf("Unexpected image: %s", imageURL)
	}
	if publishedAt != "2025-06-10T08:30:00Z" {
		t.Errorf("Unexpected publish time: %s", publishedAt)
	}
}

func TestRunNeverErrorsOnDeadEndpoint(t *testing.T) {
	enricher := &Enricher{
		httpClient: http.DefaultClient,
		userAgent:  "test-agent",
		strategies: []fetchStrategy{
			&fakeStrategy{name: "first", err: fmt.Errorf("down")},
			&fakeStrategy{name: "second", err: fmt.Errorf("also down")},
		},
	}

	result := enricher.Run(context.Background(), "http://127.0.0.1:1/unreachable")
	if result.ImageURL != "" || result.PublishedAt != "" {
		t.Errorf("Expected empty result, got: %+v", result)
	}
	if result.URL != "http://127.0.0.1:1/unreachable" {
		t.Errorf("Expected original URL kept, got: %s", result.URL)
	}
}
