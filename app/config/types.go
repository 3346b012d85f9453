package config

// Source kinds
const (
	KindRSS              = "rss"
	KindGoogleNewsSearch = "google_news_search"
)

type Config struct {
	Defaults Defaults `yaml:"defaults"`
	MaxItems int      `yaml:"max_items"`
	Sources  []Source `yaml:"sources"`
}

type Defaults struct {
	Language string `yaml:"language"`
	Country  string `yaml:"country"`
}

// Source describes one configured feed. Either URL (kind "rss") or
// Query (kind "google_news_search") identifies what to fetch.
type Source struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	URL      string `yaml:"url"`
	Query    string `yaml:"query"`
	Language string `yaml:"language"`
	Country  string `yaml:"country"`
	Scope    string `yaml:"scope"`
	City     string `yaml:"city"`
	Logo     string `yaml:"logo"`
	Enrich   bool   `yaml:"enrich"`
}
