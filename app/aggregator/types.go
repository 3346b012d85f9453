package aggregator

import (
	"github.com/pdrcorrea/PontoNews/app/feed"
)

// Manifest is the JSON artifact consumed by the presentation layer. It
// is regenerated wholly on each run; only the image cache persists
// across runs.
type Manifest struct {
	GeneratedAt string      `json:"generatedAt"`
	Items       []feed.Item `json:"items"`
	Stats       Stats       `json:"stats"`
}

type Stats struct {
	Sources          int           `json:"sources"`
	ItemsBeforeLimit int           `json:"items_before_limit"`
	PerSource        []SourceCount `json:"per_source"`
	Failures         []Failure     `json:"failures"`
	Note             string        `json:"note,omitempty"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type Failure struct {
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error"`
}
