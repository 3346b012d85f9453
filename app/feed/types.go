package feed

// RawEntry is the parser's view of a single feed item, before any
// normalization. Summary and Date are kept exactly as the feed
// delivered them; absent fields are empty strings.
type RawEntry struct {
	Title    string
	Link     string
	Summary  string
	Date     string
	ImageURL string
}

// Item is the externally visible, normalized unit written to the
// manifest. PublishedAt is RFC3339 UTC or empty when unknown; Image is
// a path relative to the manifest, or empty.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	Scope       string `json:"scope,omitempty"`
	City        string `json:"city,omitempty"`
	PublishedAt string `json:"publishedAt"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	Logo        string `json:"logo,omitempty"`
}
