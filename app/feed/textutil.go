package feed

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SummaryLimit is the rune cap applied to item summaries before the
// ellipsis marker is appended.
const SummaryLimit = 220

// Ellipsis marks a truncated summary.
const Ellipsis = "…"

// StripHTML removes markup and decodes entities, collapsing all
// whitespace runs to single spaces.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	if strings.ContainsAny(s, "<>") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}

	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate caps s at limit runes, appending the ellipsis marker when
// anything was cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " ") + Ellipsis
}

// TrimSourceSuffix removes a trailing " - Source" or " – Source" tail
// from a title. Google News search results append the publisher name
// this way.
func TrimSourceSuffix(title, source string) string {
	if source == "" {
		return title
	}

	for _, sep := range []string{" - ", " – ", " — "} {
		suffix := sep + source
		if len(title) > len(suffix) && strings.EqualFold(title[len(title)-len(suffix):], suffix) {
			return strings.TrimSpace(title[:len(title)-len(suffix)])
		}
	}

	return title
}

// TrimPublisherSuffix cuts the trailing " - Publisher" segment that
// Google News appends to result titles, whatever the publisher is.
func TrimPublisherSuffix(title string) string {
	for _, sep := range []string{" - ", " – ", " — "} {
		if idx := strings.LastIndex(title, sep); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return title
}
