package feed

import (
	"bytes"
	"cmp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run turns raw feed bytes into entries in document order. RSS 2.0 and
// Atom are detected structurally by gofeed. Bytes that are not
// feed-shaped at all produce an empty slice, not an error: the caller
// treats zero entries as a successful but empty source. Entries without
// an extractable title are dropped here.
func (p *Parser) Run(data []byte) []RawEntry {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil || parsed == nil {
		return nil
	}

	entries := make([]RawEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		title := StripHTML(item.Title)
		if title == "" {
			continue
		}

		entries = append(entries, RawEntry{
			Title:    title,
			Link:     strings.TrimSpace(item.Link),
			Summary:  cmp.Or(item.Description, item.Content),
			Date:     cmp.Or(item.Published, item.Updated),
			ImageURL: p.extractImage(item),
		})
	}

	return entries
}

// extractImage picks an embedded media URL, preferring explicit
// enclosures over media extensions over whatever is inlined in the
// description markup.
func (p *Parser) extractImage(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if strings.HasPrefix(enclosure.Type, "image/") || looksLikeImageURL(enclosure.URL) {
			return enclosure.URL
		}
	}

	if url := p.mediaExtensionURL(item, "content"); url != "" {
		return url
	}
	if url := p.mediaExtensionURL(item, "thumbnail"); url != "" {
		return url
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	return firstInlineImage(cmp.Or(item.Description, item.Content))
}

func (p *Parser) mediaExtensionURL(item *gofeed.Item, element string) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}

	for _, extension := range media[element] {
		if url := extension.Attrs["url"]; url != "" {
			return url
		}
	}

	return ""
}

func firstInlineImage(markup string) string {
	if !strings.Contains(markup, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img").First().Attr("src")
	return src
}

func looksLikeImageURL(url string) bool {
	lowered := strings.ToLower(url)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(lowered, ext) {
			return true
		}
	}
	return false
}
