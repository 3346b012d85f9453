package feed

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Years outside this window are treated as feed garbage rather than
// propagated into the sort order.
const minPlausibleYear = 2000

var standardLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", false},
	{time.RFC1123Z, false},
	{time.RFC1123, false},
	{time.RFC822Z, false},
	{time.RFC822, false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", true},
}

var ptLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{"02/01/2006 15:04:05", false},
	{"02/01/2006 15:04", false},
	{"02/01/2006", true},
}

// Keys are accent-folded; input goes through foldAccents before lookup,
// so both "março" and "marco" resolve.
var ptMonths = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

var ptLongDate = regexp.MustCompile(`^(\d{1,2}) de ([a-z]+) de (\d{4})$`)

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeDate parses a date string in whatever format a feed or
// article page used and returns an RFC3339 UTC instant, or "" when the
// string cannot be parsed into a plausible date. Date-only inputs are
// pinned to 12:00 UTC so timezone offsets cannot shift the day.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, candidate := range standardLayouts {
		if t, err := time.Parse(candidate.layout, s); err == nil {
			return canonicalInstant(t, candidate.dateOnly)
		}
	}

	for _, candidate := range ptLayouts {
		if t, err := time.Parse(candidate.layout, s); err == nil {
			return canonicalInstant(t, candidate.dateOnly)
		}
	}

	if t, ok := parsePortugueseLongDate(s); ok {
		return canonicalInstant(t, true)
	}

	if t, err := dateparse.ParseAny(s); err == nil {
		return canonicalInstant(t, false)
	}

	return ""
}

// parsePortugueseLongDate handles "3 de dezembro de 2025" style dates.
func parsePortugueseLongDate(s string) (time.Time, bool) {
	normalized := foldAccents(strings.ToLower(s))

	matches := ptLongDate.FindStringSubmatch(normalized)
	if matches == nil {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, false
	}

	month, ok := ptMonths[matches[2]]
	if !ok {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(matches[3])
	if err != nil {
		return time.Time{}, false
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}

	return t, true
}

func canonicalInstant(t time.Time, dateOnly bool) string {
	if !plausibleYear(t) {
		return ""
	}
	t = t.UTC()
	if dateOnly {
		t = time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	}
	return t.Format(time.RFC3339)
}

func plausibleYear(t time.Time) bool {
	year := t.UTC().Year()
	return year >= minPlausibleYear && year <= time.Now().UTC().Year()+2
}
