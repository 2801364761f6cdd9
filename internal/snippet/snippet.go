// Package snippet extracts bounded context windows around matched terms in
// item body text, for content-mode search results.
package snippet

import (
	"regexp"
	"strings"

	"github.com/dstanton/mailsearch-mcp/pkg/types"
)

// Config bounds snippet extraction. ScanCap stops the scan itself while
// MaxPerItem truncates the returned list; the scan cap is deliberately
// higher so earlier query terms get first claim on the emitted slots.
type Config struct {
	MaxPerItem   int // snippets returned per item
	ScanCap      int // occurrences collected before the scan stops
	WindowRadius int // context characters on each side of a match
}

// DefaultConfig returns the token-conscious defaults: 2 snippets returned
// out of at most 3 scanned, with 50 characters of context per side.
func DefaultConfig() Config {
	return Config{
		MaxPerItem:   2,
		ScanCap:      3,
		WindowRadius: 50,
	}
}

var tagPattern = regexp.MustCompile(`<[^<]+?>`)

// StripHTML removes markup from HTML body text with a simple tag-removal
// transform, for items that carry no plain-text body.
func StripHTML(html string) string {
	return tagPattern.ReplaceAllString(html, "")
}

// Extract finds non-overlapping, case-insensitive occurrences of each term
// in body and returns ellipsis-wrapped context windows around them. Terms
// are scanned in query order and the scan stops once cfg.ScanCap
// occurrences have been collected; the result is then truncated to
// cfg.MaxPerItem entries.
func Extract(body string, terms []string, cfg Config) []types.Match {
	if body == "" || len(terms) == 0 {
		return nil
	}

	lowered := strings.ToLower(body)
	var matches []types.Match

scan:
	for _, term := range terms {
		t := strings.ToLower(term)
		if t == "" {
			continue
		}
		for from := 0; ; {
			idx := strings.Index(lowered[from:], t)
			if idx < 0 {
				break
			}
			idx += from
			matches = append(matches, types.Match{
				Term:    term,
				Context: "..." + window(body, idx, idx+len(t), cfg.WindowRadius) + "...",
			})
			if len(matches) >= cfg.ScanCap {
				break scan
			}
			from = idx + len(t)
		}
	}

	if len(matches) > cfg.MaxPerItem {
		matches = matches[:cfg.MaxPerItem]
	}
	return matches
}

// window takes radius characters on each side of [start, end), clamped to
// the string bounds, with internal line breaks collapsed to single spaces.
func window(body string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(body) {
		hi = len(body)
	}

	ctx := body[lo:hi]
	ctx = strings.ReplaceAll(ctx, "\r\n", " ")
	ctx = strings.ReplaceAll(ctx, "\n", " ")
	ctx = strings.ReplaceAll(ctx, "\r", " ")
	return strings.TrimSpace(ctx)
}
