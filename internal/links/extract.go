// Package links finds absolute web links in plain text and HTML fragments.
package links

import (
	"regexp"
	"sort"
)

var (
	// A run stops at whitespace or <>"{}|\^`[] and must not end in .,;:!?
	urlPattern = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+[^\\s<>\"{}|\\\\^`\\[\\].,;:!?]")

	// URLs wrapped in angle brackets, as in <https://example.com/a b>
	bracketedPattern = regexp.MustCompile(`<(https?://[^>]+)>`)
)

// Extract returns the distinct http/https URLs found in text, sorted
func Extract(text string) []string {
	seen := make(map[string]struct{})

	for _, m := range urlPattern.FindAllString(text, -1) {
		seen[m] = struct{}{}
	}
	for _, m := range bracketedPattern.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Merge adds the links of src to dst, keeping the result distinct and sorted
func Merge(dst []string, src ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(src))
	out := make([]string, 0, len(dst)+len(src))
	for _, list := range [][]string{dst, src} {
		for _, u := range list {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}
