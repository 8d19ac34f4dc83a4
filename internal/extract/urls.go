package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]\}<>"']+`)

// URLs returns the distinct http(s) URLs in text, in order of appearance
func URLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	unique := []string{}
	for _, u := range matches {
		// Clean up trailing punctuation
		u = strings.TrimRight(u, ".,;:!?")
		if _, err := url.Parse(u); err != nil {
			continue
		}
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}

	return unique
}

// Slug turns a keyword into a URL path segment: each whitespace run becomes a hyphen
func Slug(keyword string) string {
	return strings.Join(strings.Fields(keyword), "-")
}

// HostOf returns the lower-cased host of rawURL without a leading "www."
func HostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
