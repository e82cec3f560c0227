// Package extract finds candidate URLs in raw message text and derives
// their hosts tolerantly. Malformed input degrades to empty results, never
// to an error.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// urlPattern matches http(s)://... and www.... tokens with a domain-like
// label sequence and an optional path/query tail. The leading (?:^|\W)
// keeps it from matching mid-word.
var urlPattern = regexp.MustCompile(
	`(?i)(?:^|\W)((?:https?://|www\.)[\w\-]+(?:\.[\w\-]+)+(?:[\w\-.,@?^=%&:/~+#]*[\w\-@?^=%&/~+#])?)`,
)

// schemeAuthority pulls the authority component out of scheme://authority
// when strict parsing fails.
var schemeAuthority = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://([^/\s?#]+)`)

// URLs returns the candidate URLs found in text, scheme-prefixed and
// deduplicated with the original relative order preserved. Matches without
// an http prefix get "https://" prepended.
func URLs(text string) []string {
	var urls []string
	seen := make(map[string]struct{})

	for _, m := range urlPattern.FindAllStringSubmatch(text, -1) {
		u := m[1]
		if !strings.HasPrefix(strings.ToLower(u), "http") {
			u = "https://" + u
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	return urls
}

// Domain returns the host of a URL with any leading "www." label stripped.
// It attempts strict parsing first, then falls back to a permissive
// scheme://authority scan. Returns "" when no host can be determined.
func Domain(rawURL string) string {
	return strings.TrimPrefix(hostTolerant(rawURL), "www.")
}

// hostTolerant extracts the host portion of a URL without ever failing.
func hostTolerant(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		if host := parsed.Hostname(); host != "" {
			return host
		}
	}

	m := schemeAuthority.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}

	hostPort := m[1]
	if i := strings.IndexByte(hostPort, ':'); i >= 0 {
		hostPort = hostPort[:i]
	}
	return hostPort
}
