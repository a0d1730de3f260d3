// internal/parser/link.go
package parser

import (
	"net/url"
	"strings"
)

// schemes we refuse to crawl
var badScheme = map[string]struct{}{
	"mailto":     {},
	"javascript": {},
	"tel":        {},
	"data":       {},
}

// ResolveLink converts a raw <a href="…"> into an absolute URL string.
// It returns "" if the link should be ignored.
func ResolveLink(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return ""
	}

	bu, err := url.Parse(base)
	if err != nil {
		return ""
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	// Disallow unsupported or dangerous schemes.
	if ref.Scheme != "" {
		if _, bad := badScheme[strings.ToLower(ref.Scheme)]; bad {
			return ""
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return ""
		}
	}

	return Normalize(bu.ResolveReference(ref))
}

// Normalize drops the fragment and gives an empty path a slash so that
// equivalent URLs hash the same in the visited set.
func Normalize(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.RawFragment = ""
	n.Host = strings.ToLower(n.Host)
	if n.Path == "" {
		n.Path = "/"
	}
	return n.String()
}

// SameHost reports whether link points at the same host as base.
// A leading "www." is ignored on both sides.
func SameHost(base, link string) bool {
	bu, err := url.Parse(base)
	if err != nil {
		return false
	}
	lu, err := url.Parse(link)
	if err != nil {
		return false
	}
	return trimWWW(bu.Host) == trimWWW(lu.Host)
}

func trimWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
