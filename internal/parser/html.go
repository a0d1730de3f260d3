package parser

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks tokenizes the page and returns its <title> text and every
// crawlable link, resolved against currURL, deduplicated in document order.
func ExtractLinks(currURL string, content []byte) (string, []string) {
	z := html.NewTokenizer(bytes.NewReader(content))
	title := ""
	links := make([]string, 0)
	seen := make(map[string]struct{})

	for {
		if z.Next() == html.ErrorToken {
			break
		}
		t := z.Token()

		if t.Type != html.StartTagToken && t.Type != html.SelfClosingTagToken {
			continue
		}

		switch t.Data {
		case "title":
			if title == "" && z.Next() == html.TextToken {
				title = strings.TrimSpace(z.Token().Data)
			}
		case "script", "style":
			z.Next() // skip contents
		case "a", "area":
			href := absoluteHref(t, currURL)
			if href == "" {
				continue
			}
			if _, dup := seen[href]; dup {
				continue
			}
			seen[href] = struct{}{}
			links = append(links, href)
		}
	}
	return title, links
}

func absoluteHref(tok html.Token, currURL string) string {
	for _, a := range tok.Attr {
		if a.Key == "href" {
			return ResolveLink(currURL, a.Val)
		}
	}
	return ""
}
