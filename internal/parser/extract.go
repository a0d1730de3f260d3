// internal/parser/extract.go
package parser

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// nodes that never carry readable content
const junkSelector = "script, style, noscript, template, svg, canvas, link, meta, object, embed"

// modals, popups and consent banners
const overlaySelector = `dialog, [role="dialog"], [role="alertdialog"], [aria-modal="true"], ` +
	`.modal, .popup, .overlay, .lightbox, .newsletter-popup, ` +
	`[class*="cookie-"], [id*="cookie-"], [class*="consent"], [id*="consent"]`

// Cleanup removes script, style and other non-content nodes in place.
func Cleanup(doc *goquery.Document) {
	doc.Find(junkSelector).Remove()
}

// RemoveOverlays strips overlay elements and anything pinned over the page
// with inline fixed positioning. It returns the number of removed elements.
func RemoveOverlays(doc *goquery.Document) int {
	sel := doc.Find(overlaySelector)
	n := sel.Length()
	sel.Remove()

	doc.Find("body [style]").Each(func(_ int, s *goquery.Selection) {
		style := strings.ToLower(strings.Join(strings.Fields(s.AttrOr("style", "")), ""))
		if strings.Contains(style, "position:fixed") || strings.Contains(style, "position:sticky") {
			s.Remove()
			n++
		}
	})
	return n
}

// StripExternalLinks replaces anchors pointing off pageURL's host with
// their text. It returns the number of unwrapped anchors.
func StripExternalLinks(doc *goquery.Document, pageURL string) int {
	n := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		abs := ResolveLink(pageURL, s.AttrOr("href", ""))
		if abs == "" || SameHost(pageURL, abs) {
			return
		}
		n++
		if s.Contents().Length() == 0 {
			s.Remove()
			return
		}
		s.Contents().Unwrap()
	})
	return n
}

// Title returns the document <title>, falling back to the first <h1>.
func Title(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// CountWords counts unicode letter/number runs.
func CountWords(s string) int {
	return len(splitWords(s))
}

// helper: unicode-aware split
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) })
}
