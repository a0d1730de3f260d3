package markdown

import (
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/pkg/errors"

	"crawl-summarizer/internal/parser"
)

// Document holds both renderings of one page.
type Document struct {
	// Raw is the whole cleaned page converted to Markdown.
	Raw string
	// Fit is the content-filtered page converted to Markdown. Empty when no
	// filter is configured or the filter kept nothing.
	Fit string
}

// Generator turns cleaned HTML into a Document.
type Generator struct {
	filter parser.Filter
}

// NewGenerator returns a Generator. A nil filter disables fit Markdown.
func NewGenerator(filter parser.Filter) *Generator {
	return &Generator{filter: filter}
}

// Generate converts html, already cleaned of scripts and overlays, into raw
// and fit Markdown. Links and images are made absolute against pageURL.
func (g *Generator) Generate(pageURL *url.URL, html string) (Document, error) {
	raw, err := Convert(pageURL, html)
	if err != nil {
		return Document{}, err
	}

	doc := Document{Raw: raw}
	if g.filter == nil {
		return doc, nil
	}

	filtered, err := g.filter.Filter(html, pageURL)
	if err != nil {
		return Document{}, errors.Wrap(err, "content filter failed")
	}

	doc.Fit, err = Convert(pageURL, filtered)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Convert renders a single HTML string to Markdown.
func Convert(pageURL *url.URL, html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	var opts []converter.ConvertOptionFunc
	if pageURL != nil {
		opts = append(opts, converter.WithDomain(pageURL.Scheme+"://"+pageURL.Host))
	}

	out, err := md.ConvertString(html, opts...)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert HTML to Markdown")
	}
	return strings.TrimSpace(out), nil
}
