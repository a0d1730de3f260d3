package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/pkg/errors"
)

// Filter reduces a cleaned HTML document to the content worth keeping.
type Filter interface {
	Filter(html string, pageURL *url.URL) (string, error)
}

// structural boilerplate dropped before scoring
const boilerplateSelector = "nav, header, footer, aside, form, iframe, button, input, select"

var negativeHint = regexp.MustCompile(`(?i)\b(nav|navbar|menu|footer|sidebar|breadcrumbs?|comments?|advert|ads?|banner|share|social|related|promo|pagination)\b`)

// blocks that get scored; everything else survives unless an ancestor goes
const blockSelector = "p, li, pre, blockquote, table, dd, dt, figcaption, h1, h2, h3, h4, h5, h6"

var tagWeight = map[string]float64{
	"p":          1.0,
	"pre":        1.0,
	"blockquote": 1.0,
	"table":      0.9,
	"h1":         0.9,
	"h2":         0.9,
	"h3":         0.9,
	"h4":         0.8,
	"h5":         0.8,
	"h6":         0.8,
	"li":         0.7,
	"dd":         0.7,
	"dt":         0.7,
	"figcaption": 0.6,
}

// PruningFilter scores each content block and drops the low-value ones.
// A block is kept when it has at least MinWords words (headings and code
// are exempt) and its score reaches Threshold. The score mixes text
// density, the share of non-link text and a per-tag weight, each in [0, 1].
type PruningFilter struct {
	Threshold float64
	MinWords  int
}

func (f PruningFilter) Filter(html string, _ *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse HTML")
	}

	f.Prune(doc)

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", errors.Wrap(err, "failed to render pruned HTML")
	}
	return strings.TrimSpace(out), nil
}

// Prune removes boilerplate and low-scoring blocks from doc in place.
func (f PruningFilter) Prune(doc *goquery.Document) {
	doc.Find(boilerplateSelector).Remove()

	doc.Find("body [class], body [id]").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "main", "article":
			return
		}
		if s.Find("main, article").Length() > 0 {
			return
		}
		hint := s.AttrOr("class", "") + " " + s.AttrOr("id", "")
		if negativeHint.MatchString(hint) {
			s.Remove()
		}
	})

	// Walk backwards so nested blocks are judged before their parents.
	blocks := doc.Find(blockSelector)
	for i := blocks.Length() - 1; i >= 0; i-- {
		s := blocks.Eq(i)
		if !f.keep(s) {
			s.Remove()
		}
	}
}

func (f PruningFilter) keep(s *goquery.Selection) bool {
	tag := goquery.NodeName(s)
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return false
	}

	exempt := tag == "pre" || (len(tag) == 2 && tag[0] == 'h')
	if !exempt && CountWords(text) < f.MinWords {
		return false
	}

	return f.score(s, tag, text) >= f.Threshold
}

func (f PruningFilter) score(s *goquery.Selection, tag, text string) float64 {
	textLen := float64(len(text))

	markup, err := goquery.OuterHtml(s)
	textDensity := 1.0
	if err == nil && len(markup) > 0 {
		textDensity = textLen / float64(len(markup))
		if textDensity > 1 {
			textDensity = 1
		}
	}

	linkLen := float64(len(strings.TrimSpace(s.Find("a").Text())))
	linkDensity := linkLen / textLen
	if linkDensity > 1 {
		linkDensity = 1
	}

	return 0.2*textDensity + 0.5*(1-linkDensity) + 0.3*tagWeight[tag]
}

// ReadabilityFilter keeps only the main article as detected by go-readability.
type ReadabilityFilter struct{}

func (ReadabilityFilter) Filter(html string, pageURL *url.URL) (string, error) {
	rp := readability.NewParser()
	article, err := rp.Parse(strings.NewReader(html), pageURL)
	if err != nil {
		return "", errors.Wrap(err, "failed to extract main article")
	}
	return article.Content, nil
}
