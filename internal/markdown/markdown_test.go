package markdown

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawl-summarizer/internal/parser"
)

type failingFilter struct{}

func (failingFilter) Filter(string, *url.URL) (string, error) {
	return "", errors.New("boom")
}

func pageURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://example.com/docs/")
	require.NoError(t, err)
	return u
}

func TestConvert(t *testing.T) {
	out, err := Convert(pageURL(t), `<h1>Hello</h1><p>Some <strong>bold</strong> text and a <a href="/a">link</a>.</p>`)
	require.NoError(t, err)

	assert.Contains(t, out, "# Hello")
	assert.Contains(t, out, "**bold**")
	assert.Contains(t, out, "[link](https://example.com/a)")
}

func TestConvertEmpty(t *testing.T) {
	out, err := Convert(pageURL(t), "  \n")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerate(t *testing.T) {
	html := `<html><body>
<nav><a href="/">Home</a></nav>
<h1>Guide</h1>
<p>This paragraph carries more than ten words of actual content for the reader.</p>
<p>Short.</p>
</body></html>`

	t.Run("without filter", func(t *testing.T) {
		doc, err := NewGenerator(nil).Generate(pageURL(t), html)
		require.NoError(t, err)

		assert.Contains(t, doc.Raw, "# Guide")
		assert.Contains(t, doc.Raw, "Short.")
		assert.Empty(t, doc.Fit)
	})

	t.Run("with pruning filter", func(t *testing.T) {
		g := NewGenerator(parser.PruningFilter{Threshold: 0.5, MinWords: 10})
		doc, err := g.Generate(pageURL(t), html)
		require.NoError(t, err)

		assert.Contains(t, doc.Raw, "Short.")
		assert.Contains(t, doc.Raw, "Home")

		assert.Contains(t, doc.Fit, "# Guide")
		assert.Contains(t, doc.Fit, "more than ten words")
		assert.NotContains(t, doc.Fit, "Short.")
		assert.NotContains(t, doc.Fit, "Home")
	})

	t.Run("filter error", func(t *testing.T) {
		_, err := NewGenerator(failingFilter{}).Generate(pageURL(t), html)
		require.Error(t, err)
	})
}
