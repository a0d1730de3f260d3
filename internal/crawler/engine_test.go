package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSite serves canned HTML keyed by normalized URL.
type fakeSite map[string]string

func (s fakeSite) Fetch(_ context.Context, rawURL string) (Page, error) {
	html, ok := s[rawURL]
	if !ok {
		return Page{URL: rawURL, StatusCode: http.StatusNotFound}, errors.New("unexpected status 404 Not Found")
	}
	return Page{URL: rawURL, StatusCode: http.StatusOK, HTML: []byte(html)}, nil
}

var site = fakeSite{
	"https://example.com/": `<html><head><title>Home</title></head><body>
		<h1>Hello</h1>
		<a href="/a">A</a> <a href="/b">B</a> <a href="/a#top">A again</a>
		<a href="https://other.example/x">elsewhere</a>
	</body></html>`,
	"https://example.com/a": `<html><body><h1>World</h1><a href="/c">C</a><a href="/">home</a></body></html>`,
	"https://example.com/b": `<html><body><p>B page</p><a href="/d">D</a></body></html>`,
	"https://example.com/c": `<html><body><p>C page</p><a href="/e">E</a></body></html>`,
	"https://example.com/d": `<html><body><p>D page</p></body></html>`,
	"https://example.com/e": `<html><body><p>too deep</p></body></html>`,
	"https://other.example/x": `<html><body><p>external</p></body></html>`,
}

func testOptions() Options {
	return Options{
		MaxDepth:             2,
		MaxPages:             50,
		BatchSize:            1,
		ExcludeExternalLinks: true,
		RemoveOverlays:       true,
	}
}

func collect(t *testing.T, e *Engine, start string) []Result {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch, err := e.Crawl(ctx, start)
	require.NoError(t, err)

	var results []Result
	for r := range ch {
		results = append(results, r)
	}
	return results
}

func urls(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.URL
	}
	return out
}

func TestCrawlBreadthFirst(t *testing.T) {
	e := New(testOptions(), site, zerolog.Nop())
	results := collect(t, e, "https://example.com")

	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
		"https://example.com/d",
	}, urls(results))

	depths := make([]int, len(results))
	for i, r := range results {
		assert.True(t, r.Success, r.URL)
		depths[i] = r.Depth
	}
	assert.Equal(t, []int{0, 1, 1, 2, 2}, depths)
}

func TestCrawlMaxPages(t *testing.T) {
	opts := testOptions()
	opts.MaxPages = 2
	opts.BatchSize = 5

	results := collect(t, New(opts, site, zerolog.Nop()), "https://example.com/")
	assert.Len(t, results, 2)
}

func TestCrawlFailuresDoNotCountAgainstMaxPages(t *testing.T) {
	deadLinks := fakeSite{
		"https://example.com/": `<html><body>
			<a href="/x1">x1</a> <a href="/x2">x2</a> <a href="/ok">ok</a> <a href="/more">more</a>
		</body></html>`,
		"https://example.com/ok":   `<html><body><p>ok</p></body></html>`,
		"https://example.com/more": `<html><body><p>more</p></body></html>`,
	}

	opts := testOptions()
	opts.MaxPages = 2
	opts.BatchSize = 5

	results := collect(t, New(opts, deadLinks, zerolog.Nop()), "https://example.com/")

	var ok, failed []string
	for _, r := range results {
		if r.Success {
			ok = append(ok, r.URL)
		} else {
			failed = append(failed, r.URL)
		}
	}
	assert.Equal(t, []string{"https://example.com/", "https://example.com/ok"}, ok)
	assert.ElementsMatch(t, []string{"https://example.com/x1", "https://example.com/x2"}, failed)
	assert.NotContains(t, urls(results), "https://example.com/more")
}

func TestCrawlDepthZero(t *testing.T) {
	opts := testOptions()
	opts.MaxDepth = 0

	results := collect(t, New(opts, site, zerolog.Nop()), "https://example.com/")
	assert.Equal(t, []string{"https://example.com/"}, urls(results))
}

func TestCrawlConcurrentBatch(t *testing.T) {
	opts := testOptions()
	opts.BatchSize = 4

	results := collect(t, New(opts, site, zerolog.Nop()), "https://example.com/")
	assert.ElementsMatch(t, []string{
		"https://example.com/",
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
		"https://example.com/d",
	}, urls(results))
}

func TestCrawlFollowsExternalLinksWhenAllowed(t *testing.T) {
	opts := testOptions()
	opts.MaxDepth = 1
	opts.ExcludeExternalLinks = false

	results := collect(t, New(opts, site, zerolog.Nop()), "https://example.com/")
	assert.Contains(t, urls(results), "https://other.example/x")
}

func TestCrawlFailureResult(t *testing.T) {
	broken := fakeSite{
		"https://example.com/": `<html><body><a href="/gone">gone</a></body></html>`,
	}

	results := collect(t, New(testOptions(), broken, zerolog.Nop()), "https://example.com/")
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "https://example.com/gone", results[1].URL)
	assert.Equal(t, http.StatusNotFound, results[1].StatusCode)
	assert.Contains(t, results[1].ErrorMessage, "404")
}

func TestCrawlMarkdown(t *testing.T) {
	opts := testOptions()
	opts.MaxDepth = 0

	results := collect(t, New(opts, site, zerolog.Nop()), "https://example.com/")
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "Home", r.Title)
	assert.Empty(t, r.Markdown.Fit)
	assert.Contains(t, r.Content(), "# Hello")
	assert.Contains(t, r.Content(), "[A](https://example.com/a)")
	assert.NotContains(t, r.Content(), "other.example", "external anchors are unwrapped")
}

func TestResultContentPrefersFit(t *testing.T) {
	r := Result{}
	r.Markdown.Raw = "raw"
	assert.Equal(t, "raw", r.Content())

	r.Markdown.Fit = "fit"
	assert.Equal(t, "fit", r.Content())
}

func TestCrawlInvalidStart(t *testing.T) {
	e := New(testOptions(), site, zerolog.Nop())

	_, err := e.Crawl(context.Background(), "ftp://example.com/")
	assert.Error(t, err)
}

func TestCrawlCancelled(t *testing.T) {
	e := New(testOptions(), site, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := e.Crawl(ctx, "https://example.com/")
	require.NoError(t, err)

	n := 0
	for range ch {
		n++
	}
	assert.Zero(t, n)
}

func TestCrawlOverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1>Root</h1>
			<a href="/ok">ok</a> <a href="/private">private</a> <a href="/missing">missing</a>
			<a href="/data.json">data</a></body></html>`)
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>fine</p></body></html>`)
	})
	mux.HandleFunc("/private", func(w http.ResponseWriter, r *http.Request) {
		t.Error("robots.txt was ignored")
	})
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	opts := testOptions()
	opts.RespectRobots = true

	fetcher := NewHTTPFetcher("GoCrawler/test", 5*time.Second)
	results := collect(t, New(opts, fetcher, zerolog.Nop()), srv.URL)

	byURL := map[string]Result{}
	for _, r := range results {
		byURL[r.URL] = r
	}
	require.Len(t, byURL, 5)

	assert.True(t, byURL[srv.URL+"/"].Success)
	assert.True(t, byURL[srv.URL+"/ok"].Success)

	private := byURL[srv.URL+"/private"]
	assert.False(t, private.Success)
	assert.Equal(t, "disallowed by robots.txt", private.ErrorMessage)

	missing := byURL[srv.URL+"/missing"]
	assert.False(t, missing.Success)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	data := byURL[srv.URL+"/data.json"]
	assert.False(t, data.Success)
	assert.Contains(t, data.ErrorMessage, "unsupported content type")
}
