package crawler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"crawl-summarizer/internal/metrics"
)

// Page is a fetched document before any processing.
type Page struct {
	URL        string // final URL after redirects
	StatusCode int
	HTML       []byte
}

// Fetcher downloads one URL. A non-nil error may come with a partially
// filled Page so the status code is not lost.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

const maxBodySize = 2 << 20 // 2 MiB safety cap

// HTTPFetcher fetches pages with a plain HTTP client. Nothing is cached.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{URL: rawURL}, errors.Wrap(err, "invalid request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{URL: rawURL}, err
	}
	defer resp.Body.Close()

	page := Page{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return page, errors.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || (mt != "text/html" && mt != "application/xhtml+xml") {
			return page, errors.Errorf("unsupported content type %q", ct)
		}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return page, errors.Wrap(err, "failed to read body")
	}
	metrics.BytesFetched.Add(float64(len(b)))
	metrics.PagesFetched.Inc()

	page.HTML = b
	return page, nil
}
