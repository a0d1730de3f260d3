package crawler

import "crawl-summarizer/internal/markdown"

// Result is the outcome of crawling one URL. Exactly one Result is emitted
// per URL the engine attempts.
type Result struct {
	URL        string
	Depth      int
	Success    bool
	StatusCode int
	Title      string
	Markdown   markdown.Document

	// ErrorMessage is set when Success is false.
	ErrorMessage string
}

// Content is the Markdown handed downstream: the fit rendering when the
// content filter kept something, the raw rendering otherwise.
func (r Result) Content() string {
	if r.Markdown.Fit != "" {
		return r.Markdown.Fit
	}
	return r.Markdown.Raw
}

func failed(rawURL string, depth, status int, err error) Result {
	return Result{
		URL:          rawURL,
		Depth:        depth,
		StatusCode:   status,
		ErrorMessage: err.Error(),
	}
}
