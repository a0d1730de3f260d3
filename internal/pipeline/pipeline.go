package pipeline

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"crawl-summarizer/internal/crawler"
	"crawl-summarizer/internal/log"
	"crawl-summarizer/internal/metrics"
	"crawl-summarizer/internal/storage"
	"crawl-summarizer/internal/summarize"
)

// Crawler produces a single-pass stream of crawl results.
type Crawler interface {
	Crawl(ctx context.Context, start string) (<-chan crawler.Result, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, content, url string) summarize.Summary
}

// Store is the output directory. storage.Writer implements it.
type Store interface {
	Init() error
	InitSummaryDocument() error
	Save(url, content string, n int) (string, error)
	Read(path string) (string, error)
	AppendSummary(text string) error
	SummaryPath() string
}

// Stats describes a finished run.
type Stats struct {
	Pages           int // successfully crawled and saved
	Failed          int // failed crawl results
	SummaryFailures int
	SummaryPath     string
}

// Pipeline consumes crawl results one at a time: save, read back,
// summarize, append, archive.
type Pipeline struct {
	log zerolog.Logger

	crawler    Crawler
	summarizer Summarizer
	store      Store
	archive    storage.Archive
}

type Option func(*Pipeline)

// WithArchive keeps a copy of every processed page in a.
func WithArchive(a storage.Archive) Option {
	return func(p *Pipeline) { p.archive = a }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

func New(c Crawler, s Summarizer, store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:        log.NewLogger("pipeline"),
		crawler:    c,
		summarizer: s,
		store:      store,
		archive:    storage.NopArchive{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run crawls from startURL and processes every result until the crawl
// ends. File I/O errors abort the run; summary and archive failures do not.
func (p *Pipeline) Run(ctx context.Context, startURL string) (Stats, error) {
	stats := Stats{SummaryPath: p.store.SummaryPath()}

	if err := p.store.Init(); err != nil {
		return stats, err
	}
	if err := p.store.InitSummaryDocument(); err != nil {
		return stats, err
	}

	results, err := p.crawler.Crawl(ctx, startURL)
	if err != nil {
		return stats, errors.Wrap(err, "failed to start crawl")
	}

	p.log.Info().Str("start_url", startURL).Msg("Deep crawl started")

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()

		case res, ok := <-results:
			if !ok {
				p.finish(stats)
				return stats, nil
			}

			if !res.Success {
				stats.Failed++
				metrics.PagesFailed.Inc()
				p.log.Warn().Msgf("[FAIL] URL: %s, Error: %s", res.URL, res.ErrorMessage)
				continue
			}

			stats.Pages++
			summary, err := p.process(ctx, res, stats.Pages)
			if err != nil {
				return stats, err
			}
			if !summary.OK() {
				stats.SummaryFailures++
			}
		}
	}
}

// process handles the n-th successful result.
func (p *Pipeline) process(ctx context.Context, res crawler.Result, n int) (summarize.Summary, error) {
	content := res.Content()

	path, err := p.store.Save(res.URL, content, n)
	if err != nil {
		return summarize.Summary{}, err
	}
	metrics.PagesSaved.Inc()

	saved, err := p.store.Read(path)
	if err != nil {
		return summarize.Summary{}, err
	}

	summary := p.summarizer.Summarize(ctx, saved, res.URL)
	if err := p.store.AppendSummary(summary.Block()); err != nil {
		return summary, err
	}

	outcome := "ok"
	if !summary.OK() {
		outcome = "failed"
	}
	metrics.Summaries.WithLabelValues(outcome).Inc()

	p.archivePage(ctx, res, path, saved, summary)

	p.log.Info().
		Str("file", path).
		Bool("summarized", summary.OK()).
		Msgf("[OK] Crawled: %s (Depth: %d, Markdown Length: %d)", res.URL, res.Depth, utf8.RuneCountInString(content))

	return summary, nil
}

func (p *Pipeline) archivePage(ctx context.Context, res crawler.Result, path, content string, summary summarize.Summary) {
	rec := storage.PageRecord{
		URL:           res.URL,
		Depth:         res.Depth,
		Title:         res.Title,
		File:          path,
		ContentLength: utf8.RuneCountInString(content),
		Content:       content,
		Summary:       summary.Text,
		CrawledAt:     time.Now().UTC(),
	}
	if summary.Err != nil {
		rec.SummaryError = summary.Err.Error()
	}

	if err := p.archive.Insert(ctx, rec); err != nil {
		p.log.Error().Err(err).Str("url", res.URL).Msg("Failed to archive page")
	}
}

func (p *Pipeline) finish(stats Stats) {
	p.log.Info().
		Int("failed", stats.Failed).
		Int("summary_failures", stats.SummaryFailures).
		Msgf("Deep crawl finished. Total pages successfully crawled: %d", stats.Pages)
	p.log.Info().Msgf("Summaries saved to %s", stats.SummaryPath)
}
