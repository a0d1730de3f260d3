package crawler

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"crawl-summarizer/internal/frontier"
	"crawl-summarizer/internal/hostman"
	"crawl-summarizer/internal/markdown"
	"crawl-summarizer/internal/parser"
)

var errDisallowed = errors.New("disallowed by robots.txt")

// Engine runs a breadth-first crawl from a single start page.
type Engine struct {
	log     zerolog.Logger
	opts    Options
	fetcher Fetcher
	hosts   *hostman.Manager
	gen     *markdown.Generator
}

func New(opts Options, fetcher Fetcher, logger zerolog.Logger) *Engine {
	opts.setDefaults()

	return &Engine{
		log:     logger,
		opts:    opts,
		fetcher: fetcher,
		hosts:   hostman.New(opts.UserAgent, opts.Delay, opts.RobotsTimeout, opts.RespectRobots),
		gen:     markdown.NewGenerator(opts.Filter),
	}
}

// Crawl starts the crawl and returns a channel carrying one Result per
// attempted URL, in completion order. The channel is closed when the
// frontier is exhausted, MaxPages pages were crawled successfully or ctx
// is done. Failed results do not count against MaxPages.
func (e *Engine) Crawl(ctx context.Context, start string) (<-chan Result, error) {
	u, err := url.Parse(start)
	if err != nil {
		return nil, errors.Wrap(err, "invalid start URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("start URL must be http(s), got %q", start)
	}

	out := make(chan Result)
	go e.run(ctx, parser.Normalize(u), out)
	return out, nil
}

func (e *Engine) run(ctx context.Context, start string, out chan<- Result) {
	defer close(out)

	queue := frontier.NewQueue()
	visited := frontier.NewVisited()

	queue.Enqueue(frontier.Item{URL: start, Depth: 0})
	visited.Add(start)

	begin := time.Now()
	attempted, crawled := 0, 0

	for crawled < e.opts.MaxPages && queue.Size() > 0 {
		if ctx.Err() != nil {
			break
		}

		// A batch never holds more URLs than successes still allowed.
		batch := queue.PopBatch(min(e.opts.BatchSize, e.opts.MaxPages-crawled))
		discovered := make([][]string, len(batch))
		succeeded := make([]bool, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.BatchSize)

		for i, item := range batch {
			g.Go(func() error {
				res, links := e.crawlOne(gctx, item)
				if gctx.Err() != nil && !res.Success {
					return nil
				}
				discovered[i] = links
				succeeded[i] = res.Success

				select {
				case out <- res:
				case <-gctx.Done():
				}
				return nil
			})
		}
		g.Wait()
		attempted += len(batch)
		for _, ok := range succeeded {
			if ok {
				crawled++
			}
		}

		// Children are queued in batch order so the visiting order does not
		// depend on which fetch finished first.
		for i, item := range batch {
			if item.Depth+1 > e.opts.MaxDepth {
				continue
			}
			for _, link := range discovered[i] {
				if e.opts.ExcludeExternalLinks && !parser.SameHost(start, link) {
					continue
				}
				if !visited.AddIfAbsent(link) {
					continue
				}
				queue.Enqueue(frontier.Item{URL: link, Depth: item.Depth + 1})
			}
		}

		e.log.Debug().
			Int("attempted", attempted).
			Int("crawled", crawled).
			Int("queued", queue.Size()).
			Msg("Batch finished")
	}

	e.log.Info().
		Int("attempted", attempted).
		Int("crawled", crawled).
		Int("discovered", queue.TotalQueued()).
		Int("unvisited", queue.Size()).
		Dur("elapsed", time.Since(begin)).
		Msg("Crawl finished")
}

// crawlOne fetches and converts a single page. It returns the links found
// on the page alongside the Result.
func (e *Engine) crawlOne(ctx context.Context, item frontier.Item) (Result, []string) {
	u, err := url.Parse(item.URL)
	if err != nil {
		return failed(item.URL, item.Depth, 0, err), nil
	}

	allowed, wait := e.hosts.Check(ctx, u)
	if !allowed {
		e.log.Debug().Str("url", item.URL).Msg("Blocked by robots.txt")
		return failed(item.URL, item.Depth, 0, errDisallowed), nil
	}
	if err := wait(ctx); err != nil {
		return failed(item.URL, item.Depth, 0, err), nil
	}

	page, err := e.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		e.log.Debug().Err(err).Str("url", item.URL).Msg("Fetch failed")
		return failed(item.URL, item.Depth, page.StatusCode, err), nil
	}

	res, links, err := e.process(page)
	if err != nil {
		return failed(item.URL, item.Depth, page.StatusCode, err), nil
	}
	res.URL = item.URL
	res.Depth = item.Depth
	return res, links
}

// process turns fetched HTML into Markdown and collects outgoing links.
func (e *Engine) process(page Page) (Result, []string, error) {
	pageURL, err := url.Parse(page.URL)
	if err != nil {
		return Result{}, nil, errors.Wrap(err, "invalid page URL")
	}

	_, links := parser.ExtractLinks(page.URL, page.HTML)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		return Result{}, nil, errors.Wrap(err, "failed to parse HTML")
	}

	title := parser.Title(doc)
	parser.Cleanup(doc)
	if e.opts.RemoveOverlays {
		parser.RemoveOverlays(doc)
	}
	if e.opts.ExcludeExternalLinks {
		parser.StripExternalLinks(doc, page.URL)
	}

	html, err := doc.Html()
	if err != nil {
		return Result{}, nil, errors.Wrap(err, "failed to render cleaned HTML")
	}

	md, err := e.gen.Generate(pageURL, html)
	if err != nil {
		return Result{}, nil, err
	}

	return Result{
		Success:    true,
		StatusCode: page.StatusCode,
		Title:      title,
		Markdown:   md,
	}, links, nil
}
