package crawler

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"crawl-summarizer/internal/metrics"
)

const removeOverlaysJS = `(() => {
  const sel = 'dialog, [role="dialog"], [role="alertdialog"], [aria-modal="true"], .modal, .popup, .overlay, [class*="cookie"], [id*="cookie"], [class*="consent"]';
  let n = 0;
  document.querySelectorAll(sel).forEach(el => { el.remove(); n++; });
  document.querySelectorAll('body *').forEach(el => {
    const pos = getComputedStyle(el).position;
    if ((pos === 'fixed' || pos === 'sticky') && el.offsetHeight > window.innerHeight * 0.3) { el.remove(); n++; }
  });
  document.documentElement.style.overflow = 'auto';
  document.body.style.overflow = 'auto';
  return n;
})()`

const inlineIframesJS = `(() => {
  let n = 0;
  document.querySelectorAll('iframe').forEach(f => {
    try {
      const body = f.contentDocument && f.contentDocument.body;
      if (!body) return;
      const div = document.createElement('div');
      div.className = 'inlined-iframe';
      div.innerHTML = body.innerHTML;
      f.replaceWith(div);
      n++;
    } catch (e) {}
  });
  return n;
})()`

// BrowserOptions configures the headless browser.
type BrowserOptions struct {
	UserAgent      string
	PageTimeout    time.Duration
	Headless       bool
	RemoveOverlays bool
	ProcessIframes bool
}

// BrowserFetcher renders pages in headless Chrome with JavaScript enabled.
// Each Fetch opens a new tab in a shared browser; the cache is disabled.
type BrowserFetcher struct {
	log  zerolog.Logger
	opts BrowserOptions

	browser       context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewBrowserFetcher starts the browser. Close must be called to stop it.
func NewBrowserFetcher(opts BrowserOptions, logger zerolog.Logger) (*BrowserFetcher, error) {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-application-cache", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		logger.Debug().Msgf(format, args...)
	}))

	// Run without actions launches the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, errors.Wrap(err, "failed to start browser")
	}

	logger.Info().Bool("headless", opts.Headless).Msg("Browser started")

	return &BrowserFetcher{
		log:           logger,
		opts:          opts,
		browser:       browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
	}, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browser)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.opts.PageTimeout)
	defer cancelTimeout()

	// Stop the tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	page := Page{URL: rawURL}

	if err := chromedp.Run(tabCtx, network.Enable(), network.SetCacheDisabled(true)); err != nil {
		return page, errors.Wrap(err, "failed to prepare tab")
	}

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(rawURL))
	if err != nil {
		return page, errors.Wrap(err, "navigation failed")
	}
	if resp != nil {
		page.StatusCode = int(resp.Status)
		if page.StatusCode < 200 || page.StatusCode > 299 {
			return page, errors.Errorf("unexpected status %d %s", page.StatusCode, resp.StatusText)
		}
	}

	tasks := chromedp.Tasks{chromedp.WaitReady("body", chromedp.ByQuery)}
	if f.opts.RemoveOverlays {
		var removed int
		tasks = append(tasks, chromedp.Evaluate(removeOverlaysJS, &removed))
	}
	if f.opts.ProcessIframes {
		var inlined int
		tasks = append(tasks, chromedp.Evaluate(inlineIframesJS, &inlined))
	}

	var html, location string
	tasks = append(tasks,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return page, errors.Wrap(err, "failed to render page")
	}

	if location != "" {
		page.URL = location
	}
	page.HTML = []byte(html)

	metrics.BytesFetched.Add(float64(len(html)))
	metrics.PagesFetched.Inc()

	return page, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	f.cancelBrowser()
	f.cancelAlloc()
	return nil
}
