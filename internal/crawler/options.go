package crawler

import (
	"time"

	"crawl-summarizer/internal/config"
	"crawl-summarizer/internal/parser"
)

// Options controls one crawl.
type Options struct {
	MaxDepth  int // depth 0 is the start page
	MaxPages  int // successfully crawled pages; failures do not count
	BatchSize int // pages fetched concurrently

	Delay         time.Duration // minimum spacing between requests to one host
	UserAgent     string
	RespectRobots bool
	RobotsTimeout time.Duration

	ExcludeExternalLinks bool
	RemoveOverlays       bool

	// Filter produces the fit Markdown. Nil leaves it empty.
	Filter parser.Filter
}

// OptionsFromConfig maps the crawl section of cfg onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		MaxDepth:             cfg.MaxDepth,
		MaxPages:             cfg.MaxPages,
		BatchSize:            cfg.BatchSize,
		Delay:                cfg.Delay,
		UserAgent:            cfg.UserAgent,
		RespectRobots:        cfg.RespectRobots,
		RobotsTimeout:        5 * time.Second,
		ExcludeExternalLinks: cfg.ExcludeExternalLinks,
		RemoveOverlays:       cfg.RemoveOverlays,
		Filter:               FilterFromConfig(cfg),
	}
}

// FilterFromConfig returns the content filter named by cfg.ContentFilter.
func FilterFromConfig(cfg config.Config) parser.Filter {
	switch cfg.ContentFilter {
	case config.FilterReadability:
		return parser.ReadabilityFilter{}
	case config.FilterPruning:
		return parser.PruningFilter{
			Threshold: cfg.PruneThreshold,
			MinWords:  cfg.WordCountThreshold,
		}
	default:
		return nil
	}
}

func (o *Options) setDefaults() {
	if o.BatchSize < 1 {
		o.BatchSize = 1
	}
	if o.MaxPages < 1 {
		o.MaxPages = 1
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.UserAgent == "" {
		o.UserAgent = config.DefaultUserAgent
	}
	if o.RobotsTimeout <= 0 {
		o.RobotsTimeout = 5 * time.Second
	}
}
