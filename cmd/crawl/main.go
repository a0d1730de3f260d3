package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"crawl-summarizer/internal/config"
	"crawl-summarizer/internal/crawler"
	"crawl-summarizer/internal/log"
	"crawl-summarizer/internal/metrics"
	"crawl-summarizer/internal/pipeline"
	"crawl-summarizer/internal/storage"
	"crawl-summarizer/internal/summarize"
)

func main() {
	flags := newFlags(os.Args[0], flag.ExitOnError)
	flags.parse(os.Args[1:])

	logger := log.NewLogger("main")

	getenv, err := config.Environ(flags.dotenv)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load environment")
	}

	cfg, err := config.Load(flags.configPath, getenv)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// flags given explicitly win over file and environment
	flags.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error().Err(err).Msg("Crawl failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := log.NewLogger("main")

	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	var archive storage.Archive = storage.NopArchive{}
	if cfg.MongoURI != "" {
		m, err := storage.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Str("collection", cfg.MongoCollection).Msg("Archiving pages to MongoDB")
		archive = m
	}
	defer archive.Close(context.Background())

	if cfg.APIKey == "" {
		logger.Warn().Msg("GROQ_API_KEY is not set, summaries will fail")
	}

	var fetcher crawler.Fetcher
	switch cfg.Render {
	case config.RenderBrowser:
		b, err := crawler.NewBrowserFetcher(crawler.BrowserOptions{
			UserAgent:      cfg.UserAgent,
			PageTimeout:    cfg.PageTimeout,
			Headless:       true,
			RemoveOverlays: cfg.RemoveOverlays,
			ProcessIframes: cfg.ProcessIframes,
		}, log.NewLogger("browser"))
		if err != nil {
			return errors.Wrap(err, "failed to start browser fetcher")
		}
		defer b.Close()
		fetcher = b
	default:
		fetcher = crawler.NewHTTPFetcher(cfg.UserAgent, cfg.PageTimeout)
	}

	engine := crawler.New(crawler.OptionsFromConfig(cfg), fetcher, log.NewLogger("crawler"))

	summarizer := summarize.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model,
		summarize.WithMaxTokens(cfg.SummaryMaxTokens),
		summarize.WithTimeout(cfg.SummaryTimeout),
	)

	writer := storage.NewWriter(cfg.OutputDir, cfg.SummaryFile)
	defer writer.Close()
	logger.Info().Str("dir", writer.Dir()).Str("summary", writer.SummaryPath()).Msg("Writing output")

	p := pipeline.New(engine, summarizer, writer, pipeline.WithArchive(archive))

	_, err := p.Run(ctx, cfg.StartURL)
	return err
}
