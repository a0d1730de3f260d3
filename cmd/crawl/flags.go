package main

import (
	"flag"

	"crawl-summarizer/internal/config"
)

// cliFlags binds command-line flags to a Config seeded with the defaults.
// Only flags set explicitly are copied over the loaded configuration.
type cliFlags struct {
	fs *flag.FlagSet

	configPath string
	dotenv     string
	values     config.Config
}

func newFlags(name string, handling flag.ErrorHandling) *cliFlags {
	f := &cliFlags{
		fs:     flag.NewFlagSet(name, handling),
		values: config.Default(),
	}
	v := &f.values

	f.fs.StringVar(&f.configPath, "config", "", "optional YAML config file")
	f.fs.StringVar(&f.dotenv, "env", ".env", "dotenv file with GROQ_API_KEY etc.")
	f.fs.StringVar(&v.StartURL, "seed", v.StartURL, "initial URL to start crawling from")
	f.fs.StringVar(&v.OutputDir, "out", v.OutputDir, "directory for Markdown files and summaries")
	f.fs.IntVar(&v.MaxPages, "maxPages", v.MaxPages, "stop after N successfully crawled pages")
	f.fs.IntVar(&v.MaxDepth, "maxDepth", v.MaxDepth, "maximum link depth from the start page")
	f.fs.IntVar(&v.BatchSize, "batch", v.BatchSize, "pages fetched concurrently")
	f.fs.DurationVar(&v.Delay, "delay", v.Delay, "minimum delay between requests to one host")
	f.fs.StringVar(&v.Render, "render", v.Render, "page fetcher: browser or http")
	f.fs.StringVar(&v.ContentFilter, "filter", v.ContentFilter, "content filter: pruning or readability")
	f.fs.StringVar(&v.UserAgent, "userAgent", v.UserAgent, "HTTP User-Agent string")
	f.fs.BoolVar(&v.RespectRobots, "robots", v.RespectRobots, "honour robots.txt")
	f.fs.StringVar(&v.Model, "model", v.Model, "chat model used for summaries")
	f.fs.StringVar(&v.MetricsAddr, "metrics", v.MetricsAddr, "serve Prometheus metrics on this address, e.g. :2112")
	f.fs.StringVar(&v.LogLevel, "logLevel", v.LogLevel, "log level")

	return f
}

func (f *cliFlags) parse(args []string) error {
	return f.fs.Parse(args)
}

// apply copies the explicitly set flags into cfg.
func (f *cliFlags) apply(cfg *config.Config) {
	v := f.values
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "seed":
			cfg.StartURL = v.StartURL
		case "out":
			cfg.OutputDir = v.OutputDir
		case "maxPages":
			cfg.MaxPages = v.MaxPages
		case "maxDepth":
			cfg.MaxDepth = v.MaxDepth
		case "batch":
			cfg.BatchSize = v.BatchSize
		case "delay":
			cfg.Delay = v.Delay
		case "render":
			cfg.Render = v.Render
		case "filter":
			cfg.ContentFilter = v.ContentFilter
		case "userAgent":
			cfg.UserAgent = v.UserAgent
		case "robots":
			cfg.RespectRobots = v.RespectRobots
		case "model":
			cfg.Model = v.Model
		case "metrics":
			cfg.MetricsAddr = v.MetricsAddr
		case "logLevel":
			cfg.LogLevel = v.LogLevel
		}
	})
}
