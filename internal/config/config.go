package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStartURL    = "https://docs.crawl4ai.com/"
	DefaultOutputDir   = "crawled_markdown"
	DefaultSummaryFile = "summaries.md"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultBaseURL     = "https://api.groq.com/openai/v1/"
	DefaultUserAgent   = "GoCrawler/0.3"
)

const (
	RenderHTTP    = "http"
	RenderBrowser = "browser"

	FilterPruning     = "pruning"
	FilterReadability = "readability"
)

// Config is fixed once Load returns. Components receive it by value.
type Config struct {
	StartURL    string        `yaml:"start_url"`
	OutputDir   string        `yaml:"output_dir"`
	SummaryFile string        `yaml:"summary_file"`
	MaxDepth    int           `yaml:"max_depth"`
	MaxPages    int           `yaml:"max_pages"`
	BatchSize   int           `yaml:"batch_size"`
	Delay       time.Duration `yaml:"request_delay"`

	// Completion service. APIKey only comes from the environment.
	APIKey           string        `yaml:"-"`
	Model            string        `yaml:"model"`
	BaseURL          string        `yaml:"base_url"`
	SummaryMaxTokens int64         `yaml:"summary_max_tokens"`
	SummaryTimeout   time.Duration `yaml:"summary_timeout"`

	// Crawl behaviour handed to the engine.
	UserAgent            string        `yaml:"user_agent"`
	Render               string        `yaml:"render"`
	PageTimeout          time.Duration `yaml:"page_timeout"`
	RespectRobots        bool          `yaml:"respect_robots"`
	ContentFilter        string        `yaml:"content_filter"`
	WordCountThreshold   int           `yaml:"word_count_threshold"`
	PruneThreshold       float64       `yaml:"prune_threshold"`
	ExcludeExternalLinks bool          `yaml:"exclude_external_links"`
	RemoveOverlays       bool          `yaml:"remove_overlays"`
	ProcessIframes       bool          `yaml:"process_iframes"`

	MetricsAddr     string `yaml:"metrics_addr"`
	MongoURI        string `yaml:"-"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
	LogLevel        string `yaml:"log_level"`
}

// Default returns the configuration the tool runs with when nothing is set.
func Default() Config {
	return Config{
		StartURL:    DefaultStartURL,
		OutputDir:   DefaultOutputDir,
		SummaryFile: DefaultSummaryFile,
		MaxDepth:    3,
		MaxPages:    50,
		BatchSize:   5,
		Delay:       time.Second,

		Model:            DefaultModel,
		BaseURL:          DefaultBaseURL,
		SummaryMaxTokens: 150,
		SummaryTimeout:   60 * time.Second,

		UserAgent:            DefaultUserAgent,
		Render:               RenderBrowser,
		PageTimeout:          30 * time.Second,
		RespectRobots:        true,
		ContentFilter:        FilterPruning,
		WordCountThreshold:   10,
		PruneThreshold:       0.5,
		ExcludeExternalLinks: true,
		RemoveOverlays:       true,
		ProcessIframes:       true,

		MongoDatabase:   "webCrawlerArchive",
		MongoCollection: "pages",
		LogLevel:        "info",
	}
}

// Load builds a Config from defaults, the optional YAML file at path and
// the environment, in that order of precedence.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}

	cfg.APIKey = getenv("GROQ_API_KEY")
	if v := getenv("GROQ_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := getenv("GROQ_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	cfg.MongoURI = getenv("MONGODB_URI")

	return cfg, nil
}

// Environ returns a lookup over the process environment backed by the
// given .env file. Process variables win over the file, and a missing file
// is not an error.
func Environ(dotenv string) (func(string) string, error) {
	values := map[string]string{}

	if dotenv != "" {
		m, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			values = m
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, errors.Wrapf(err, "failed to read %s", dotenv)
		}
	}

	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return values[key]
	}, nil
}

// SummaryPath is the location of the running summary document.
func (c Config) SummaryPath() string {
	return filepath.Join(c.OutputDir, c.SummaryFile)
}

// Validate rejects structurally broken configurations. A missing API key
// is not an error here: it surfaces on the first completion call.
func (c Config) Validate() error {
	if c.StartURL == "" {
		return errors.New("start URL is required")
	}

	u, err := url.Parse(c.StartURL)
	if err != nil {
		return errors.Wrap(err, "invalid start URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("start URL must be http(s), got %q", c.StartURL)
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.SummaryFile == "" || strings.ContainsAny(c.SummaryFile, `/\`) {
		return errors.Errorf("invalid summary file name %q", c.SummaryFile)
	}

	if c.MaxDepth < 0 {
		return errors.New("max depth must not be negative")
	}
	if c.MaxPages < 1 {
		return errors.New("max pages must be at least 1")
	}
	if c.BatchSize < 1 {
		return errors.New("batch size must be at least 1")
	}
	if c.Delay < 0 || c.SummaryTimeout < 0 || c.PageTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.SummaryMaxTokens < 1 {
		return errors.New("summary max tokens must be at least 1")
	}

	switch c.Render {
	case RenderHTTP, RenderBrowser:
	default:
		return errors.Errorf("unknown render mode %q", c.Render)
	}

	switch c.ContentFilter {
	case FilterPruning, FilterReadability:
	default:
		return errors.Errorf("unknown content filter %q", c.ContentFilter)
	}

	if c.PruneThreshold < 0 || c.PruneThreshold > 1 {
		return errors.New("prune threshold must be within [0, 1]")
	}

	return nil
}
