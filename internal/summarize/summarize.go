package summarize

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"crawl-summarizer/internal/log"
)

const (
	promptPrefix = "Summarize the following content in 2-3 sentences, capturing the main points:\n\n"
	promptSuffix = "\n\nProvide a concise summary suitable for a report."
)

// Prompt builds the single user message sent for a page.
func Prompt(content string) string {
	return promptPrefix + content + promptSuffix
}

// Summary is the outcome of one summarization: either Text or Err is set.
type Summary struct {
	URL  string
	Text string
	Err  error
}

func (s Summary) OK() bool { return s.Err == nil }

// Body is the text that goes under the header: the summary itself or a
// failure placeholder.
func (s Summary) Body() string {
	if s.Err != nil {
		return "Failed to generate summary: " + s.Err.Error()
	}
	return s.Text
}

// Block renders the Summary as it appears in the summary document.
func (s Summary) Block() string {
	return fmt.Sprintf("### Summary for %s\n%s\n\n", s.URL, s.Body())
}

// Client asks a chat-completion service for page summaries. Each page is
// summarized at most once: the underlying client never retries.
type Client struct {
	log zerolog.Logger

	client    *openai.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

type Option func(*clientOptions)

type clientOptions struct {
	maxTokens  int64
	timeout    time.Duration
	httpClient *http.Client
}

// WithMaxTokens caps the length of the generated summary.
func WithMaxTokens(n int64) Option {
	return func(o *clientOptions) { o.maxTokens = n }
}

// WithTimeout bounds each completion request. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// NewClient talks to any OpenAI-compatible endpoint at baseURL.
func NewClient(apiKey, baseURL, model string, opts ...Option) *Client {
	o := clientOptions{maxTokens: 150}
	for _, opt := range opts {
		opt(&o)
	}

	log := log.NewLogger("summarize")

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	log.Debug().Str("base_url", baseURL).Str("model", model).Msg("Initializing completion client")

	return &Client{
		log:       log,
		client:    openai.NewClient(reqOpts...),
		model:     model,
		maxTokens: o.maxTokens,
		timeout:   o.timeout,
	}
}

// Summarize never fails: errors end up in the returned Summary.
func (c *Client) Summarize(ctx context.Context, content, url string) Summary {
	start := time.Now()

	text, err := c.complete(ctx, Prompt(content))
	if err != nil {
		c.log.Warn().Err(err).Str("url", url).Dur("duration", time.Since(start)).Msg("Summary failed")
		return Summary{URL: url, Err: err}
	}

	c.log.Debug().Str("url", url).Dur("duration", time.Since(start)).Msg("Summary generated")
	return Summary{URL: url, Text: text}
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model:     openai.F(c.model),
		MaxTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
