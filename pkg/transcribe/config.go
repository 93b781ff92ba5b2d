package transcribe

import (
	"log/slog"
	"net/http"
)

// config holds shared configuration for transcriber implementations.
type config struct {
	model      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger
}

// Option configures a transcriber.
type Option func(*config)

// WithModel sets the speech model name.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

// WithMaxRetries sets how often a failed request is retried. Only the
// OpenAI client retries.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.maxRetries = n }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(model string, opts []Option) config {
	cfg := config{
		model:      model,
		httpClient: http.DefaultClient,
		maxRetries: 2,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
