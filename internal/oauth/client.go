package oauth

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultHTTPTimeout is the default timeout for provider requests.
const DefaultHTTPTimeout = 30 * time.Second

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an Exchanger, Resolver or Authenticator.
type Option func(*options)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
