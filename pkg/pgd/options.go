package pgd

import (
	"log"
	"net/http"
	"time"

	"github.com/rm-hull/api-pgd-client/pkg/endpoints"
)

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

// Observer receives client events, e.g. to export metrics.
type Observer interface {
	// ObserveRequest is called after every HTTP call; statusCode is 0 when
	// no response arrived.
	ObserveRequest(method string, statusCode int, elapsed time.Duration)
	// ObserveTokenFetch is called after every token request.
	ObserveTokenFetch(forced bool, err error)
	// ObserveRetry is called when a call is retried after a token refresh.
	ObserveRetry(endpoint string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is used as is.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRegistry replaces the endpoint registry.
func WithRegistry(registry *endpoints.Registry) Option {
	return func(c *Client) {
		c.registry = registry
	}
}

// WithLogger logs requests and token refreshes. Without a logger the client
// is silent.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLoggingEnabled logs through log.Default().
func WithLoggingEnabled() Option {
	return WithLogger(log.Default())
}

// WithObserver registers an Observer.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithLenientDecoding makes fetch operations ignore response fields the
// records do not know about. By default such fields are an error.
func WithLenientDecoding() Option {
	return func(c *Client) {
		c.lenient = true
	}
}
