// Package kalshi is a read-only client for the Kalshi trade API. It fetches
// market listings and converts them to the quote records the monitor consumes.
package kalshi

import (
	"net/http"
	"time"
)

// DefaultBaseURL is the public trade API endpoint.
const DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

// Client provides access to the Kalshi REST API.
type Client struct {
	baseURL     string
	credentials *Credentials
	httpClient  *http.Client

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithCredentials signs every request. Public market data does not require it.
func WithCredentials(creds *Credentials) ClientOption {
	return func(c *Client) {
		c.credentials = creds
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
