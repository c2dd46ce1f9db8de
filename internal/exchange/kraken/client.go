package kraken

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dReserve/FAT/internal/exchange"
	"github.com/dReserve/FAT/internal/model"
)

// Code is the exchange code used in market codes and configuration.
const Code = "KRAKEN"

const (
	// DefaultBaseURL is the public REST endpoint.
	DefaultBaseURL = "https://api.kraken.com"

	// DefaultPageSize is the number of trades in a full Trades response.
	DefaultPageSize = 1000

	// DefaultRateInterval is the spacing between public calls.
	DefaultRateInterval = 6 * time.Second
)

// Client provides access to the Kraken public REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	pageSize   int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:   slog.Default(),
		pageSize: DefaultPageSize,
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

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPageSize overrides the nominal page size.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		c.pageSize = n
	}
}

// Code returns the exchange code.
func (c *Client) Code() string {
	return Code
}

// PageSize returns the nominal number of trades in a full page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// CursorTime converts a nanosecond cursor into a UTC time. Cursors that are
// not integers map to the Unix epoch.
func (c *Client) CursorTime(cur model.Cursor) time.Time {
	ns, err := strconv.ParseInt(string(cur), 10, 64)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return time.Unix(0, ns).UTC()
}

var _ exchange.Adapter = (*Client)(nil)

// New is the exchange.Factory for Kraken.
func New(s exchange.Settings) (exchange.Adapter, error) {
	var opts []ClientOption
	if s.Timeout > 0 {
		opts = append(opts, WithTimeout(s.Timeout))
	}
	if s.PageSize > 0 {
		opts = append(opts, WithPageSize(s.PageSize))
	}
	if s.Logger != nil {
		opts = append(opts, WithLogger(s.Logger.With("exchange", Code)))
	}
	return NewClient(s.RestURL, opts...), nil
}
