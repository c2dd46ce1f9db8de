package kraken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dReserve/FAT/internal/exchange"
	"github.com/dReserve/FAT/internal/version"
)

// APIError represents an HTTP-level error from the Kraken API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kraken api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// ResponseError carries the error strings of a Kraken response envelope.
type ResponseError struct {
	Messages []string
}

func (e *ResponseError) Error() string {
	return "kraken: " + strings.Join(e.Messages, "; ")
}

var (
	errTransport = errors.New("transport failure")
	errMalformed = errors.New("malformed response")
)

// envelope is the wrapper of every Kraken public response.
type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// doRequest performs an HTTP GET and returns the body as received.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w: %w", errTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %w", errTransport, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// get performs a request and returns the raw body together with the
// decoded result member. All failures are returned as *exchange.FetchError.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, json.RawMessage, error) {
	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return nil, nil, classify(op, err)
	}

	result, err := decodeEnvelope(body)
	if err != nil {
		return nil, nil, classify(op, err)
	}
	return body, result, nil
}

// decodeEnvelope extracts the result member, failing on envelope errors.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w: %w", errMalformed, err)
	}
	if len(env.Error) > 0 {
		return nil, &ResponseError{Messages: env.Error}
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil, fmt.Errorf("%w: no result", errMalformed)
	}
	return env.Result, nil
}

// classify maps a request failure onto the exchange error kinds.
func classify(op string, err error) *exchange.FetchError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return exchange.NewError(exchange.RateLimited, Code, op, err)
		case apiErr.IsRetryable():
			return exchange.NewError(exchange.Transient, Code, op, err)
		default:
			return exchange.NewError(exchange.Fatal, Code, op, err)
		}
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return exchange.NewError(kindOfMessages(respErr.Messages), Code, op, err)
	}

	if errors.Is(err, errTransport) {
		return exchange.NewError(exchange.Transient, Code, op, err)
	}
	return exchange.NewError(exchange.Fatal, Code, op, err)
}

// kindOfMessages classifies Kraken envelope errors such as "EAPI:Rate limit exceeded".
func kindOfMessages(msgs []string) exchange.Kind {
	kind := exchange.Fatal
	for _, m := range msgs {
		switch {
		case strings.HasPrefix(m, "EAPI:Rate limit"),
			strings.HasPrefix(m, "EGeneral:Too many requests"):
			return exchange.RateLimited
		case strings.HasPrefix(m, "EService:"),
			strings.HasPrefix(m, "EGeneral:Temporary lockout"):
			kind = exchange.Transient
		}
	}
	return kind
}
