// Package transport posts nested-form requests to a Conduit-style RPC
// endpoint: one route per method, application/x-www-form-urlencoded body,
// the API token sent as the first form field.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/reoring/nestform"
)

// TokenField is the form field carrying the API token.
const TokenField = "api.token"

// ContentType is the request body media type.
const ContentType = "application/x-www-form-urlencoded"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://phab.example.com/api/".
	BaseURL string
	Token   string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Encode controls how request values are flattened.
	Encode nestform.EncodeOpt
}

// Client sends encoded requests. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	encode     nestform.EncodeOpt
}

// NewClient validates config and returns a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("transport: BaseURL is required")
	}
	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       base,
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
		encode:     config.Encode,
	}, nil
}

// Form builds the request pairs: the token first, then req flattened at
// the top level. req is either a nestform.Value or any Go value ValueOf
// accepts.
func (c *Client) Form(req any) (nestform.Pairs, error) {
	v, ok := req.(nestform.Value)
	if !ok {
		var err error
		if v, err = nestform.ValueOf(req); err != nil {
			return nil, err
		}
	}
	pairs := nestform.Pairs{{Key: TokenField, Value: c.token}}
	if err := nestform.EncodeTo(&pairs, "", v, c.encode); err != nil {
		return nil, err
	}
	return pairs, nil
}

// NewRequest builds the POST for route (for example "maniphest.search").
func (c *Client) NewRequest(ctx context.Context, route string, req any) (*http.Request, error) {
	pairs, err := c.Form(req)
	if err != nil {
		return nil, fmt.Errorf("transport: encode %s: %w", route, err)
	}
	u := c.base.ResolveReference(&url.URL{Path: route})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(pairs.Encode()))
	if err != nil {
		return nil, fmt.Errorf("transport: build %s: %w", route, err)
	}
	httpReq.Header.Set("Content-Type", ContentType)
	c.logger.Debug("conduit request", "route", route, "url", u.String(), "fields", len(pairs)-1)
	return httpReq, nil
}

// Call sends req to route. Any status below 400 is returned to the caller,
// who owns the response body.
func (c *Client) Call(ctx context.Context, route string, req any) (*http.Response, error) {
	httpReq, err := c.NewRequest(ctx, route, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transport: %s: %w", route, err)
	}
	c.logger.Debug("conduit response", "route", route, "status", resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, &StatusError{Route: route, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// StatusError reports an HTTP error status.
type StatusError struct {
	Route      string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: %s: HTTP %d %s", e.Route, e.StatusCode, http.StatusText(e.StatusCode))
}
