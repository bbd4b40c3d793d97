// Package remote is the HTTP client for a remote lookup service exposing
// POST /api/database-search. It satisfies core.RemoteSource.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/logging"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// SearchPath is the endpoint queried on the remote base URL.
const SearchPath = "/api/database-search"

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 32 << 20

// Client queries a remote lookup service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit spaces outgoing requests to at most perSecond, with the
// given burst. perSecond <= 0 leaves requests unthrottled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search posts the query and returns the records in the response's data
// field. An absent or null data field yields no records, and so does an
// answer with success=false: only transport, status and decode failures
// are errors.
func (c *Client) Search(ctx context.Context, query string) ([]core.Record, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("remote search: %w", err)
		}
	}

	body, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SearchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote search: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote search: unexpected status %d", resp.StatusCode)
	}

	return decodeEnvelope(ctx, raw)
}

// decodeEnvelope unpacks {"success": bool, "data": ...}.
func decodeEnvelope(ctx context.Context, raw []byte) ([]core.Record, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("decode response: %w", core.ErrInvalidJSON)
	}

	env := gjson.ParseBytes(raw)
	if !env.Get("success").Bool() {
		logging.FromContext(ctx).Warn("remote search unsuccessful", "error", env.Get("error").String())
		return []core.Record{}, nil
	}

	data := env.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return []core.Record{}, nil
	}

	records, err := core.ParseJSON(data.Raw)
	if err != nil {
		return nil, fmt.Errorf("decode response data: %w", err)
	}
	return records, nil
}
