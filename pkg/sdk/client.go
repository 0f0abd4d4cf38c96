package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	apiPrefix      = "/api/v1"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client talks to a remote promodex service over its JSON API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client for the service at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("sdk: base url is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c, nil
}

// Search returns the top k promos for a free-text query plus the total match
// count. topK <= 0 falls back to the service default.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]SearchResult, int, error) {
	var out searchResponse
	if err := c.post(ctx, "/search", searchRequest{Query: query, TopK: topK}, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

// Ask answers a free-text question about current promos, grounded on
// retrieved context.
func (c *Client) Ask(ctx context.Context, req AskRequest) (Answer, error) {
	var out Answer
	if err := c.post(ctx, "/answer", req, &out); err != nil {
		return Answer{}, err
	}
	return out, nil
}

// Sync posts the full promo feed for reconciliation. Stored promos missing
// from the posted set are deleted, so an empty (non-nil) slice empties the
// index; a nil slice is rejected by the service.
func (c *Client) Sync(ctx context.Context, records []Record) (SyncReport, error) {
	var out SyncReport
	if err := c.post(ctx, "/sync", syncRequest{Records: records}, &out); err != nil {
		return SyncReport{}, err
	}
	return out, nil
}

// Stats reports stored chunk and promo counts.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := c.get(ctx, apiPrefix+"/stats", &out); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// Usage reports embedding token consumption and budget state. period selects
// the aggregation window ("day", "month" or "total"); empty falls back to the
// service default of month.
func (c *Client) Usage(ctx context.Context, period string) (Usage, error) {
	path := apiPrefix + "/usage"
	if period != "" {
		path += "?period=" + url.QueryEscape(period)
	}

	var out Usage
	if err := c.get(ctx, path, &out); err != nil {
		return Usage{}, err
	}
	return out, nil
}

// Health reports component availability. A degraded or down service still
// returns a report; the error covers transport failures only.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return Health{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("sdk: GET /health: %w", err)
	}
	defer resp.Body.Close()

	// 503 carries the same body as 200: the report itself says what is down.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return Health{}, decodeError(resp)
	}

	var out Health
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Health{}, fmt.Errorf("sdk: decode health response: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("sdk: encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, apiPrefix+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("sdk: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sdk: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sdk: decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError. Responses that do
// not carry the service's error shape fall back to the HTTP status text.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var detail ErrorDetail
	if err := json.Unmarshal(data, &detail); err != nil || detail.Code == "" {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    "internal_error",
			Message: http.StatusText(resp.StatusCode),
		}
	}
	return &APIError{Status: resp.StatusCode, Code: detail.Code, Message: detail.Message}
}
