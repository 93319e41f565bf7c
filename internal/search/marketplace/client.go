package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/filters"
)

const DefaultTimeout = 15 * time.Second

// APIError is returned for any non-2xx answer from the marketplace.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("marketplace: http %d", e.StatusCode)
	}
	return fmt.Sprintf("marketplace: http %d: %s", e.StatusCode, e.Body)
}

type ctxKey int

const (
	authKey ctxKey = iota
	requestIDKey
)

// WithAuthorization forwards the caller's Authorization header upstream.
func WithAuthorization(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}
	return context.WithValue(ctx, authKey, header)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Client is the read-only client of the Jinnar marketplace REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	observe    func(upstream string, d time.Duration, err error)
}

func NewClient(httpClient *http.Client, baseURL string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
}

// Observe registers a hook called after every upstream request.
func (c *Client) Observe(fn func(upstream string, d time.Duration, err error)) {
	c.observe = fn
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.get(ctx, "categories", "/categories", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Category{}
	}
	return out, nil
}

func (c *Client) Subcategories(ctx context.Context, categoryID string) ([]models.Subcategory, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, models.ErrCategoryRequired
	}

	params := url.Values{}
	params.Set("categoryId", categoryID)

	var out []models.Subcategory
	if err := c.get(ctx, "subcategories", "/categories/subcategories", params, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].CategoryID == "" {
			out[i].CategoryID = categoryID
		}
	}
	if out == nil {
		out = []models.Subcategory{}
	}
	return out, nil
}

// SearchGigs runs one search. A missing gigs array is an empty result.
func (c *Client) SearchGigs(ctx context.Context, q filters.Query) ([]models.Gig, error) {
	var payload struct {
		Gigs []models.Gig `json:"gigs"`
	}
	if err := c.get(ctx, "gigs_search", "/gigs/search", q.Values(), &payload); err != nil {
		return nil, err
	}
	if payload.Gigs == nil {
		payload.Gigs = []models.Gig{}
	}
	return payload.Gigs, nil
}

func (c *Client) get(ctx context.Context, upstream, path string, params url.Values, dst any) (err error) {
	started := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(upstream, time.Since(started), err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("marketplace %s: build request: %w", upstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if auth, ok := ctx.Value(authKey).(string); ok {
		req.Header.Set("Authorization", auth)
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("marketplace %s: do request: %w", upstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("marketplace %s: decode: %w", upstream, err)
	}
	return nil
}
