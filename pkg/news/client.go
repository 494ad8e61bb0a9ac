package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the NewsAPI base URL
	DefaultBaseURL = "https://newsapi.org/v2"

	// NewsAPI free tier allows roughly one request per second sustained
	defaultRateLimit = 1.0
	defaultBurst     = 2

	defaultPageSize = 25
	defaultCacheTTL = 5 * time.Minute
)

// RequestObserver is called once per upstream request with the HTTP
// status code (or "error" when the request never completed) and the
// request latency. Cache hits are not observed.
type RequestObserver func(status string, latency time.Duration)

// Client is a NewsAPI client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *responseCache
	observer   RequestObserver
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCacheTTL sets how long search responses are reused.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = newResponseCache(ttl)
	}
}

// WithRequestObserver installs a per-request telemetry callback.
func WithRequestObserver(fn RequestObserver) ClientOption {
	return func(c *Client) {
		c.observer = fn
	}
}

// NewClient creates a new NewsAPI client. The API key is required by the
// upstream service; an empty key produces authorization errors on every
// call, which callers treat as "no corroborating news".
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		cache:   newResponseCache(defaultCacheTTL),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Search fetches recent English-language articles matching the query,
// newest first. Results are cached per query for the cache TTL.
func (c *Client) Search(ctx context.Context, query string, since time.Time) ([]Article, error) {
	key := query + "|" + since.Format(time.RFC3339)
	if cached, ok := c.cache.get(key); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(defaultPageSize))
	if !since.IsZero() {
		params.Set("from", since.Format(time.RFC3339))
	}

	var resp searchResponse
	if err := c.get(ctx, "/everything", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", resp.Code, resp.Message)
	}

	c.cache.set(key, resp.Articles)
	return resp.Articles, nil
}

// get performs a GET request with rate limiting.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("error", time.Since(start))
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	c.observe(strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) observe(status string, latency time.Duration) {
	if c.observer != nil {
		c.observer(status, latency)
	}
}
