// Package serpapi is a thin client for the SerpApi search-results service.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/LeadTechMaster/API/internal/resilience"
)

const defaultBaseURL = "https://serpapi.com"

// Client performs SerpApi searches. Search returns the raw JSON object the
// provider sent for the given engine.
type Client interface {
	Search(ctx context.Context, engine string, params url.Values) (json.RawMessage, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit caps outbound requests.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithRetry retries transient failures with backoff.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithBreaker routes every request through the circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) {
		c.breaker = cb
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a SerpApi client. Without WithRetry each search is
// attempted once.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: resilience.RetryConfig{MaxAttempts: 1},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, engine string, params url.Values) (json.RawMessage, error) {
	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(engine)
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (json.RawMessage, error) {
		return resilience.Execute(ctx, c.breaker, func(ctx context.Context) (json.RawMessage, error) {
			return c.do(ctx, engine, params)
		})
	})
}

func (c *httpClient) do(ctx context.Context, engine string, params url.Values) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "serpapi: rate limit wait")
		}
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("engine", engine)
	q.Set("api_key", c.apiKey)
	if q.Get("output") == "" {
		q.Set("output", "json")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(stripURL(err), "serpapi: %s: create request", engine)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(stripURL(err), "serpapi: %s: send request", engine)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := eris.Errorf("serpapi: %s: unexpected status %d: %s", engine, resp.StatusCode, truncate(string(body), 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrapf(err, "serpapi: %s: malformed payload", engine)
	}
	if raw, ok := envelope["error"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil && msg != "" {
			return nil, eris.Errorf("serpapi: %s: %s", engine, msg)
		}
	}

	return json.RawMessage(body), nil
}

// stripURL drops the request URL, which carries the api key, from a
// transport error.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
