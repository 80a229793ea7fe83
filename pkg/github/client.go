package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitscrape/pkg/cache"
	gserr "github.com/matzehuels/gitscrape/pkg/errors"
	"github.com/matzehuels/gitscrape/pkg/observability"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "gitscrape/1.0"
	defaultPageSize  = 100
	defaultSort      = "updated"
	defaultDirection = "desc"
	defaultRepoDelay = 100 * time.Millisecond

	httpTimeout = 10 * time.Second

	// minRateLimitWait is the floor applied to rate-limit waits so that clock
	// skew between us and GitHub cannot cause a busy retry loop.
	minRateLimitWait = 60 * time.Second

	// maxRateLimitTrips bounds the wait-and-retry loop for a single request.
	maxRateLimitTrips = 5
)

// Config holds client settings. Zero values fall back to sensible defaults;
// only Token has no default (empty means unauthenticated, lower rate limits).
type Config struct {
	Token     string         // bearer token, optional
	BaseURL   string         // API base URL, default https://api.github.com
	UserAgent string         // User-Agent header value
	PageSize  int            // repository listing page size, default 100
	Sort      string         // listing sort field, default "updated"
	Direction string         // listing sort direction, default "desc"
	RepoDelay time.Duration  // pause between repository enrichments, default 100ms
	Cache     cache.Cache    // response cache, default NullCache
	CacheTTL  time.Duration  // TTL for cached responses
	Logger    *log.Logger    // default log.Default()
}

// Client provides access to the GitHub REST API with rate-limit handling,
// response caching, and request counting.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *log.Logger
	baseURL   string
	token     string
	userAgent string
	pageSize  int
	sort      string
	direction string
	repoDelay time.Duration

	requests atomic.Int64

	// sleep and now are injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewClient creates a GitHub API client from cfg, applying defaults for any
// zero-valued fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Sort == "" {
		cfg.Sort = defaultSort
	}
	if cfg.Direction == "" {
		cfg.Direction = defaultDirection
	}
	switch {
	case cfg.RepoDelay == 0:
		cfg.RepoDelay = defaultRepoDelay
	case cfg.RepoDelay < 0:
		// Negative disables the politeness delay (tests, trusted backends).
		cfg.RepoDelay = 0
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	c := &Client{
		http:      &http.Client{Timeout: httpTimeout},
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		logger:    cfg.Logger,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		pageSize:  cfg.PageSize,
		sort:      cfg.Sort,
		direction: cfg.Direction,
		repoDelay: cfg.RepoDelay,
		sleep:     sleepContext,
		now:       time.Now,
	}
	return c
}

// RequestCount returns the number of HTTP requests dispatched so far,
// including rate-limit retries. Cache hits are not counted.
func (c *Client) RequestCount() int {
	return int(c.requests.Load())
}

// get performs a GET against path (relative to the base URL) and decodes the
// JSON response into v. Rate-limited responses are waited out and retried in
// a bounded loop; other failures map to the package's error taxonomy.
func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	for trip := 0; ; trip++ {
		status, header, body, err := c.do(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
		}

		if isRateLimited(status, body) {
			wait := c.rateLimitWait(header)
			if trip >= maxRateLimitTrips {
				cause := &gserr.RateLimitedError{RetryAfter: int(wait / time.Second)}
				return gserr.Wrap(gserr.ErrCodeRateLimited, cause, "rate limit retries exhausted for %s", path)
			}
			c.logger.Warn("rate limit exceeded, waiting", "wait", wait, "path", path)
			observability.HTTP().OnRateLimitWait(ctx, hostOf(u), wait)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if err := checkStatus(status); err != nil {
			return err
		}
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("decode response for %s: %w", path, err)
		}
		return nil
	}
}

// do dispatches a single HTTP request and returns the status, headers and
// full body. Every call increments the request counter.
func (c *Client) do(ctx context.Context, rawURL string) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.requests.Add(1)
	observability.HTTP().OnRequest(ctx, http.MethodGet, req.URL.Host, req.URL.Path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, req.URL.Path, err)
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	observability.HTTP().OnResponse(ctx, http.MethodGet, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		c.logger.Debug("rate limit remaining", "remaining", remaining)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// cached retrieves v from the cache under key, or runs fetch (with backoff
// for retryable failures) and stores the result. keyType labels the cache
// hooks events (e.g. "user", "readme", "languages").
func (c *Client) cached(ctx context.Context, keyType, key string, v any, fetch func() error) error {
	if data, hit, _ := c.cache.Get(ctx, key); hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return json.Unmarshal(data, v)
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	if err := cache.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.cacheTTL)
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
	return nil
}

// rateLimitWait computes how long to sleep before retrying a rate-limited
// request: until the advertised reset epoch, but never less than the floor.
func (c *Client) rateLimitWait(header http.Header) time.Duration {
	reset, _ := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	wait := time.Duration(reset-c.now().Unix()) * time.Second
	if wait < minRateLimitWait {
		wait = minRateLimitWait
	}
	return wait
}

func isRateLimited(status int, body []byte) bool {
	return status == http.StatusForbidden &&
		strings.Contains(strings.ToLower(string(body)), "rate limit")
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return cache.ErrNotFound
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", cache.ErrNetwork, code)
	}
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.Host
	}
	return rawURL
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
