// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about scrape runs, cache operations, and API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetScrapeHooks(&myScrapeHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scrape().OnRepoStart(ctx, owner, repo)
//	// ... fetch README and languages ...
//	observability.Scrape().OnRepoComplete(ctx, owner, repo, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scrape Hooks
// =============================================================================

// ScrapeHooks receives events from scrape runs.
type ScrapeHooks interface {
	// OnScrapeStart fires when a user scrape begins.
	OnScrapeStart(ctx context.Context, username string)

	// OnRepoStart fires before a repository's README and languages are fetched.
	OnRepoStart(ctx context.Context, owner, repo string)

	// OnRepoComplete fires after a repository is fully processed.
	OnRepoComplete(ctx context.Context, owner, repo string, duration time.Duration, err error)

	// OnScrapeComplete fires when the run finishes, with totals for the run.
	OnScrapeComplete(ctx context.Context, username string, repoCount, apiRequests int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)

	// OnRateLimitWait records a rate-limit backoff before a retry.
	OnRateLimitWait(ctx context.Context, host string, wait time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopScrapeHooks is a no-op implementation of ScrapeHooks.
type NoopScrapeHooks struct{}

func (NoopScrapeHooks) OnScrapeStart(context.Context, string)                              {}
func (NoopScrapeHooks) OnRepoStart(context.Context, string, string)                        {}
func (NoopScrapeHooks) OnRepoComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopScrapeHooks) OnScrapeComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
func (NoopHTTPHooks) OnRateLimitWait(context.Context, string, time.Duration)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	scrapeHooks ScrapeHooks = NoopScrapeHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetScrapeHooks registers custom scrape hooks.
// This should be called once at application startup before any scrape operations.
func SetScrapeHooks(h ScrapeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scrapeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Scrape returns the registered scrape hooks.
func Scrape() ScrapeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scrapeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scrapeHooks = NoopScrapeHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
