// Package github provides a client for the GitHub REST API.
//
// # Overview
//
// The client covers the four endpoints a profile scrape needs:
//
//   - User info: /users/{login}
//   - Repository listing: /users/{login}/repos (paginated)
//   - Repository contents: /repos/{owner}/{repo}/contents/{path} (README probing)
//   - Repository languages: /repos/{owner}/{repo}/languages
//
// # Request Handling
//
// All requests go through a single primitive that applies common headers,
// a bounded timeout, and rate-limit handling. When GitHub answers 403 with a
// rate-limit message, the client reads the X-RateLimit-Reset header, sleeps
// until the reset instant (with a 60 second floor), and re-issues the request.
// The wait-and-retry loop is bounded so pathological repeated limiting cannot
// spin forever.
//
// Transient failures (transport errors, 5xx) are wrapped as retryable and
// handled by the shared exponential backoff in [cache.RetryWithBackoff].
//
// # Caching
//
// Per-resource fetches (user info, READMEs, language maps) are cached through
// a [cache.Cache] with a configurable TTL. Cache hits dispatch no HTTP call
// and do not count against [Client.RequestCount].
//
// # Usage
//
//	client := github.NewClient(github.Config{Token: os.Getenv("GITHUB_TOKEN")})
//	user, err := client.FetchUser(ctx, "octocat")
//	repos, err := client.FetchUserRepos(ctx, "octocat")
package github
