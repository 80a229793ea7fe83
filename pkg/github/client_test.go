package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitscrape/pkg/cache"
	gserr "github.com/matzehuels/gitscrape/pkg/errors"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient(Config{
		BaseURL:   serverURL,
		RepoDelay: -1,
		Logger:    log.New(io.Discard),
	})
	// No real sleeping in tests; rate-limit tests replace this again to
	// record the requested wait.
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestFetchUser(t *testing.T) {
	name := "The Octocat"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat" {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, User{
			Login:       "octocat",
			Name:        &name,
			PublicRepos: 8,
			Followers:   100,
			Following:   9,
		})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	user, err := c.FetchUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("FetchUser error: %v", err)
	}
	if user.Login != "octocat" {
		t.Errorf("Login = %q, want %q", user.Login, "octocat")
	}
	if user.Name == nil || *user.Name != "The Octocat" {
		t.Errorf("Name = %v, want %q", user.Name, "The Octocat")
	}
	if user.Bio != nil {
		t.Errorf("Bio = %v, want nil", user.Bio)
	}
	if user.PublicRepos != 8 {
		t.Errorf("PublicRepos = %d, want 8", user.PublicRepos)
	}
}

func TestFetchUserLoginFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Record without a login field
		writeJSON(t, w, map[string]any{"public_repos": 1})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	user, err := c.FetchUser(context.Background(), "fallback-user")
	if err != nil {
		t.Fatalf("FetchUser error: %v", err)
	}
	if user.Login != "fallback-user" {
		t.Errorf("Login = %q, want fallback to requested username", user.Login)
	}
}

func TestFetchUserNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.FetchUser(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for missing user")
	}
	if !gserr.Is(err, gserr.ErrCodeProfileMissing) {
		t.Errorf("error code = %v, want %v", gserr.GetCode(err), gserr.ErrCodeProfileMissing)
	}
}

func TestFetchReadmeTieBreak(t *testing.T) {
	encode := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/contents/README.md":
			writeJSON(t, w, contentResponse{Content: encode("upper"), Encoding: "base64"})
		case "/repos/o/r/contents/readme.md":
			writeJSON(t, w, contentResponse{Content: encode("lower"), Encoding: "base64"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	content, found := c.FetchReadme(context.Background(), "o", "r")
	if !found {
		t.Fatal("expected readme to be found")
	}
	if content != "upper" {
		t.Errorf("content = %q, want first candidate %q", content, "upper")
	}
}

func TestFetchReadmeDecodeFailureSkipsCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/contents/README.md":
			writeJSON(t, w, contentResponse{Content: "%%% not base64 %%%", Encoding: "base64"})
		case "/repos/o/r/contents/readme.md":
			writeJSON(t, w, contentResponse{
				Content:  base64.StdEncoding.EncodeToString([]byte("fallback")),
				Encoding: "base64",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	content, found := c.FetchReadme(context.Background(), "o", "r")
	if !found {
		t.Fatal("expected fallback candidate to be found")
	}
	if content != "fallback" {
		t.Errorf("content = %q, want %q", content, "fallback")
	}
}

func TestFetchReadmeAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	content, found := c.FetchReadme(context.Background(), "o", "r")
	if found {
		t.Error("expected no readme")
	}
	if content != "" {
		t.Errorf("content = %q, want empty", content)
	}
}

func TestFetchLanguagesFailureYieldsEmptyMap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	langs := c.FetchLanguages(context.Background(), "o", "r")
	if langs == nil {
		t.Fatal("languages map should never be nil")
	}
	if len(langs) != 0 {
		t.Errorf("languages = %v, want empty", langs)
	}
}

// repoListServer simulates the repository listing plus enrichment endpoints.
// pageSizes holds the number of items each successive page should return.
func repoListServer(t *testing.T, pageSizes []int, listRequests *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/u/repos":
			*listRequests++
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if r.URL.Query().Get("sort") != "updated" || r.URL.Query().Get("direction") != "desc" {
				t.Errorf("missing explicit sort parameters: %s", r.URL.RawQuery)
			}
			var items []Repo
			if page >= 1 && page <= len(pageSizes) {
				for i := 0; i < pageSizes[page-1]; i++ {
					items = append(items, Repo{
						Name:          fmt.Sprintf("repo-%d-%d", page, i),
						DefaultBranch: "main",
					})
				}
			}
			writeJSON(t, w, items)
		default:
			// README probes and language lookups are absent
			http.NotFound(w, r)
		}
	}))
}

func TestFetchUserReposPaginationFullPages(t *testing.T) {
	listRequests := 0
	server := repoListServer(t, []int{100, 100, 3}, &listRequests)
	defer server.Close()

	c := testClient(t, server.URL)
	repos, err := c.FetchUserRepos(context.Background(), "u")
	if err != nil {
		t.Fatalf("FetchUserRepos error: %v", err)
	}
	if len(repos) != 203 {
		t.Errorf("repos = %d, want 203", len(repos))
	}
	if listRequests != 3 {
		t.Errorf("listing requests = %d, want 3", listRequests)
	}
}

func TestFetchUserReposPaginationExactBoundary(t *testing.T) {
	listRequests := 0
	server := repoListServer(t, []int{100}, &listRequests)
	defer server.Close()

	c := testClient(t, server.URL)
	repos, err := c.FetchUserRepos(context.Background(), "u")
	if err != nil {
		t.Fatalf("FetchUserRepos error: %v", err)
	}
	if len(repos) != 100 {
		t.Errorf("repos = %d, want 100", len(repos))
	}
	// A full page cannot prove exhaustion; one confirming request follows.
	if listRequests != 2 {
		t.Errorf("listing requests = %d, want 2", listRequests)
	}
}

func TestFetchUserReposShortPageStopsEarly(t *testing.T) {
	listRequests := 0
	server := repoListServer(t, []int{7}, &listRequests)
	defer server.Close()

	c := testClient(t, server.URL)
	repos, err := c.FetchUserRepos(context.Background(), "u")
	if err != nil {
		t.Fatalf("FetchUserRepos error: %v", err)
	}
	if len(repos) != 7 {
		t.Errorf("repos = %d, want 7", len(repos))
	}
	if listRequests != 1 {
		t.Errorf("listing requests = %d, want 1", listRequests)
	}
}

func TestFetchUserReposListingFailureKeepsPartialResults(t *testing.T) {
	pageTwoAttempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/u/repos" {
			http.NotFound(w, r)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page != 1 {
			pageTwoAttempts++
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		items := make([]Repo, 100)
		for i := range items {
			items[i] = Repo{Name: fmt.Sprintf("repo-%d", i), DefaultBranch: "main"}
		}
		writeJSON(t, w, items)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	repos, err := c.FetchUserRepos(context.Background(), "u")
	if err != nil {
		t.Fatalf("a failed page must not fail the listing: %v", err)
	}
	if len(repos) != 100 {
		t.Errorf("repos = %d, want the 100 collected before the failure", len(repos))
	}
	// The bad page goes through the shared backoff before giving up.
	if pageTwoAttempts != 3 {
		t.Errorf("page 2 attempts = %d, want 3", pageTwoAttempts)
	}
}

func TestFetchUserReposCancelledContextAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []Repo{})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.FetchUserRepos(ctx, "u"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRateLimitWaitFloor(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Reset only 5 seconds away; the 60s floor must still apply.
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix()+5, 10))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
			return
		}
		writeJSON(t, w, User{Login: "octocat"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	var waited []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}

	user, err := c.FetchUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("FetchUser error: %v", err)
	}
	if user.Login != "octocat" {
		t.Errorf("Login = %q after retry", user.Login)
	}
	if len(waited) != 1 {
		t.Fatalf("sleep calls = %d, want 1", len(waited))
	}
	if waited[0] < minRateLimitWait {
		t.Errorf("waited %v, want at least %v", waited[0], minRateLimitWait)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if got := c.RequestCount(); got != 2 {
		t.Errorf("RequestCount = %d, want 2 (retry counts)", got)
	}
}

func TestRateLimitTripsBounded(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "rate limit exceeded")
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	var out User
	err := c.get(context.Background(), "/users/loop", nil, &out)
	if err == nil {
		t.Fatal("expected error when limiting never clears")
	}
	if !gserr.Is(err, gserr.ErrCodeRateLimited) {
		t.Errorf("error code = %v, want %v", gserr.GetCode(err), gserr.ErrCodeRateLimited)
	}
	var rle *gserr.RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("err = %v, want a wrapped RateLimitedError", err)
	}
	if rle.RetryAfter < 60 {
		t.Errorf("RetryAfter = %d, want at least the 60s floor", rle.RetryAfter)
	}
	if attempts != maxRateLimitTrips+1 {
		t.Errorf("attempts = %d, want %d", attempts, maxRateLimitTrips+1)
	}
}

func TestPlain403IsNotRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"access blocked"}`)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	var out User
	err := c.get(context.Background(), "/users/blocked", nil, &out)
	if err == nil {
		t.Fatal("expected error for 403")
	}
	if gserr.Is(err, gserr.ErrCodeRateLimited) {
		t.Error("403 without rate-limit body should not trip the governor")
	}
	if got := c.RequestCount(); got != 1 {
		t.Errorf("RequestCount = %d, want 1 (no retry)", got)
	}
}

func TestCacheHitSkipsRequest(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeJSON(t, w, User{Login: "octocat"})
	}))
	defer server.Close()

	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(Config{
		BaseURL:   server.URL,
		RepoDelay: -1,
		Cache:     fileCache,
		CacheTTL:  time.Hour,
		Logger:    log.New(io.Discard),
	})
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	ctx := context.Background()
	if _, err := c.FetchUser(ctx, "octocat"); err != nil {
		t.Fatalf("first FetchUser error: %v", err)
	}
	if _, err := c.FetchUser(ctx, "octocat"); err != nil {
		t.Fatalf("second FetchUser error: %v", err)
	}

	if requests != 1 {
		t.Errorf("server requests = %d, want 1 (second call cached)", requests)
	}
	if got := c.RequestCount(); got != 1 {
		t.Errorf("RequestCount = %d, want 1 (cache hits not counted)", got)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantErr    bool
		wantType   error
		isRetryErr bool
	}{
		{name: "200 OK", code: 200},
		{name: "204 No Content", code: 204},
		{name: "404 Not Found", code: 404, wantErr: true, wantType: cache.ErrNotFound},
		{name: "500 Internal Server Error", code: 500, wantErr: true, isRetryErr: true},
		{name: "502 Bad Gateway", code: 502, wantErr: true, isRetryErr: true},
		{name: "400 Bad Request", code: 400, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.code)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("checkStatus(%d) unexpected error: %v", tt.code, err)
				}
				return
			}
			if err == nil {
				t.Fatal("checkStatus() should return error")
			}
			if tt.wantType != nil && !errors.Is(err, tt.wantType) {
				t.Errorf("checkStatus() error = %v, want %v", err, tt.wantType)
			}
			if tt.isRetryErr && !cache.IsRetryable(err) {
				t.Errorf("checkStatus() error should be retryable, got %v", err)
			}
		})
	}
}

func TestDecodeContent(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("# Title\n\nBody"))
	// GitHub inserts newlines into the base64 payload
	wrapped := encoded[:10] + "\n" + encoded[10:]

	text, err := decodeContent(wrapped)
	if err != nil {
		t.Fatalf("decodeContent error: %v", err)
	}
	if text != "# Title\n\nBody" {
		t.Errorf("decoded = %q", text)
	}

	if _, err := decodeContent("!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}

	invalidUTF8 := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe})
	if _, err := decodeContent(invalidUTF8); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}
