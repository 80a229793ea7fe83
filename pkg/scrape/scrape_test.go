package scrape

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	gserr "github.com/matzehuels/gitscrape/pkg/errors"
	"github.com/matzehuels/gitscrape/pkg/github"
)

func strptr(s string) *string { return &s }

type stubFetcher struct {
	user          *github.User
	userErr       error
	repos         []github.Repo
	reposErr      error
	profileReadme string
	requests      int
}

func (f *stubFetcher) FetchUser(ctx context.Context, login string) (*github.User, error) {
	return f.user, f.userErr
}

func (f *stubFetcher) FetchUserRepos(ctx context.Context, username string) ([]github.Repo, error) {
	return f.repos, f.reposErr
}

func (f *stubFetcher) FetchReadme(ctx context.Context, owner, repo string) (string, bool) {
	if owner == repo && f.profileReadme != "" {
		return f.profileReadme, true
	}
	return "", false
}

func (f *stubFetcher) RequestCount() int { return f.requests }

type stubSaver struct {
	path  string
	err   error
	calls int
}

func (s *stubSaver) Save(result *Result, username string) (string, error) {
	s.calls++
	return s.path, s.err
}

func testScraper(client Fetcher, saver Saver, save bool) *Scraper {
	return New(Config{
		Client:     client,
		Saver:      saver,
		Logger:     log.New(io.Discard),
		SaveToFile: save,
	})
}

func TestScrapeUser(t *testing.T) {
	fetcher := &stubFetcher{
		user: &github.User{
			Login:       "octocat",
			Name:        strptr("The Octocat"),
			Twitter:     strptr("octo"),
			PublicRepos: 2,
		},
		repos: []github.Repo{
			{
				Name:        "alpha",
				Description: strptr("first repo"),
				HTMLURL:     "https://github.com/octocat/alpha",
				Stars:       10,
				Forks:       2,
				Readme:      strptr("# alpha"),
				Languages:   map[string]int{"Go": 500},
			},
			{
				Name:          "beta",
				HTMLURL:       "https://github.com/octocat/beta",
				Stars:         3,
				Fork:          true,
				DefaultBranch: "main",
			},
		},
		profileReadme: "# hi",
		requests:      12,
	}
	saver := &stubSaver{path: "/tmp/out/octocat_profile_20260830_120000.json"}

	result, err := testScraper(fetcher, saver, true).ScrapeUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("ScrapeUser error: %v", err)
	}

	if result.Profile.Login != "octocat" {
		t.Errorf("Login = %q", result.Profile.Login)
	}
	if result.Profile.Twitter == nil || *result.Profile.Twitter != "https://twitter.com/octo" {
		t.Errorf("Twitter = %v, want full URL", result.Profile.Twitter)
	}
	if result.Profile.ProfileReadme == nil || *result.Profile.ProfileReadme != "# hi" {
		t.Errorf("ProfileReadme = %v", result.Profile.ProfileReadme)
	}

	if len(result.Repositories) != 2 {
		t.Fatalf("repositories = %d, want 2", len(result.Repositories))
	}
	alpha := result.Repositories[0]
	if alpha.About == nil || alpha.Description == nil || *alpha.About != *alpha.Description {
		t.Errorf("About and Description should both carry the upstream description")
	}
	beta := result.Repositories[1]
	if beta.Languages == nil {
		t.Error("Languages must be an empty map, not nil")
	}
	if beta.About != nil {
		t.Errorf("missing description should stay null, got %v", beta.About)
	}
	if !beta.IsFork {
		t.Error("fork flag lost in mapping")
	}

	if result.Statistics.TotalStars != 13 {
		t.Errorf("TotalStars = %d, want 13", result.Statistics.TotalStars)
	}
	if result.Statistics.RepositoriesWithReadme != 1 {
		t.Errorf("RepositoriesWithReadme = %d, want 1", result.Statistics.RepositoriesWithReadme)
	}

	if result.Metadata.TotalAPIRequests != 12 {
		t.Errorf("TotalAPIRequests = %d, want 12", result.Metadata.TotalAPIRequests)
	}
	if result.Metadata.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.Metadata.SavedToFile == nil || *result.Metadata.SavedToFile != saver.path {
		t.Errorf("SavedToFile = %v, want %q", result.Metadata.SavedToFile, saver.path)
	}
	if result.Metadata.SaveError != nil {
		t.Errorf("SaveError = %v, want nil", result.Metadata.SaveError)
	}
	if saver.calls != 1 {
		t.Errorf("saver calls = %d, want 1", saver.calls)
	}
}

func TestScrapeUserProfileFailureIsFatal(t *testing.T) {
	fetcher := &stubFetcher{
		userErr: gserr.New(gserr.ErrCodeProfileMissing, "fetch user ghost"),
	}

	_, err := testScraper(fetcher, &stubSaver{}, false).ScrapeUser(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error when profile fetch fails")
	}
	if !gserr.Is(err, gserr.ErrCodeProfileMissing) {
		t.Errorf("error code = %v, want %v", gserr.GetCode(err), gserr.ErrCodeProfileMissing)
	}
}

func TestScrapeUserSaveFailureIsNotFatal(t *testing.T) {
	fetcher := &stubFetcher{user: &github.User{Login: "octocat"}}
	saver := &stubSaver{err: errors.New("disk full")}

	result, err := testScraper(fetcher, saver, true).ScrapeUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("save failure must not fail the scrape: %v", err)
	}
	if result.Metadata.SavedToFile != nil {
		t.Errorf("SavedToFile = %v, want nil", result.Metadata.SavedToFile)
	}
	if result.Metadata.SaveError == nil || *result.Metadata.SaveError != "disk full" {
		t.Errorf("SaveError = %v, want %q", result.Metadata.SaveError, "disk full")
	}
}

func TestScrapeUserSkipsSaveWhenDisabled(t *testing.T) {
	fetcher := &stubFetcher{user: &github.User{Login: "octocat"}}
	saver := &stubSaver{path: "/tmp/ignored.json"}

	result, err := testScraper(fetcher, saver, false).ScrapeUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("ScrapeUser error: %v", err)
	}
	if saver.calls != 0 {
		t.Errorf("saver calls = %d, want 0", saver.calls)
	}
	if result.Metadata.SavedToFile != nil || result.Metadata.SaveError != nil {
		t.Error("metadata save fields should stay null when saving is disabled")
	}
}

func TestScrapeUserRejectsInvalidUsername(t *testing.T) {
	fetcher := &stubFetcher{user: &github.User{Login: "x"}}

	_, err := testScraper(fetcher, &stubSaver{}, false).ScrapeUser(context.Background(), "-bad-")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !gserr.Is(err, gserr.ErrCodeInvalidUsername) {
		t.Errorf("error code = %v, want %v", gserr.GetCode(err), gserr.ErrCodeInvalidUsername)
	}
}

func TestAggregate(t *testing.T) {
	repos := []Repository{
		{
			Stars:         5,
			Forks:         1,
			ReadmeContent: strptr("# one"),
			Languages:     map[string]int{"Go": 900, "Makefile": 100},
		},
		{
			Stars:     2,
			Forks:     0,
			Languages: map[string]int{"Python": 400, "Go": 300},
		},
		{
			Stars:         1,
			Forks:         4,
			ReadmeContent: strptr("# three"),
			Languages:     map[string]int{},
		},
	}

	stats := Aggregate(repos)

	if stats.TotalRepositories != 3 {
		t.Errorf("TotalRepositories = %d, want 3", stats.TotalRepositories)
	}
	if stats.TotalStars != 8 {
		t.Errorf("TotalStars = %d, want 8", stats.TotalStars)
	}
	if stats.TotalForks != 5 {
		t.Errorf("TotalForks = %d, want 5", stats.TotalForks)
	}
	if stats.RepositoriesWithReadme != 2 {
		t.Errorf("RepositoriesWithReadme = %d, want 2", stats.RepositoriesWithReadme)
	}

	wantDist := map[string]int{"Go": 1200, "Makefile": 100, "Python": 400}
	if !reflect.DeepEqual(stats.LanguageDistribution, wantDist) {
		t.Errorf("LanguageDistribution = %v, want %v", stats.LanguageDistribution, wantDist)
	}

	// First seen per repo, dominant language first within each repo.
	wantOrder := []string{"Go", "Makefile", "Python"}
	if !reflect.DeepEqual(stats.UniqueLanguages, wantOrder) {
		t.Errorf("UniqueLanguages = %v, want %v", stats.UniqueLanguages, wantOrder)
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)

	if stats.TotalRepositories != 0 {
		t.Errorf("TotalRepositories = %d, want 0", stats.TotalRepositories)
	}
	if stats.UniqueLanguages == nil {
		t.Error("UniqueLanguages should be an empty slice, not nil")
	}
	if stats.LanguageDistribution == nil {
		t.Error("LanguageDistribution should be an empty map, not nil")
	}
}
