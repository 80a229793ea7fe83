package scrape

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gitscrape/pkg/buildinfo"
	gserr "github.com/matzehuels/gitscrape/pkg/errors"
	"github.com/matzehuels/gitscrape/pkg/github"
	"github.com/matzehuels/gitscrape/pkg/observability"
)

// Fetcher is the slice of the GitHub client the scraper needs.
// *github.Client satisfies it.
type Fetcher interface {
	FetchUser(ctx context.Context, login string) (*github.User, error)
	FetchUserRepos(ctx context.Context, username string) ([]github.Repo, error)
	FetchReadme(ctx context.Context, owner, repo string) (string, bool)
	RequestCount() int
}

// Saver persists a completed scrape result and returns the path written.
type Saver interface {
	Save(result *Result, username string) (string, error)
}

// Config holds scraper settings.
type Config struct {
	Client Fetcher     // required
	Saver  Saver       // required unless SaveToFile is false
	Logger *log.Logger // default log.Default()

	// SaveToFile controls whether ScrapeUser persists the result.
	SaveToFile bool
}

// Scraper assembles a complete picture of one GitHub user from the API.
type Scraper struct {
	client     Fetcher
	saver      Saver
	logger     *log.Logger
	saveToFile bool

	now func() time.Time
}

// New creates a Scraper from cfg.
func New(cfg Config) *Scraper {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Scraper{
		client:     cfg.Client,
		saver:      cfg.Saver,
		logger:     cfg.Logger,
		saveToFile: cfg.SaveToFile,
		now:        time.Now,
	}
}

// ScrapeUser fetches the profile, all repositories, and aggregate statistics
// for username, then optionally persists the assembled result.
//
// A missing or unreachable profile is fatal. Failures while persisting are
// not: the result is still returned, with the error recorded in
// Metadata.SaveError instead of Metadata.SavedToFile.
func (s *Scraper) ScrapeUser(ctx context.Context, username string) (*Result, error) {
	if err := gserr.ValidateUsername(username); err != nil {
		return nil, err
	}

	start := s.now()
	observability.Scrape().OnScrapeStart(ctx, username)
	s.logger.Info("starting scrape", "user", username)

	profile, err := s.fetchProfile(ctx, username)
	if err != nil {
		observability.Scrape().OnScrapeComplete(ctx, username, 0, s.client.RequestCount(), s.now().Sub(start), err)
		return nil, err
	}

	repos, err := s.fetchRepositories(ctx, username)
	if err != nil {
		observability.Scrape().OnScrapeComplete(ctx, username, 0, s.client.RequestCount(), s.now().Sub(start), err)
		return nil, err
	}

	result := &Result{
		Profile:      *profile,
		Repositories: repos,
		Statistics:   Aggregate(repos),
		Metadata: Metadata{
			RunID:            uuid.NewString(),
			ScrapedAt:        s.now().Format(time.RFC3339),
			ScraperVersion:   buildinfo.Version,
			TotalAPIRequests: s.client.RequestCount(),
		},
	}

	if s.saveToFile {
		s.persist(result, username)
	}

	observability.Scrape().OnScrapeComplete(ctx, username, len(repos), s.client.RequestCount(), s.now().Sub(start), nil)
	s.logger.Info("scrape complete",
		"user", username,
		"repos", result.Statistics.TotalRepositories,
		"with_readme", result.Statistics.RepositoriesWithReadme,
		"languages", len(result.Statistics.UniqueLanguages),
		"stars", result.Statistics.TotalStars,
		"api_requests", result.Metadata.TotalAPIRequests,
	)
	return result, nil
}

// fetchProfile retrieves the user record and the profile README from the
// special username/username repository.
func (s *Scraper) fetchProfile(ctx context.Context, username string) (*UserProfile, error) {
	s.logger.Info("fetching profile", "user", username)

	user, err := s.client.FetchUser(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &UserProfile{
		Name:        user.Name,
		Bio:         user.Bio,
		Company:     user.Company,
		Website:     user.Blog,
		Twitter:     twitterURL(user.Twitter),
		Location:    user.Location,
		Email:       user.Email,
		PublicRepos: user.PublicRepos,
		Followers:   user.Followers,
		Following:   user.Following,
		AvatarURL:   user.AvatarURL,
		Login:       user.Login,
	}

	if content, found := s.client.FetchReadme(ctx, username, username); found {
		s.logger.Info("found profile readme", "user", username)
		profile.ProfileReadme = &content
	}
	return profile, nil
}

func (s *Scraper) fetchRepositories(ctx context.Context, username string) ([]Repository, error) {
	items, err := s.client.FetchUserRepos(ctx, username)
	if err != nil {
		return nil, err
	}

	repos := make([]Repository, 0, len(items))
	for _, item := range items {
		languages := item.Languages
		if languages == nil {
			languages = map[string]int{}
		}
		repos = append(repos, Repository{
			Name:          item.Name,
			About:         item.Description,
			Description:   item.Description,
			ReadmeContent: item.Readme,
			Languages:     languages,
			URL:           item.HTMLURL,
			Stars:         item.Stars,
			Forks:         item.Forks,
			IsFork:        item.Fork,
			DefaultBranch: item.DefaultBranch,
		})
	}
	return repos, nil
}

// persist saves the result and records the outcome in the metadata.
// Persistence failures never fail the scrape.
func (s *Scraper) persist(result *Result, username string) {
	path, err := s.saver.Save(result, username)
	if err != nil {
		s.logger.Error("failed to save result", "user", username, "err", err)
		msg := err.Error()
		result.Metadata.SaveError = &msg
		return
	}
	s.logger.Info("result saved", "path", path)
	result.Metadata.SavedToFile = &path
}

// twitterURL expands a bare handle into a full profile URL.
func twitterURL(handle *string) *string {
	if handle == nil || *handle == "" {
		return nil
	}
	u := "https://twitter.com/" + *handle
	return &u
}
