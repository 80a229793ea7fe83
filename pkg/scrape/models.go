// Package scrape orchestrates a complete GitHub user scrape: profile,
// repositories with READMEs and languages, aggregate statistics, and run
// metadata, assembled into one serializable result.
package scrape

// UserProfile is the scraped view of a GitHub user account.
// Optional fields are pointers so absent upstream values serialize as null.
type UserProfile struct {
	Name          *string `json:"name"`
	Bio           *string `json:"bio"`
	Company       *string `json:"company"`
	Website       *string `json:"website"`
	Twitter       *string `json:"twitter"`
	Location      *string `json:"location"`
	Email         *string `json:"email"`
	PublicRepos   int     `json:"public_repos"`
	Followers     int     `json:"followers"`
	Following     int     `json:"following"`
	ProfileReadme *string `json:"profile_readme"`
	AvatarURL     *string `json:"avatar_url"`
	Login         string  `json:"login"`
}

// Repository is the scraped view of one repository.
// About and Description both carry the upstream description field: the API
// exposes a single value for what the web UI splits into two labels.
type Repository struct {
	Name          string         `json:"name"`
	About         *string        `json:"about"`
	Description   *string        `json:"description"`
	ReadmeContent *string        `json:"readme_content"`
	Languages     map[string]int `json:"languages"`
	URL           string         `json:"url"`
	Stars         int            `json:"stars"`
	Forks         int            `json:"forks"`
	IsFork        bool           `json:"is_fork"`
	DefaultBranch string         `json:"default_branch"`
}

// Statistics aggregates counts across all scraped repositories.
type Statistics struct {
	TotalRepositories      int            `json:"total_repositories"`
	RepositoriesWithReadme int            `json:"repositories_with_readme"`
	TotalStars             int            `json:"total_stars"`
	TotalForks             int            `json:"total_forks"`
	UniqueLanguages        []string       `json:"unique_languages"`
	LanguageDistribution   map[string]int `json:"language_distribution"`
}

// Metadata records provenance for one scrape run.
// SavedToFile and SaveError are mutually exclusive; both are null when
// persistence was not requested.
type Metadata struct {
	RunID            string  `json:"run_id"`
	ScrapedAt        string  `json:"scraped_at"`
	ScraperVersion   string  `json:"scraper_version"`
	TotalAPIRequests int     `json:"total_api_requests"`
	SavedToFile      *string `json:"saved_to_file"`
	SaveError        *string `json:"save_error"`
}

// Result is the complete outcome of scraping one user.
type Result struct {
	Profile      UserProfile  `json:"profile"`
	Repositories []Repository `json:"repositories"`
	Statistics   Statistics   `json:"statistics"`
	Metadata     Metadata     `json:"metadata"`
}
