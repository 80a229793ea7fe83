package github

// User holds the fields of a GitHub user record the scraper consumes.
// Optional fields are pointers so that upstream nulls survive re-serialization.
type User struct {
	Login       string  `json:"login"`
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	Company     *string `json:"company"`
	Blog        *string `json:"blog"`
	Twitter     *string `json:"twitter_username"`
	Location    *string `json:"location"`
	Email       *string `json:"email"`
	AvatarURL   *string `json:"avatar_url"`
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
}

// Repo is a repository from the listing endpoint, enriched with README text
// and per-language byte counts by [Client.FetchUserRepos].
type Repo struct {
	Name          string         `json:"name"`
	Description   *string        `json:"description"`
	HTMLURL       string         `json:"html_url"`
	Stars         int            `json:"stargazers_count"`
	Forks         int            `json:"forks_count"`
	Fork          bool           `json:"fork"`
	DefaultBranch string         `json:"default_branch"`
	Readme        *string        `json:"-"`
	Languages     map[string]int `json:"-"`
}

// contentResponse is the GitHub API response for a repository contents path.
type contentResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Size     int    `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// readmeResult is the cacheable outcome of a README probe.
// Found is false when no candidate filename yielded decodable content.
type readmeResult struct {
	Content string `json:"content"`
	Found   bool   `json:"found"`
}
