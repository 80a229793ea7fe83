package github

import (
	"context"
	"fmt"

	gserr "github.com/matzehuels/gitscrape/pkg/errors"
)

// FetchUser retrieves the user record for login.
// Unlike the repository-level fetches, a failure here is surfaced to the
// caller: there is no meaningful scrape without the base user record.
func (c *Client) FetchUser(ctx context.Context, login string) (*User, error) {
	key := "github:user:" + login

	var user User
	err := c.cached(ctx, "user", key, &user, func() error {
		return c.get(ctx, "/users/"+login, nil, &user)
	})
	if err != nil {
		return nil, gserr.Wrap(gserr.ErrCodeProfileMissing, err, "fetch user %s", login)
	}
	if user.Login == "" {
		// Some mirrors omit the login field; fall back to the requested name.
		user.Login = login
	}
	return &user, nil
}

// FetchLanguages retrieves the language byte counts for one repository.
// A failed lookup degrades to an empty map so a single bad repository cannot
// abort a whole scrape.
func (c *Client) FetchLanguages(ctx context.Context, owner, repo string) map[string]int {
	key := fmt.Sprintf("github:languages:%s/%s", owner, repo)

	langs := map[string]int{}
	err := c.cached(ctx, "languages", key, &langs, func() error {
		return c.get(ctx, fmt.Sprintf("/repos/%s/%s/languages", owner, repo), nil, &langs)
	})
	if err != nil {
		c.logger.Warn("language lookup failed", "repo", owner+"/"+repo, "err", err)
		return map[string]int{}
	}
	if langs == nil {
		langs = map[string]int{}
	}
	return langs
}
