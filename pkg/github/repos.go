package github

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/gitscrape/pkg/cache"
	"github.com/matzehuels/gitscrape/pkg/observability"
)

// FetchUserRepos retrieves all repositories owned by username, each enriched
// with README text and language byte counts.
//
// The listing is paginated with the configured page size and sort order.
// Pagination stops on an empty page, or early on a short page (the common
// case, saving one confirming request). A page that still fails after the
// retry backoff ends the listing with the repositories collected so far;
// only context cancellation aborts the fetch. Repositories are returned in API
// page order. Between repository enrichments the client pauses briefly to
// stay clear of abuse-detection thresholds.
func (c *Client) FetchUserRepos(ctx context.Context, username string) ([]Repo, error) {
	var all []Repo

	for page := 1; ; page++ {
		params := url.Values{
			"page":      {strconv.Itoa(page)},
			"per_page":  {strconv.Itoa(c.pageSize)},
			"sort":      {c.sort},
			"direction": {c.direction},
		}

		var items []Repo
		err := cache.RetryWithBackoff(ctx, func() error {
			return c.get(ctx, "/users/"+username+"/repos", params, &items)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A page that cannot be fetched ends the listing; everything
			// collected so far still feeds statistics and output.
			c.logger.Warn("repository listing failed, keeping partial results",
				"user", username, "page", page, "err", err)
			break
		}
		if len(items) == 0 {
			break
		}

		for i := range items {
			if err := c.enrichRepo(ctx, username, &items[i]); err != nil {
				return nil, err
			}
		}
		all = append(all, items...)

		if len(items) < c.pageSize {
			break
		}
	}

	c.logger.Info("fetched repositories", "user", username, "count", len(all))
	return all, nil
}

// enrichRepo fills in the README and language map for one listing item.
func (c *Client) enrichRepo(ctx context.Context, owner string, repo *Repo) error {
	start := time.Now()
	observability.Scrape().OnRepoStart(ctx, owner, repo.Name)
	c.logger.Debug("processing repository", "repo", repo.Name)

	if content, found := c.FetchReadme(ctx, owner, repo.Name); found {
		repo.Readme = &content
	}
	repo.Languages = c.FetchLanguages(ctx, owner, repo.Name)

	observability.Scrape().OnRepoComplete(ctx, owner, repo.Name, time.Since(start), nil)

	if c.repoDelay > 0 {
		if err := c.sleep(ctx, c.repoDelay); err != nil {
			return err
		}
	}
	return nil
}
