package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	gserr "github.com/matzehuels/gitscrape/pkg/errors"
	"github.com/matzehuels/gitscrape/pkg/github"
	"github.com/matzehuels/gitscrape/pkg/output"
	"github.com/matzehuels/gitscrape/pkg/scrape"
)

// scrapeFlags holds the flag values for the scrape command.
type scrapeFlags struct {
	token      string
	outputDir  string
	configFile string
	pageSize   int
	delay      time.Duration
	noSave     bool
	noCache    bool
}

// scrapeCommand creates the scrape command.
func (c *CLI) scrapeCommand() *cobra.Command {
	flags := &scrapeFlags{}

	cmd := &cobra.Command{
		Use:   "scrape [username]",
		Short: "Scrape a GitHub user's profile and repositories",
		Long: `Scrape a GitHub user's complete public footprint: profile details,
the profile README, every repository with its README and language statistics,
and aggregate counts across all repositories.

The result is saved as {username}_profile_{timestamp}.json in the output
directory unless --no-save is given.

A token raises the API rate limit substantially. Pass one with --token or set
GITHUB_TOKEN (a .env file in the working directory is read too).

Examples:
  gitscrape scrape octocat
  gitscrape scrape octocat --token ghp_xxx -o ./snapshots
  gitscrape scrape octocat --no-save --no-cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScrape(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.token, "token", "t", "", "GitHub API token (defaults to GITHUB_TOKEN)")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "directory for saved results")
	cmd.Flags().StringVar(&flags.configFile, "config", "", "path to config file")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "repositories per listing page (max 100)")
	cmd.Flags().DurationVar(&flags.delay, "delay", 0, "pause between repository fetches")
	cmd.Flags().BoolVar(&flags.noSave, "no-save", false, "do not save the result to a file")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "bypass the response cache")

	return cmd
}

func (c *CLI) runScrape(ctx context.Context, username string, flags *scrapeFlags) error {
	if err := gserr.ValidateUsername(username); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.configFile)
	if err != nil {
		return err
	}
	applyFlags(&cfg, flags)

	token := flags.token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		printWarning("No GitHub token provided - rate limits may apply")
	}

	responseCache := c.newCache(ctx, cfg.Cache, flags.noCache)
	defer responseCache.Close()

	client := github.NewClient(github.Config{
		Token:     token,
		PageSize:  cfg.PageSize,
		Sort:      cfg.Sort,
		Direction: cfg.Direction,
		RepoDelay: time.Duration(cfg.RepoDelayMS) * time.Millisecond,
		Cache:     responseCache,
		CacheTTL:  cfg.Cache.cacheTTL(),
		Logger:    c.Logger,
	})

	writer, err := output.NewWriter(cfg.OutputDir, c.Logger)
	if err != nil {
		return err
	}

	scraper := scrape.New(scrape.Config{
		Client:     client,
		Saver:      writer,
		Logger:     c.Logger,
		SaveToFile: !flags.noSave,
	})

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scraping %s...", username))
	spinner.Start()

	result, err := scraper.ScrapeUser(ctx, username)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Scrape failed: %s", gserr.UserMessage(err)))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Scraped %s", username))
	prog.done(fmt.Sprintf("Scraped %d repositories", result.Statistics.TotalRepositories))

	printScrapeResult(result)
	return nil
}

// applyFlags overlays non-zero flag values onto the file config.
func applyFlags(cfg *Config, flags *scrapeFlags) {
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}
	if flags.pageSize > 0 {
		cfg.PageSize = flags.pageSize
	}
	if flags.delay > 0 {
		cfg.RepoDelayMS = int(flags.delay / time.Millisecond)
	}
}

// printScrapeResult renders the post-scrape summary.
func printScrapeResult(result *scrape.Result) {
	printNewline()

	name := result.Profile.Login
	if result.Profile.Name != nil {
		name = fmt.Sprintf("%s (%s)", *result.Profile.Name, result.Profile.Login)
	}
	fmt.Println(StyleTitle.Render(name))

	if result.Profile.Bio != nil {
		printDetail("%s", *result.Profile.Bio)
	}
	if result.Profile.Location != nil {
		printKeyValue("Location", *result.Profile.Location)
	}
	if result.Profile.Website != nil && *result.Profile.Website != "" {
		printKeyValue("Website", StyleLink.Render(*result.Profile.Website))
	}
	printKeyValue("Followers", fmt.Sprintf("%d", result.Profile.Followers))
	printKeyValue("Public repos", fmt.Sprintf("%d", result.Profile.PublicRepos))

	stats := result.Statistics
	printNewline()
	printStats(stats.TotalRepositories, stats.RepositoriesWithReadme, len(stats.UniqueLanguages))
	printKeyValue("Stars", fmt.Sprintf("%d", stats.TotalStars))
	printKeyValue("Forks", fmt.Sprintf("%d", stats.TotalForks))
	if len(stats.UniqueLanguages) > 0 {
		top := stats.UniqueLanguages
		if len(top) > 5 {
			top = top[:5]
		}
		printKeyValue("Languages", strings.Join(top, ", "))
	}
	printKeyValue("API requests", fmt.Sprintf("%d", result.Metadata.TotalAPIRequests))

	if result.Metadata.SavedToFile != nil {
		printNewline()
		printFile(*result.Metadata.SavedToFile)
	}
	if result.Metadata.SaveError != nil {
		printNewline()
		printWarning("Result could not be saved: %s", *result.Metadata.SaveError)
	}
}
