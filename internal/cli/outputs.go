package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitscrape/pkg/output"
)

// outputsCommand creates the outputs command for inspecting saved results.
func (c *CLI) outputsCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "List and inspect saved scrape results",
	}
	cmd.PersistentFlags().StringVarP(&dir, "output-dir", "o", "", "directory with saved results")

	cmd.AddCommand(c.outputsListCommand(&dir))
	cmd.AddCommand(c.outputsShowCommand(&dir))

	return cmd
}

// outputWriter builds a writer for the resolved output directory.
func (c *CLI) outputWriter(dir string) (*output.Writer, error) {
	if dir == "" {
		cfg, err := loadConfig("")
		if err != nil {
			return nil, err
		}
		dir = cfg.OutputDir
	}
	return output.NewWriter(dir, c.Logger)
}

// outputsListCommand creates the "outputs list" subcommand.
func (c *CLI) outputsListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved scrape results, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.outputWriter(*dir)
			if err != nil {
				return err
			}

			files, err := w.List()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				printInfo("No saved results in %s", w.Dir())
				return nil
			}

			for _, name := range files {
				printFile(filepath.Join(w.Dir(), name))
			}
			printDetail("%d saved results", len(files))
			return nil
		},
	}
}

// outputsShowCommand creates the "outputs show" subcommand.
func (c *CLI) outputsShowCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [file]",
		Short: "Show a summary of one saved result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.outputWriter(*dir)
			if err != nil {
				return err
			}

			path := args[0]
			if !strings.ContainsRune(path, filepath.Separator) {
				path = filepath.Join(w.Dir(), path)
			}

			result, err := w.Load(path)
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(result.Profile.Login))
			printKeyValue("Scraped at", result.Metadata.ScrapedAt)
			printKeyValue("Version", result.Metadata.ScraperVersion)
			printStats(
				result.Statistics.TotalRepositories,
				result.Statistics.RepositoriesWithReadme,
				len(result.Statistics.UniqueLanguages),
			)
			printKeyValue("Stars", fmt.Sprintf("%d", result.Statistics.TotalStars))
			if len(result.Statistics.UniqueLanguages) > 0 {
				printKeyValue("Languages", strings.Join(result.Statistics.UniqueLanguages, ", "))
			}
			return nil
		},
	}
}
