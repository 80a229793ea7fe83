package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitscrape/pkg/cache"
)

// newCache builds the response cache selected by cfg. If the backend cannot
// be set up (unwritable cache dir, unreachable redis) the scrape still runs,
// just without caching.
func (c *CLI) newCache(ctx context.Context, cfg CacheConfig, noCache bool) cache.Cache {
	if noCache || cfg.Backend == cacheBackendNone {
		return cache.NewNullCache()
	}

	switch cfg.Backend {
	case cacheBackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, appName)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNullCache()
		}
		return rc
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache()
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, continuing without cache", "dir", dir, "err", err)
			return cache.NewNullCache()
		}
		return fc
	}
}

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the GitHub response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached API responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			count := 0
			err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return nil // Skip errors, continue walking
				}
				if path == dir {
					return nil
				}
				if !info.IsDir() {
					if err := os.Remove(path); err == nil {
						count++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			// Clean up empty subdirectories
			_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || path == dir {
					return nil
				}
				if info.IsDir() {
					os.Remove(path)
				}
				return nil
			})

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
