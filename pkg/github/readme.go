package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/gitscrape/pkg/cache"
)

// readmeCandidates is the probe order for README discovery. Case-sensitive
// variants come before the extension-less fallback; the first hit wins.
var readmeCandidates = []string{"README.md", "readme.md", "README.rst", "README.txt", "README"}

// FetchReadme probes a repository for a README file and returns its decoded
// text. The second return value reports whether any candidate was found;
// a repository without a README is a normal outcome, not an error.
func (c *Client) FetchReadme(ctx context.Context, owner, repo string) (string, bool) {
	key := fmt.Sprintf("github:readme:%s/%s", owner, repo)

	var result readmeResult
	err := c.cached(ctx, "readme", key, &result, func() error {
		result = c.probeReadme(ctx, owner, repo)
		return nil
	})
	if err != nil {
		return "", false
	}
	return result.Content, result.Found
}

func (c *Client) probeReadme(ctx context.Context, owner, repo string) readmeResult {
	for _, name := range readmeCandidates {
		path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, name)

		var data contentResponse
		if err := c.get(ctx, path, nil, &data); err != nil {
			if !errors.Is(err, cache.ErrNotFound) {
				c.logger.Debug("readme candidate fetch failed", "repo", owner+"/"+repo, "file", name, "err", err)
			}
			continue
		}
		if data.Content == "" {
			continue
		}

		text, err := decodeContent(data.Content)
		if err != nil {
			// A malformed candidate is skipped, not fatal for the probe.
			c.logger.Error("failed to decode readme content", "repo", owner+"/"+repo, "file", name, "err", err)
			continue
		}

		c.logger.Info("found readme", "repo", owner+"/"+repo, "file", name, "chars", len(text))
		return readmeResult{Content: text, Found: true}
	}

	c.logger.Debug("no readme found", "repo", owner+"/"+repo)
	return readmeResult{}
}

// decodeContent decodes the base64 payload of a contents response.
// GitHub wraps the encoding with newlines, which must be stripped first.
func decodeContent(content string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("content is not valid UTF-8")
	}
	return string(raw), nil
}
