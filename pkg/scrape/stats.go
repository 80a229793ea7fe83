package scrape

import "sort"

// Aggregate computes repository statistics for one scrape run.
//
// UniqueLanguages lists each language once, in the order it was first seen
// while walking repositories. Within a repository, languages are visited by
// descending byte count (name as tiebreak) so the order is deterministic and
// leads with each repository's dominant language.
func Aggregate(repos []Repository) Statistics {
	stats := Statistics{
		TotalRepositories:    len(repos),
		UniqueLanguages:      []string{},
		LanguageDistribution: map[string]int{},
	}

	for _, repo := range repos {
		stats.TotalStars += repo.Stars
		stats.TotalForks += repo.Forks
		if repo.ReadmeContent != nil && *repo.ReadmeContent != "" {
			stats.RepositoriesWithReadme++
		}

		for _, lang := range languagesByBytes(repo.Languages) {
			if _, seen := stats.LanguageDistribution[lang]; !seen {
				stats.UniqueLanguages = append(stats.UniqueLanguages, lang)
			}
			stats.LanguageDistribution[lang] += repo.Languages[lang]
		}
	}

	return stats
}

// languagesByBytes returns the language names of one repository ordered by
// descending byte count, then name.
func languagesByBytes(langs map[string]int) []string {
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
