package search

import (
	"sort"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FilterMatch is one entry that survived the local quick filter.
type FilterMatch struct {
	Index    int
	Distance int
	Spans    []MatchSpan
}

// FilterEntries fuzzy-matches query against entry names without any network
// call. Matches are ordered by edit distance, then by listing order. An empty
// query matches nothing; callers show the full listing instead.
func FilterEntries(entries []fs.Entry, query string, caseSensitive bool) []FilterMatch {
	if query == "" || len(entries) == 0 {
		return nil
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	var ranks fuzzy.Ranks
	if caseSensitive {
		ranks = fuzzy.RankFind(query, names)
	} else {
		ranks = fuzzy.RankFindNormalizedFold(query, names)
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	matches := make([]FilterMatch, 0, len(ranks))
	for _, r := range ranks {
		matches = append(matches, FilterMatch{
			Index:    r.OriginalIndex,
			Distance: r.Distance,
			Spans:    HighlightSpans(query, r.Target, caseSensitive),
		})
	}
	return matches
}
