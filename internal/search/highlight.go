package search

import (
	"strings"
	"unicode"
)

// MatchSpan is a half-open rune range [Start, End) of a highlighted match.
type MatchSpan struct {
	Start int
	End   int
}

// MergeMatchSpans joins overlapping or adjacent spans. Input must be sorted.
func MergeMatchSpans(spans []MatchSpan) []MatchSpan {
	if len(spans) == 0 {
		return nil
	}
	merged := make([]MatchSpan, 0, len(spans))
	current := spans[0]
	for i := 1; i < len(spans); i++ {
		next := spans[i]
		if next.Start <= current.End {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)
	return merged
}

// HighlightSpans locates the runes of query in target as a subsequence,
// preferring a contiguous substring hit when one exists.
func HighlightSpans(query, target string, caseSensitive bool) []MatchSpan {
	if query == "" {
		return nil
	}
	q := []rune(query)
	t := []rune(target)
	if !caseSensitive {
		q = []rune(strings.ToLower(query))
		t = []rune(strings.ToLower(target))
	}

	if idx := runeIndex(t, q); idx >= 0 {
		return []MatchSpan{{Start: idx, End: idx + len(q)}}
	}

	spans := make([]MatchSpan, 0, len(q))
	qi := 0
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if equalRune(t[ti], q[qi], caseSensitive) {
			spans = append(spans, MatchSpan{Start: ti, End: ti + 1})
			qi++
		}
	}
	if qi < len(q) {
		return nil
	}
	return MergeMatchSpans(spans)
}

func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func equalRune(a, b rune, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return unicode.ToLower(a) == unicode.ToLower(b)
}
