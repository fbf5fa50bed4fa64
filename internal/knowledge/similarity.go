package knowledge

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity scores how close two normalized question texts are, in [0, 1].
// The store treats it as a pluggable strategy so the matching algorithm and
// threshold can change without touching the resolver.
type Similarity interface {
	Score(a, b string) float64
}

// LevenshteinSimilarity scores by normalized edit distance.
type LevenshteinSimilarity struct{}

func (LevenshteinSimilarity) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// TokenOverlapSimilarity scores by Jaccard overlap of whitespace-separated
// tokens. Cheaper than edit distance and insensitive to word order, which
// suits question-shaped text.
type TokenOverlapSimilarity struct{}

func (TokenOverlapSimilarity) Score(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(ta))
	for _, tok := range ta {
		set[tok] = struct{}{}
	}

	both := 0
	union := len(set)
	seen := make(map[string]struct{}, len(tb))
	for _, tok := range tb {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := set[tok]; ok {
			both++
		} else {
			union++
		}
	}
	return float64(both) / float64(union)
}
