// Package textsim computes normalized lexical similarity between text spans.
// The metric is symmetric, reflexive, and decreases monotonically as edits
// accumulate; callers depend on the contract, not the algorithm.
package textsim

import "strings"

// Similarity returns a similarity score in [0, 1] between two spans.
// It is the Jaccard index over word-bigram shingles (unigrams for
// single-word spans), computed on case-folded tokens.
func Similarity(a, b string) float64 {
	sa := shingles(a)
	sb := shingles(b)

	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}

	intersection := 0
	for s := range sa {
		if sb[s] {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection

	return float64(intersection) / float64(union)
}

// shingles builds the word-bigram shingle set for a span.
func shingles(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return nil
	}

	set := make(map[string]bool, len(words))
	if len(words) == 1 {
		set[words[0]] = true
		return set
	}
	for i := 0; i+1 < len(words); i++ {
		set[words[i]+" "+words[i+1]] = true
	}
	return set
}
