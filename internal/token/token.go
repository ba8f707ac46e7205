// Package token provides deterministic token and cost estimation for
// context budgeting. No model API is involved; estimates use a word-count
// heuristic that tracks real tokenizers closely enough for accounting.
package token

import (
	"math"
	"strings"
)

// wordsToTokens is the multiplier applied to whitespace-delimited word counts.
// English prose averages roughly 1.3 BPE tokens per word.
const wordsToTokens = 1.3

// Estimate estimates the token count of text.
func Estimate(text string) int {
	words := strings.Fields(strings.TrimSpace(text))
	return int(math.Ceil(float64(len(words)) * wordsToTokens))
}

// CostSaved converts a saved-token count into an estimated dollar amount
// using a per-1000-token rate.
func CostSaved(tokensSaved int, costPer1K float64) float64 {
	if tokensSaved <= 0 || costPer1K <= 0 {
		return 0
	}
	return float64(tokensSaved) / 1000.0 * costPer1K
}

// Ratio returns compressed/original clamped to (0, 1]. Empty input
// compresses to ratio 1.0 by convention (nothing to compress).
func Ratio(originalTokens, compressedTokens int) float64 {
	if originalTokens <= 0 {
		return 1.0
	}
	r := float64(compressedTokens) / float64(originalTokens)
	if r > 1.0 {
		return 1.0
	}
	if r < 0 {
		return 0
	}
	return r
}
