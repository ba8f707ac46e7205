// Package quality scores a compression result against its input. The
// score gates strategy fallback: results below the configured threshold
// are discarded and the next, more conservative strategy runs.
package quality

import (
	"github.com/pithworks/pith/internal/strategy"
	"github.com/pithworks/pith/internal/textsim"
)

// Weights for the two quality components. Document similarity dominates;
// high-value retention sharpens the penalty when protected content is in
// play.
const (
	similarityWeight = 0.7
	retentionWeight  = 0.3
)

// Evaluate scores a strategy result in [0, 1]. 1.0 means the output is
// indistinguishable from the input for downstream use.
func Evaluate(original string, res *strategy.Result) float64 {
	docSim := textsim.Similarity(original, res.Text)
	return similarityWeight*docSim + retentionWeight*retention(res)
}

// retention is the fraction of protected segments that survived into the
// output. With nothing protected there is nothing to lose, so it is 1.0.
func retention(res *strategy.Result) float64 {
	if len(res.Protected) == 0 {
		return 1.0
	}

	surviving := make(map[int]bool, len(res.Retained))
	for _, seg := range res.Retained {
		surviving[seg.Start] = true
	}

	kept := 0
	for _, p := range res.Protected {
		if surviving[p.Start] {
			kept++
		}
	}
	return float64(kept) / float64(len(res.Protected))
}
