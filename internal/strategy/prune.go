package strategy

import (
	"sort"

	"github.com/pithworks/pith/internal/pattern"
	"github.com/pithworks/pith/internal/segment"
	"github.com/pithworks/pith/internal/token"
)

// Prune drops the lowest-scoring segments until the target token
// reduction is met or the retain floor is reached. Protected and blank
// segments are never candidates.
type Prune struct{}

func (Prune) Name() string { return NamePrune }

func (Prune) Apply(segs []segment.Segment, idx *pattern.Index, cfg Config) *Result {
	res := &Result{Name: NamePrune, SegmentsIn: len(segs)}

	type candidate struct {
		pos    int
		score  float64
		tokens int
	}
	var candidates []candidate
	totalTokens := 0

	for i, seg := range segs {
		t := token.Estimate(seg.Text)
		totalTokens += t
		if seg.Tag == segment.TagBlank {
			continue
		}
		if isProtected(seg, idx) {
			res.Protected = append(res.Protected, seg)
			continue
		}
		candidates = append(candidates, candidate{pos: i, score: cfg.Scorer.Score(seg, idx), tokens: t})
	}

	// Cheapest segments go first; position breaks ties so the outcome
	// is deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].pos > candidates[j].pos
	})

	targetTokens := int(cfg.TargetReduction * float64(totalTokens))
	minRetain := int(cfg.MinRetainFraction*float64(len(segs)) + 0.999)

	dropped := make(map[int]bool)
	removedTokens := 0
	for _, c := range candidates {
		if removedTokens >= targetTokens {
			break
		}
		if len(segs)-len(dropped) <= minRetain {
			break
		}
		dropped[c.pos] = true
		removedTokens += c.tokens
	}

	for i, seg := range segs {
		if dropped[i] {
			res.Removed = append(res.Removed, Removal{Segment: seg, Reason: ReasonLowValue})
			continue
		}
		res.Retained = append(res.Retained, seg)
	}

	res.SegmentsOut = len(res.Retained)
	res.Text = segment.Join(res.Retained)
	return res
}
