package strategy

import (
	"github.com/pithworks/pith/internal/pattern"
	"github.com/pithworks/pith/internal/segment"
)

// Hybrid chains dedup, prune, and summarize, each stage consuming the
// previous stage's survivors. Removals from every stage are carried so
// the learner sees them all.
type Hybrid struct{}

func (Hybrid) Name() string { return NameHybrid }

func (Hybrid) Apply(segs []segment.Segment, idx *pattern.Index, cfg Config) *Result {
	res := &Result{Name: NameHybrid, SegmentsIn: len(segs)}

	current := segs
	protected := make(map[int]segment.Segment)

	for _, stage := range []Strategy{Dedup{}, Prune{}, Summarize{}} {
		stageRes := stage.Apply(current, idx, cfg)
		res.Removed = append(res.Removed, stageRes.Removed...)
		for _, p := range stageRes.Protected {
			protected[p.Start] = p
		}
		current = stageRes.Retained
	}

	for _, p := range protected {
		res.Protected = append(res.Protected, p)
	}
	res.Retained = current
	res.SegmentsOut = len(current)
	res.Text = segment.Join(current)
	return res
}
