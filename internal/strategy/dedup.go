package strategy

import (
	"github.com/pithworks/pith/internal/pattern"
	"github.com/pithworks/pith/internal/segment"
	"github.com/pithworks/pith/internal/textsim"
)

// Dedup removes segments that repeat earlier content. Each incoming
// segment is compared against the retained representatives, so a run of
// near-duplicates collapses to one survivor no matter how it is ordered.
type Dedup struct{}

func (Dedup) Name() string { return NameDedup }

func (Dedup) Apply(segs []segment.Segment, idx *pattern.Index, cfg Config) *Result {
	res := &Result{Name: NameDedup, SegmentsIn: len(segs)}

	for _, seg := range segs {
		if isProtected(seg, idx) {
			res.Protected = append(res.Protected, seg)
			res.Retained = append(res.Retained, seg)
			continue
		}
		// Blank segments carry no tokens and separate the survivors.
		if seg.Tag == segment.TagBlank {
			res.Retained = append(res.Retained, seg)
			continue
		}

		rep := matchRetained(res.Retained, seg, cfg.DedupThreshold)
		if rep < 0 {
			res.Retained = append(res.Retained, seg)
			continue
		}

		// The survivor keeps the first position but the better text:
		// higher structural priority wins, then length.
		if betterRepresentative(seg, res.Retained[rep]) {
			res.Removed = append(res.Removed, Removal{Segment: res.Retained[rep], Reason: ReasonDuplicate})
			res.Retained[rep].Text = seg.Text
			res.Retained[rep].Tag = seg.Tag
		} else {
			res.Removed = append(res.Removed, Removal{Segment: seg, Reason: ReasonDuplicate})
		}
	}

	res.SegmentsOut = len(res.Retained)
	res.Text = segment.Join(res.Retained)
	return res
}

// matchRetained returns the index of the first retained non-blank segment
// similar enough to seg, or -1.
func matchRetained(retained []segment.Segment, seg segment.Segment, threshold float64) int {
	for i, r := range retained {
		if r.Tag == segment.TagBlank {
			continue
		}
		if textsim.Similarity(r.Text, seg.Text) >= threshold {
			return i
		}
	}
	return -1
}

func betterRepresentative(candidate, current segment.Segment) bool {
	if candidate.Tag.Priority() != current.Tag.Priority() {
		return candidate.Tag.Priority() > current.Tag.Priority()
	}
	return candidate.Len() > current.Len()
}
