// Package strategy implements the compression strategies and their
// fallback ordering. Every strategy is a pure transformation over
// segments; persistence and quality gating happen in the ops layer.
package strategy

import (
	"github.com/pithworks/pith/internal/pattern"
	"github.com/pithworks/pith/internal/segment"
)

// Strategy names, also the values recorded on sessions.
const (
	NameDedup     = "dedup"
	NamePrune     = "prune"
	NameSummarize = "summarize"
	NameHybrid    = "hybrid"
	NameIdentity  = "identity"
)

// Config carries the tunables a strategy consults. Zero values are not
// usable; callers build it from config.Config.
type Config struct {
	// DedupThreshold is the similarity at or above which two segments
	// are considered duplicates.
	DedupThreshold float64

	// TargetReduction is the fraction of tokens prune tries to remove.
	TargetReduction float64

	// MinRetainFraction is the floor on the fraction of segments prune
	// may not go below.
	MinRetainFraction float64

	// SummarizeMinChars is the minimum segment length eligible for
	// summarization.
	SummarizeMinChars int

	// SummaryExcerptChars bounds the excerpt a summary keeps. Must stay
	// below SummarizeMinChars so summaries are never re-summarized.
	SummaryExcerptChars int

	// Scorer ranks segments for prune.
	Scorer pattern.Scorer
}

// Removal records one dropped segment and why it was dropped.
type Removal struct {
	Segment segment.Segment
	Reason  string
}

// Removal reasons.
const (
	ReasonDuplicate  = "duplicate"
	ReasonLowValue   = "low_value"
	ReasonSummarized = "summarized"
)

// Result is the outcome of applying one strategy.
type Result struct {
	// Name is the strategy that produced this result.
	Name string

	// Text is the compressed output.
	Text string

	// Retained are the surviving segments in original order. Summarize
	// rewrites their text in place.
	Retained []segment.Segment

	// SegmentsIn and SegmentsOut count segments before and after.
	SegmentsIn  int
	SegmentsOut int

	// Removed lists dropped segments with reasons, for learning.
	Removed []Removal

	// Protected lists segments a high-value pattern shielded.
	Protected []segment.Segment
}

// Strategy transforms segments into a compressed result. Implementations
// never mutate the input slice.
type Strategy interface {
	Name() string
	Apply(segs []segment.Segment, idx *pattern.Index, cfg Config) *Result
}

// Chain returns the fallback order for a strategy hint: each attempt is
// strictly more conservative than the one before, ending at identity,
// which always satisfies the quality gate. An empty hint means hybrid.
// ok is false for unknown hints.
func Chain(hint string) ([]Strategy, bool) {
	switch hint {
	case "", NameHybrid:
		return []Strategy{Hybrid{}, Prune{}, Dedup{}, Identity{}}, true
	case NamePrune:
		return []Strategy{Prune{}, Dedup{}, Identity{}}, true
	case NameDedup:
		return []Strategy{Dedup{}, Identity{}}, true
	case NameSummarize:
		return []Strategy{Summarize{}, Identity{}}, true
	default:
		return nil, false
	}
}

// Identity returns the input unchanged. It is the terminal fallback; its
// result always passes the quality gate at ratio 1.0.
type Identity struct{}

func (Identity) Name() string { return NameIdentity }

func (Identity) Apply(segs []segment.Segment, _ *pattern.Index, _ Config) *Result {
	retained := make([]segment.Segment, len(segs))
	copy(retained, segs)
	return &Result{
		Name:        NameIdentity,
		Text:        segment.Join(retained),
		Retained:    retained,
		SegmentsIn:  len(segs),
		SegmentsOut: len(retained),
	}
}

// isProtected reports whether a high-value pattern shields this segment
// from removal.
func isProtected(seg segment.Segment, idx *pattern.Index) bool {
	if idx == nil {
		return false
	}
	return idx.Match(pattern.TypeHighValue, seg.Text) != nil
}
