// Package pattern defines learned text patterns and the scoring hooks that
// guide pruning and deduplication decisions. Patterns are per-agent, never
// global, and never deleted; decay is a read-time policy.
package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pithworks/pith/internal/segment"
	"github.com/pithworks/pith/internal/textsim"
)

// Type classifies a pattern's learned significance.
type Type string

const (
	TypeRedundant   Type = "redundant"
	TypeHighValue   Type = "high_value"
	TypeBoilerplate Type = "boilerplate"
)

// KnownTypes lists all valid pattern types.
var KnownTypes = []Type{TypeRedundant, TypeHighValue, TypeBoilerplate}

// Pattern is a recurring text fragment with learned significance.
type Pattern struct {
	// ID is derived deterministically from agent + type + text so repeat
	// observations upsert rather than duplicate.
	ID string `json:"id"`

	// AgentID scopes the pattern to one agent.
	AgentID string `json:"agent_id"`

	// Type is the learned significance class.
	Type Type `json:"type"`

	// Text is the pattern fragment.
	Text string `json:"text"`

	// Frequency counts observations; incremented atomically on upsert.
	Frequency int `json:"frequency"`

	// TokenImpact is the tokens this pattern typically contributes/saves.
	// Last-write-wins on re-observation.
	TokenImpact int `json:"token_impact"`

	// Importance is the learned score in [0, 1]. Last-write-wins on
	// re-observation; feedback is the only other write path.
	Importance float64 `json:"importance"`

	// LastSeen is the Unix timestamp of the latest observation.
	LastSeen int64 `json:"last_seen"`
}

// DeriveID computes the deterministic pattern id for (agent, type, text).
// Text is normalized (trimmed, case-folded, whitespace-collapsed) first so
// trivially re-formatted repeats collapse to the same row.
func DeriveID(agentID string, typ Type, text string) string {
	h := sha256.New()
	h.Write([]byte(agentID))
	h.Write([]byte{0})
	h.Write([]byte(typ))
	h.Write([]byte{0})
	h.Write([]byte(normalize(text)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// normalize lowercases, trims, and collapses internal whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matchThreshold is the similarity above which a segment counts as an
// observation of a stored pattern.
const matchThreshold = 0.85

// Index is a read-side view over an agent's patterns, grouped by type.
type Index struct {
	byType map[Type][]*Pattern
}

// NewIndex builds an index over the given patterns. The slice is expected in
// storage order (importance desc, frequency desc); matching preserves it.
func NewIndex(patterns []*Pattern) *Index {
	idx := &Index{byType: make(map[Type][]*Pattern)}
	for _, p := range patterns {
		idx.byType[p.Type] = append(idx.byType[p.Type], p)
	}
	return idx
}

// Match returns the first pattern of the given type similar to the segment
// text, or nil. First match wins, so higher-importance patterns dominate.
func (idx *Index) Match(typ Type, text string) *Pattern {
	if idx == nil {
		return nil
	}
	for _, p := range idx.byType[typ] {
		if textsim.Similarity(p.Text, text) >= matchThreshold {
			return p
		}
	}
	return nil
}

// Scorer assigns a pruning importance score in [0, 1] to a segment.
// The production scorer blends structural heuristics with pattern lookups;
// tests substitute deterministic implementations.
type Scorer interface {
	Score(seg segment.Segment, idx *Index) float64
}

// HeuristicScorer is the default Scorer: a structural base score adjusted by
// learned pattern matches. Segments matching a high_value pattern score 1.0
// and are never pruned; redundant/boilerplate matches are pushed down in
// proportion to the pattern's importance.
type HeuristicScorer struct{}

// Score implements Scorer.
func (HeuristicScorer) Score(seg segment.Segment, idx *Index) float64 {
	if idx.Match(TypeHighValue, seg.Text) != nil {
		return 1.0
	}

	score := baseScore(seg.Tag)
	if p := idx.Match(TypeRedundant, seg.Text); p != nil {
		score *= 1.0 - 0.8*p.Importance
	}
	if p := idx.Match(TypeBoilerplate, seg.Text); p != nil {
		score *= 1.0 - 0.8*p.Importance
	}
	return score
}

// baseScore maps structural tags to a default importance.
func baseScore(tag segment.Tag) float64 {
	switch tag {
	case segment.TagCode:
		return 0.75
	case segment.TagHeading:
		return 0.85
	case segment.TagList:
		return 0.55
	case segment.TagProse:
		return 0.45
	default: // blank
		return 0.05
	}
}

// FixedScorer returns the same score for every segment. Test hook.
type FixedScorer float64

// Score implements Scorer.
func (f FixedScorer) Score(segment.Segment, *Index) float64 {
	return float64(f)
}
