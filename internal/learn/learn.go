// Package learn turns compression outcomes and caller feedback into the
// pattern store. Removed segments become removal candidates for future
// runs; protected segments reinforce what must be kept.
package learn

import (
	"context"

	"github.com/pithworks/pith/internal/pattern"
	"github.com/pithworks/pith/internal/segment"
	"github.com/pithworks/pith/internal/store"
	"github.com/pithworks/pith/internal/strategy"
	"github.com/pithworks/pith/internal/token"
)

// Starting importance for newly observed patterns. Feedback moves them
// from here.
const (
	removedImportance   = 0.5
	protectedImportance = 0.8
)

// Learner persists pattern observations and applies feedback adjustments.
type Learner struct {
	store        store.Store
	learningRate float64
}

// New creates a learner. learningRate scales how far one piece of
// feedback moves importance.
func New(st store.Store, learningRate float64) *Learner {
	return &Learner{store: st, learningRate: learningRate}
}

// Observe records the patterns a compression produced: removed segments
// by their removal reason, protected segments as high-value. The session
// is linked to every pattern so feedback can be attributed later.
func (l *Learner) Observe(ctx context.Context, agentID, sessionID string, res *strategy.Result) error {
	var links []store.PatternLink

	for _, rm := range res.Removed {
		typ, ok := typeForReason(rm.Reason)
		if !ok || rm.Segment.Tag == segment.TagBlank {
			continue
		}
		p, err := l.store.UpsertPattern(ctx, &pattern.Pattern{
			AgentID:     agentID,
			Type:        typ,
			Text:        rm.Segment.Text,
			TokenImpact: token.Estimate(rm.Segment.Text),
			Importance:  removedImportance,
		})
		if err != nil {
			return err
		}
		links = append(links, store.PatternLink{PatternID: p.ID, Role: store.RoleRemoved})
	}

	for _, seg := range res.Protected {
		p, err := l.store.UpsertPattern(ctx, &pattern.Pattern{
			AgentID:     agentID,
			Type:        pattern.TypeHighValue,
			Text:        seg.Text,
			TokenImpact: token.Estimate(seg.Text),
			Importance:  protectedImportance,
		})
		if err != nil {
			return err
		}
		links = append(links, store.PatternLink{PatternID: p.ID, Role: store.RoleProtected})
	}

	return l.store.LinkSessionPatterns(ctx, sessionID, links)
}

// typeForReason maps a removal reason to the pattern type it teaches.
func typeForReason(reason string) (pattern.Type, bool) {
	switch reason {
	case strategy.ReasonDuplicate:
		return pattern.TypeRedundant, true
	case strategy.ReasonLowValue, strategy.ReasonSummarized:
		return pattern.TypeBoilerplate, true
	default:
		return "", false
	}
}

// ApplyFeedback adjusts importance for every pattern the session touched
// and returns how many were adjusted. A score above 0.5 endorses the
// compression: protected patterns gain importance and removed patterns
// lose it. A score below 0.5 reverses both directions.
func (l *Learner) ApplyFeedback(ctx context.Context, sessionID string, score float64) (int, error) {
	links, err := l.store.GetSessionPatterns(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	delta := (score - 0.5) * 2 * l.learningRate
	for _, link := range links {
		d := delta
		if link.Role == store.RoleRemoved {
			d = -delta
		}
		if err := l.store.AdjustImportance(ctx, link.PatternID, d); err != nil {
			return 0, err
		}
	}
	return len(links), nil
}
