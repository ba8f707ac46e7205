package ops

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/metrics"
	"github.com/pithworks/pith/internal/pattern"
	"github.com/pithworks/pith/internal/quality"
	"github.com/pithworks/pith/internal/segment"
	"github.com/pithworks/pith/internal/store"
	"github.com/pithworks/pith/internal/strategy"
	"github.com/pithworks/pith/internal/token"
)

// CompressInput contains parameters for the Compress operation.
type CompressInput struct {
	// Text is the context to compress. Required.
	Text string

	// AgentID attributes the session for quota, stats, and learning.
	// Empty means anonymous: no quota is consumed and nothing is learned.
	AgentID string

	// Strategy is an optional hint. Empty means hybrid. The engine may
	// fall back to a more conservative strategy if quality demands it.
	Strategy string

	// SessionID optionally names the session. Empty means the engine
	// generates a ULID. Duplicate ids are rejected.
	SessionID string
}

// CompressOutput contains the result of the Compress operation.
type CompressOutput struct {
	SessionID        string  `json:"session_id"`
	Text             string  `json:"text"`
	Strategy         string  `json:"strategy"`
	OriginalTokens   int     `json:"original_tokens"`
	CompressedTokens int     `json:"compressed_tokens"`
	TokensSaved      int     `json:"tokens_saved"`
	Ratio            float64 `json:"ratio"`
	CostSaved        float64 `json:"cost_saved"`
	QualityScore     float64 `json:"quality_score"`
	SegmentsIn       int     `json:"segments_in"`
	SegmentsOut      int     `json:"segments_out"`
	QuotaRemaining   *int    `json:"quota_remaining,omitempty"`
}

// Compress runs the strategy chain over the input until a result clears
// the quality gate, records the session, and feeds the learner.
func Compress(ctx context.Context, env *Env, input CompressInput) (*CompressOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}
	chain, ok := strategy.Chain(input.Strategy)
	if !ok {
		return nil, errors.NewInvalidRequest("strategy must be one of: dedup, prune, summarize, hybrid")
	}
	agentID := strings.TrimSpace(input.AgentID)

	var quotaRemaining *int
	if agentID != "" {
		consume, err := env.Store.AtomicConsumeQuota(ctx, agentID)
		if err != nil {
			return nil, err
		}
		if !consume.Admitted {
			metrics.QuotaRejections.Inc()
			return nil, errors.NewQuotaExceeded(agentID, consume.Tier, consume.Limit)
		}
		if consume.Remaining != store.UnlimitedLimit {
			quotaRemaining = &consume.Remaining
		}
	}

	var idx *pattern.Index
	if agentID != "" {
		ps, err := env.Store.GetPatterns(ctx, agentID, "")
		if err != nil {
			return nil, err
		}
		idx = pattern.NewIndex(ps)
	}

	segs := segment.Split(input.Text)
	cfg := strategy.Config{
		DedupThreshold:      env.Cfg.DedupThreshold,
		TargetReduction:     env.Cfg.TargetReduction,
		MinRetainFraction:   env.Cfg.MinRetainFraction,
		SummarizeMinChars:   env.Cfg.SummarizeMinChars,
		SummaryExcerptChars: env.Cfg.SummaryExcerptChars,
		Scorer:              pattern.HeuristicScorer{},
	}

	origTokens := token.Estimate(input.Text)
	result, score, fellBack := runChain(segs, idx, cfg, chain, input.Text, origTokens, env.Cfg.QualityThreshold)

	compTokens := token.Estimate(result.Text)
	saved := origTokens - compTokens
	if saved < 0 {
		saved = 0
	}
	costSaved := token.CostSaved(saved, env.Cfg.CostPer1KTokens)

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		var err error
		sessionID, err = newSessionID()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	sess := &store.Session{
		ID:               sessionID,
		AgentID:          agentID,
		OriginalTokens:   origTokens,
		CompressedTokens: compTokens,
		Ratio:            token.Ratio(origTokens, compTokens),
		TokensSaved:      saved,
		CostSaved:        costSaved,
		Strategy:         result.Name,
		QualityScore:     score,
	}
	if env.Cfg.KeepSnapshots {
		orig, comp := input.Text, result.Text
		sess.OriginalText = &orig
		sess.CompressedText = &comp
	}
	if err := env.Store.RecordSession(ctx, sess); err != nil {
		return nil, err
	}

	if agentID != "" {
		// Learning is best-effort; a failed observation must not void a
		// compression that already happened.
		if err := env.learner().Observe(ctx, agentID, sessionID, result); err != nil {
			env.Log.Warn("pattern observation failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	outcome := metrics.OutcomeOK
	if fellBack {
		outcome = metrics.OutcomeFallback
	}
	metrics.Compressions.WithLabelValues(result.Name, outcome).Inc()
	metrics.TokensSaved.Add(float64(saved))
	metrics.QualityScore.Observe(score)

	env.Log.Info("compressed",
		zap.String("session_id", sessionID),
		zap.String("strategy", result.Name),
		zap.Int("original_tokens", origTokens),
		zap.Int("compressed_tokens", compTokens),
		zap.Float64("quality", score),
	)

	return &CompressOutput{
		SessionID:        sessionID,
		Text:             result.Text,
		Strategy:         result.Name,
		OriginalTokens:   origTokens,
		CompressedTokens: compTokens,
		TokensSaved:      saved,
		Ratio:            sess.Ratio,
		CostSaved:        costSaved,
		QualityScore:     score,
		SegmentsIn:       result.SegmentsIn,
		SegmentsOut:      result.SegmentsOut,
		QuotaRemaining:   quotaRemaining,
	}, nil
}

// runChain applies strategies in order and returns the first result that
// clears the quality gate without growing the text. The chain ends in
// identity, which always qualifies, so a result is guaranteed.
func runChain(segs []segment.Segment, idx *pattern.Index, cfg strategy.Config,
	chain []strategy.Strategy, original string, origTokens int, threshold float64) (*strategy.Result, float64, bool) {

	for i, strat := range chain {
		res := strat.Apply(segs, idx, cfg)
		score := quality.Evaluate(original, res)
		if score < threshold {
			continue
		}
		if token.Estimate(res.Text) > origTokens {
			continue
		}
		return res, score, i > 0
	}

	// unreachable when the chain ends in identity
	res := strategy.Identity{}.Apply(segs, idx, cfg)
	return res, quality.Evaluate(original, res), true
}

// newSessionID generates a ULID session id.
func newSessionID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
