// Package store owns all persisted engine state: sessions, patterns, daily
// token stats, and quotas. The engine itself is stateless between calls;
// everything cross-request round-trips through this interface.
package store

import (
	"context"
	"time"

	"github.com/pithworks/pith/internal/pattern"
)

// Subscription tiers.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// UnlimitedLimit is the sentinel compression limit for the pro tier.
const UnlimitedLimit = -1

// Timeframes accepted by GetStats.
const (
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeAll   = "all"
)

// Session records one compression invocation. Immutable once recorded.
type Session struct {
	ID               string  `json:"id"`
	AgentID          string  `json:"agent_id,omitempty"` // empty = anonymous
	OriginalTokens   int     `json:"original_tokens"`
	CompressedTokens int     `json:"compressed_tokens"`
	Ratio            float64 `json:"ratio"`
	TokensSaved      int     `json:"tokens_saved"`
	CostSaved        float64 `json:"cost_saved"`
	Strategy         string  `json:"strategy"`
	QualityScore     float64 `json:"quality_score"`
	OriginalText     *string `json:"original_text,omitempty"`
	CompressedText   *string `json:"compressed_text,omitempty"`
	CreatedAt        int64   `json:"created_at"`
}

// StatsAggregate is the per-agent aggregate over a timeframe window.
// AvgRatio is a ratio of running totals, not an average of session ratios.
type StatsAggregate struct {
	AgentID          string  `json:"agent_id"`
	Timeframe        string  `json:"timeframe"`
	OriginalTokens   int64   `json:"original_tokens"`
	CompressedTokens int64   `json:"compressed_tokens"`
	TokensSaved      int64   `json:"tokens_saved"`
	CostSaved        float64 `json:"cost_saved"`
	Compressions     int64   `json:"compressions"`
	AvgRatio         float64 `json:"avg_ratio"`
}

// Quota is an agent's tier and daily allowance state.
type Quota struct {
	AgentID   string     `json:"agent_id"`
	Tier      string     `json:"tier"`
	Limit     int        `json:"limit"` // UnlimitedLimit for pro
	UsedToday int        `json:"used_today"`
	ResetDate string     `json:"reset_date"` // YYYY-MM-DD of last reset
	PaidUntil *time.Time `json:"paid_until,omitempty"`
	UpdatedAt int64      `json:"updated_at"`
}

// ConsumeResult is the outcome of an atomic quota check-and-increment.
type ConsumeResult struct {
	Admitted  bool   `json:"admitted"`
	Remaining int    `json:"remaining"` // -1 when unlimited
	Limit     int    `json:"limit"`
	Tier      string `json:"tier"`
}

// QuotaUpdate is a partial quota mutation. Nil fields are left unchanged;
// at least one field must be set or the update is rejected before any write.
type QuotaUpdate struct {
	Tier      *string    `json:"tier,omitempty"`
	Limit     *int       `json:"limit,omitempty"`
	PaidUntil *time.Time `json:"paid_until,omitempty"`
}

// IsEmpty reports whether no field is set.
func (u QuotaUpdate) IsEmpty() bool {
	return u.Tier == nil && u.Limit == nil && u.PaidUntil == nil
}

// PatternLink associates a session with a pattern it produced or protected.
type PatternLink struct {
	PatternID string `json:"pattern_id"`
	Role      string `json:"role"` // "removed" or "protected"
}

// Pattern link roles.
const (
	RoleRemoved   = "removed"
	RoleProtected = "protected"
)

// Feedback is a caller-supplied quality judgment on a past session.
type Feedback struct {
	SessionID string  `json:"session_id"`
	Type      string  `json:"type"` // "positive" or "negative"
	Score     float64 `json:"score"`
	Notes     string  `json:"notes,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// Store is the persistence contract the engine consumes. Implementations
// must make quota consumption and stats aggregation atomic with respect to
// concurrent requests for the same agent.
type Store interface {
	// RecordSession persists a session exactly once and folds its deltas
	// into the per-day token stats in the same transaction.
	RecordSession(ctx context.Context, s *Session) error

	// GetSession returns a recorded session or ErrUnknownSession.
	GetSession(ctx context.Context, id string) (*Session, error)

	// GetStats aggregates token stats for an agent over a timeframe.
	GetStats(ctx context.Context, agentID, timeframe string) (*StatsAggregate, error)

	// UpsertPattern inserts a pattern or merges a repeat observation:
	// frequency increments by one, importance/impact are replaced.
	// Returns the committed record.
	UpsertPattern(ctx context.Context, p *pattern.Pattern) (*pattern.Pattern, error)

	// GetPatterns returns an agent's patterns ordered by importance desc,
	// frequency desc. An empty typeFilter returns all types.
	GetPatterns(ctx context.Context, agentID string, typeFilter pattern.Type) ([]*pattern.Pattern, error)

	// AdjustImportance shifts a pattern's importance by delta, clamped to
	// [0, 1]. This is the feedback write path.
	AdjustImportance(ctx context.Context, patternID string, delta float64) error

	// LinkSessionPatterns records which patterns a session removed or
	// protected, for later feedback attribution.
	LinkSessionPatterns(ctx context.Context, sessionID string, links []PatternLink) error

	// GetSessionPatterns returns the pattern links for a session.
	GetSessionPatterns(ctx context.Context, sessionID string) ([]PatternLink, error)

	// GetOrInitQuota returns the agent's quota, lazily creating it with
	// free-tier defaults and applying any pending daily reset.
	GetOrInitQuota(ctx context.Context, agentID string) (*Quota, error)

	// PeekQuota is the read-only view used by checkQuota: unseen agents
	// and pending resets are reported without writing anything.
	PeekQuota(ctx context.Context, agentID string) (*Quota, error)

	// AtomicConsumeQuota performs the check-and-increment as one atomic
	// unit: lazily initializes, resets on day rollover, then admits and
	// increments only if under the limit (or pro).
	AtomicConsumeQuota(ctx context.Context, agentID string) (*ConsumeResult, error)

	// UpdateQuota applies a partial quota mutation. Setting tier to pro
	// forces the unlimited limit sentinel.
	UpdateQuota(ctx context.Context, agentID string, upd QuotaUpdate) (*Quota, error)

	// RecordFeedback appends a feedback row for a session.
	RecordFeedback(ctx context.Context, fb *Feedback) error

	// Close releases resources held by the store.
	Close() error
}
