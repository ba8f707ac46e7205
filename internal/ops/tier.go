package ops

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/store"
)

// SetTierInput contains parameters for the SetTier operation. All fields
// except AgentID are optional, but at least one must be set.
type SetTierInput struct {
	// AgentID names the agent to update. Required.
	AgentID string

	// Tier moves the agent between free and pro. Pro implies an
	// unlimited daily allowance unless Limit is also given.
	Tier *string

	// Limit overrides the daily allowance. Negative means unlimited.
	Limit *int

	// PaidUntil records when a paid subscription lapses.
	PaidUntil *time.Time
}

// SetTierOutput contains the updated quota state.
type SetTierOutput struct {
	AgentID   string     `json:"agent_id"`
	Tier      string     `json:"tier"`
	Limit     int        `json:"limit"`
	UsedToday int        `json:"used_today"`
	ResetDate string     `json:"reset_date"`
	PaidUntil *time.Time `json:"paid_until,omitempty"`
}

// SetTier applies a partial quota mutation. A request that names no field
// to change is rejected before any write.
func SetTier(ctx context.Context, env *Env, input SetTierInput) (*SetTierOutput, error) {
	agentID, err := requireAgentID(input.AgentID)
	if err != nil {
		return nil, err
	}

	upd := store.QuotaUpdate{Tier: input.Tier, Limit: input.Limit, PaidUntil: input.PaidUntil}
	if upd.IsEmpty() {
		return nil, errors.NewInvalidUpdate("nothing to update: provide tier, limit, or paid_until")
	}

	q, err := env.Store.UpdateQuota(ctx, agentID, upd)
	if err != nil {
		return nil, err
	}

	env.Log.Info("quota updated",
		zap.String("agent_id", agentID),
		zap.String("tier", q.Tier),
		zap.Int("limit", q.Limit),
	)

	return &SetTierOutput{
		AgentID:   q.AgentID,
		Tier:      q.Tier,
		Limit:     q.Limit,
		UsedToday: q.UsedToday,
		ResetDate: q.ResetDate,
		PaidUntil: q.PaidUntil,
	}, nil
}
