package ops

import (
	"context"

	"github.com/pithworks/pith/internal/store"
)

// QuotaInput contains parameters for the Quota operation.
type QuotaInput struct {
	// AgentID names the agent to report on. Required.
	AgentID string
}

// QuotaOutput contains the result of the Quota operation.
type QuotaOutput struct {
	AgentID   string `json:"agent_id"`
	Tier      string `json:"tier"`
	Available bool   `json:"available"`
	Limit     int    `json:"limit"` // -1 means unlimited
	UsedToday int    `json:"used_today"`
	Remaining int    `json:"remaining"` // -1 means unlimited
	ResetDate string `json:"reset_date"`
}

// Quota reports an agent's current allowance without consuming anything
// or writing any state. Agents never seen before get the free-tier view.
func Quota(ctx context.Context, env *Env, input QuotaInput) (*QuotaOutput, error) {
	agentID, err := requireAgentID(input.AgentID)
	if err != nil {
		return nil, err
	}

	q, err := env.Store.PeekQuota(ctx, agentID)
	if err != nil {
		return nil, err
	}

	remaining := store.UnlimitedLimit
	if q.Tier != store.TierPro && q.Limit >= 0 {
		remaining = q.Limit - q.UsedToday
		if remaining < 0 {
			remaining = 0
		}
	}

	return &QuotaOutput{
		AgentID:   q.AgentID,
		Tier:      q.Tier,
		Available: remaining != 0,
		Limit:     q.Limit,
		UsedToday: q.UsedToday,
		Remaining: remaining,
		ResetDate: q.ResetDate,
	}, nil
}
