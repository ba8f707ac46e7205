package ops

import (
	"context"

	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/store"
)

// StatsInput contains parameters for the Stats operation.
type StatsInput struct {
	// AgentID names the agent to aggregate. Required.
	AgentID string

	// Timeframe is one of day, week, month, all. Default: all.
	Timeframe string
}

// StatsOutput contains the result of the Stats operation.
type StatsOutput struct {
	AgentID          string  `json:"agent_id"`
	Timeframe        string  `json:"timeframe"`
	Compressions     int64   `json:"compressions"`
	OriginalTokens   int64   `json:"original_tokens"`
	CompressedTokens int64   `json:"compressed_tokens"`
	TokensSaved      int64   `json:"tokens_saved"`
	CostSaved        float64 `json:"cost_saved"`
	AvgRatio         float64 `json:"avg_ratio"`
}

// Stats aggregates an agent's compression totals over a timeframe. An
// agent with no sessions in the window reports zeros and ratio 1.0.
func Stats(ctx context.Context, env *Env, input StatsInput) (*StatsOutput, error) {
	agentID, err := requireAgentID(input.AgentID)
	if err != nil {
		return nil, err
	}
	timeframe := input.Timeframe
	if timeframe == "" {
		timeframe = store.TimeframeAll
	}
	if !validTimeframe(timeframe) {
		return nil, errors.NewInvalidRequest("timeframe must be one of: day, week, month, all")
	}

	agg, err := env.Store.GetStats(ctx, agentID, timeframe)
	if err != nil {
		return nil, err
	}

	return &StatsOutput{
		AgentID:          agg.AgentID,
		Timeframe:        agg.Timeframe,
		Compressions:     agg.Compressions,
		OriginalTokens:   agg.OriginalTokens,
		CompressedTokens: agg.CompressedTokens,
		TokensSaved:      agg.TokensSaved,
		CostSaved:        agg.CostSaved,
		AvgRatio:         agg.AvgRatio,
	}, nil
}
