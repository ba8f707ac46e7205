package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/store"
)

// TestFullWorkflow exercises the complete engine lifecycle:
// compress → quota → feedback → stats → tier upgrade → compress again
func TestFullWorkflow(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	agent := "workflow-agent"

	para := "The same heartbeat log line appears at the top of every captured window.\n"
	text := para + "\n" + para + "\n" + para

	// 1. Compress
	compressed, err := Compress(ctx, env, CompressInput{Text: text, AgentID: agent})
	require.NoError(t, err)
	require.NotEmpty(t, compressed.SessionID)
	require.LessOrEqual(t, compressed.CompressedTokens, compressed.OriginalTokens)
	require.GreaterOrEqual(t, compressed.QualityScore, env.Cfg.QualityThreshold)

	// 2. Quota reflects the consumed request
	quota, err := Quota(ctx, env, QuotaInput{AgentID: agent})
	require.NoError(t, err)
	require.Equal(t, 1, quota.UsedToday)
	require.Equal(t, 99, quota.Remaining)

	// 3. Feedback on the session
	fb, err := Feedback(ctx, env, FeedbackInput{
		SessionID: compressed.SessionID,
		Type:      FeedbackPositive,
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, fb.Score)

	// 4. Stats aggregate the session
	stats, err := Stats(ctx, env, StatsInput{AgentID: agent, Timeframe: store.TimeframeDay})
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Compressions)
	require.Equal(t, int64(compressed.TokensSaved), stats.TokensSaved)

	// 5. Upgrade to pro
	pro := store.TierPro
	tier, err := SetTier(ctx, env, SetTierInput{AgentID: agent, Tier: &pro})
	require.NoError(t, err)
	require.Equal(t, store.TierPro, tier.Tier)
	require.Equal(t, store.UnlimitedLimit, tier.Limit)

	// 6. Compression after the upgrade reports no remaining counter
	compressed, err = Compress(ctx, env, CompressInput{Text: text, AgentID: agent})
	require.NoError(t, err)
	require.Nil(t, compressed.QuotaRemaining)

	// 7. Feedback against a session that never existed still 404s
	_, err = Feedback(ctx, env, FeedbackInput{SessionID: "no-such-session", Type: FeedbackNegative})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUnknownSession))
}
