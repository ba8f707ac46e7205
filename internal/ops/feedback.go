package ops

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/store"
)

// Feedback types.
const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

// FeedbackInput contains parameters for the Feedback operation.
type FeedbackInput struct {
	// SessionID names the compression being judged. Required.
	SessionID string

	// Type is "positive" or "negative". Required.
	Type string

	// Score is an optional quality score in [0, 1]. Defaults to 1.0 for
	// positive and 0.0 for negative feedback.
	Score *float64

	// Notes is optional free text.
	Notes string
}

// FeedbackOutput contains the result of the Feedback operation.
type FeedbackOutput struct {
	SessionID        string  `json:"session_id"`
	Score            float64 `json:"score"`
	PatternsAdjusted int     `json:"patterns_adjusted"`
}

// Feedback records a quality judgment on a past session and adjusts the
// importance of every pattern that session touched.
func Feedback(ctx context.Context, env *Env, input FeedbackInput) (*FeedbackOutput, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	if input.Type != FeedbackPositive && input.Type != FeedbackNegative {
		return nil, errors.NewInvalidRequest("type must be one of: positive, negative")
	}

	score := 1.0
	if input.Type == FeedbackNegative {
		score = 0.0
	}
	if input.Score != nil {
		if *input.Score < 0 || *input.Score > 1 {
			return nil, errors.NewInvalidRequest("score must be between 0 and 1")
		}
		score = *input.Score
	}

	sess, err := env.Store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := env.Store.RecordFeedback(ctx, &store.Feedback{
		SessionID: sessionID,
		Type:      input.Type,
		Score:     score,
		Notes:     strings.TrimSpace(input.Notes),
	}); err != nil {
		return nil, err
	}

	// Anonymous sessions have no learned patterns to adjust.
	adjusted := 0
	if sess.AgentID != "" {
		adjusted, err = env.learner().ApplyFeedback(ctx, sessionID, score)
		if err != nil {
			return nil, err
		}
	}

	env.Log.Info("feedback recorded",
		zap.String("session_id", sessionID),
		zap.String("type", input.Type),
		zap.Int("patterns_adjusted", adjusted),
	)

	return &FeedbackOutput{
		SessionID:        sessionID,
		Score:            score,
		PatternsAdjusted: adjusted,
	}, nil
}
