package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// CompressRequest represents the arguments for context_compress.
type CompressRequest struct {
	Text      string `json:"text"`
	AgentID   string `json:"agent_id,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// QuotaRequest represents the arguments for context_quota.
type QuotaRequest struct {
	AgentID string `json:"agent_id"`
}

// StatsRequest represents the arguments for context_stats.
type StatsRequest struct {
	AgentID   string `json:"agent_id"`
	Timeframe string `json:"timeframe,omitempty"`
}

// FeedbackRequest represents the arguments for context_feedback.
type FeedbackRequest struct {
	SessionID string   `json:"session_id"`
	Type      string   `json:"type"`
	Score     *float64 `json:"score,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// SetTierRequest represents the arguments for context_set_tier.
type SetTierRequest struct {
	AgentID   string  `json:"agent_id"`
	Tier      *string `json:"tier,omitempty"`
	Limit     *int    `json:"limit,omitempty"`
	PaidUntil *string `json:"paid_until,omitempty"`
}

// HandleCompress handles the context_compress tool call.
func (h *Handlers) HandleCompress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CompressRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Compress(ctx, h.env, ops.CompressInput{
		Text:      input.Text,
		AgentID:   input.AgentID,
		Strategy:  input.Strategy,
		SessionID: input.SessionID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleQuota handles the context_quota tool call.
func (h *Handlers) HandleQuota(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuotaRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Quota(ctx, h.env, ops.QuotaInput{AgentID: input.AgentID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStats handles the context_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StatsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Stats(ctx, h.env, ops.StatsInput{
		AgentID:   input.AgentID,
		Timeframe: input.Timeframe,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFeedback handles the context_feedback tool call.
func (h *Handlers) HandleFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FeedbackRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Feedback(ctx, h.env, ops.FeedbackInput{
		SessionID: input.SessionID,
		Type:      input.Type,
		Score:     input.Score,
		Notes:     input.Notes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSetTier handles the context_set_tier tool call.
func (h *Handlers) HandleSetTier(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetTierRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var paidUntil *time.Time
	if input.PaidUntil != nil {
		t, err := time.Parse(time.RFC3339, *input.PaidUntil)
		if err != nil {
			return errorResult(errors.NewInvalidRequest("paid_until must be an RFC 3339 timestamp")), nil
		}
		paidUntil = &t
	}

	result, err := ops.SetTier(ctx, h.env, ops.SetTierInput{
		AgentID:   input.AgentID,
		Tier:      input.Tier,
		Limit:     input.Limit,
		PaidUntil: paidUntil,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if pErr, ok := err.(*errors.PithError); ok {
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": pErr.Message,
			"status":  pErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if pErr.Code != errors.ErrInternal && pErr.Code != errors.ErrStorageUnavailable && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
