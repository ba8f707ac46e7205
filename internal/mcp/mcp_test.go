package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pithworks/pith/internal/config"
	"github.com/pithworks/pith/internal/db"
	"github.com/pithworks/pith/internal/ops"
	"github.com/pithworks/pith/internal/store"
)

// testHandlers creates handlers over a temporary database.
func testHandlers(t *testing.T) *Handlers {
	t.Helper()

	cfg := config.DefaultConfig()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	st := store.NewSQLite(database, cfg.FreeDailyLimit)
	t.Cleanup(func() { _ = st.Close() })

	return NewHandlers(ops.NewEnv(st, cfg, nil))
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

func TestHandleCompressRoundTrip(t *testing.T) {
	h := testHandlers(t)

	para := "The same sentence shows up in the context over and over again.\n"
	res, err := h.HandleCompress(context.Background(), makeRequest(map[string]any{
		"text":     para + "\n" + para + "\n" + para,
		"agent_id": "agent-1",
		"strategy": "dedup",
	}))
	if err != nil {
		t.Fatalf("HandleCompress: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	var out ops.CompressOutput
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.SessionID == "" || out.Strategy != "dedup" {
		t.Errorf("output: %+v", out)
	}
	if out.CompressedTokens >= out.OriginalTokens {
		t.Errorf("no reduction: %d >= %d", out.CompressedTokens, out.OriginalTokens)
	}
}

func TestHandleCompressMissingText(t *testing.T) {
	h := testHandlers(t)

	res, err := h.HandleCompress(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned transport error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(t, res), "INVALID_REQUEST") {
		t.Errorf("error payload: %s", resultText(t, res))
	}
}

func TestHandleQuota(t *testing.T) {
	h := testHandlers(t)

	res, err := h.HandleQuota(context.Background(), makeRequest(map[string]any{
		"agent_id": "agent-1",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var out ops.QuotaOutput
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Tier != "free" || out.Remaining != 100 {
		t.Errorf("quota: %+v", out)
	}
}

func TestHandleFeedbackUnknownSession(t *testing.T) {
	h := testHandlers(t)

	res, err := h.HandleFeedback(context.Background(), makeRequest(map[string]any{
		"session_id": "nope",
		"type":       "positive",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "UNKNOWN_SESSION") {
		t.Errorf("payload: %s", resultText(t, res))
	}
}

func TestHandleSetTierParsesPaidUntil(t *testing.T) {
	h := testHandlers(t)

	res, err := h.HandleSetTier(context.Background(), makeRequest(map[string]any{
		"agent_id":   "payer",
		"tier":       "pro",
		"paid_until": "2027-01-01T00:00:00Z",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var out ops.SetTierOutput
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Tier != "pro" || out.Limit != -1 || out.PaidUntil == nil {
		t.Errorf("output: %+v", out)
	}
}

func TestHandleSetTierRejectsBadTimestamp(t *testing.T) {
	h := testHandlers(t)

	res, err := h.HandleSetTier(context.Background(), makeRequest(map[string]any{
		"agent_id":   "payer",
		"paid_until": "next tuesday",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
}

func TestDecodeRejectsWrongTypes(t *testing.T) {
	req := makeRequest(map[string]any{"text": 42})
	if _, err := decode[CompressRequest](req); err == nil {
		t.Error("expected decode error for non-string text")
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"context_compress", "context_explode"})
	if len(unknown) != 1 || unknown[0] != "context_explode" {
		t.Errorf("unknown = %v", unknown)
	}
}

func TestNewServerSkipsDisabledTools(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"context_set_tier"}
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewSQLite(database, cfg.FreeDailyLimit)
	t.Cleanup(func() { _ = st.Close() })

	s := NewServer(ops.NewEnv(st, cfg, nil), "test")
	if s == nil {
		t.Fatal("nil server")
	}
}
