package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var compressToolDef = mcp.NewTool("context_compress",
	mcp.WithDescription("Compress context text. Removes duplicates, prunes low-value segments, and condenses verbose prose while preserving code, decisions, and learned high-value content."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The context text to compress."),
	),
	mcp.WithString("agent_id",
		mcp.Description("Agent identity for quota, stats, and pattern learning. Omit for an anonymous one-off compression."),
	),
	mcp.WithString("strategy",
		mcp.Description("Strategy hint: dedup, prune, summarize, or hybrid (default). The engine falls back to a more conservative strategy when quality demands it."),
		mcp.Enum("dedup", "prune", "summarize", "hybrid"),
	),
	mcp.WithString("session_id",
		mcp.Description("Optional session id. Omit to have the engine generate one."),
	),
)

var quotaToolDef = mcp.NewTool("context_quota",
	mcp.WithDescription("Report an agent's remaining daily compression allowance. Read-only."),
	mcp.WithString("agent_id",
		mcp.Required(),
		mcp.Description("Agent to report on."),
	),
)

var statsToolDef = mcp.NewTool("context_stats",
	mcp.WithDescription("Aggregate an agent's compression totals: tokens saved, cost saved, average ratio."),
	mcp.WithString("agent_id",
		mcp.Required(),
		mcp.Description("Agent to aggregate."),
	),
	mcp.WithString("timeframe",
		mcp.Description("Window to aggregate over. Default: all."),
		mcp.Enum("day", "week", "month", "all"),
	),
)

var feedbackToolDef = mcp.NewTool("context_feedback",
	mcp.WithDescription("Judge a past compression. Feedback shifts the importance of the patterns that session removed or protected."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session returned by context_compress."),
	),
	mcp.WithString("type",
		mcp.Required(),
		mcp.Description("positive if the compression kept what mattered, negative if it lost something."),
		mcp.Enum("positive", "negative"),
	),
	mcp.WithNumber("score",
		mcp.Description("Optional quality score in [0, 1]. Defaults to 1 for positive and 0 for negative."),
	),
	mcp.WithString("notes",
		mcp.Description("Optional free-text notes."),
	),
)

var setTierToolDef = mcp.NewTool("context_set_tier",
	mcp.WithDescription("Change an agent's subscription tier or daily limit. Pro means unlimited."),
	mcp.WithString("agent_id",
		mcp.Required(),
		mcp.Description("Agent to update."),
	),
	mcp.WithString("tier",
		mcp.Description("Target tier."),
		mcp.Enum("free", "pro"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Override the daily allowance. Negative means unlimited."),
	),
	mcp.WithString("paid_until",
		mcp.Description("RFC 3339 timestamp when the paid subscription lapses."),
	),
)
