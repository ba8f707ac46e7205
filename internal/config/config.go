package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// QualityThreshold is the minimum quality score for a compression result
	// to be accepted before falling back to a less aggressive strategy.
	QualityThreshold float64 `json:"quality_threshold"`

	// DedupThreshold is the similarity above which two segments are
	// considered duplicates.
	DedupThreshold float64 `json:"dedup_threshold"`

	// TargetReduction is the fraction of tokens the pruner tries to remove.
	TargetReduction float64 `json:"target_reduction"`

	// MinRetainFraction is the floor of segments the pruner must keep.
	// The default protects at least the highest-scoring quartile.
	MinRetainFraction float64 `json:"min_retain_fraction"`

	// SummarizeMinChars is the segment length threshold above which the
	// summarizer condenses content.
	SummarizeMinChars int `json:"summarize_min_chars"`

	// SummaryExcerptChars bounds the excerpt kept by the summarizer.
	// Must stay below SummarizeMinChars so summarization is idempotent.
	SummaryExcerptChars int `json:"summary_excerpt_chars"`

	// FreeDailyLimit is the daily compression allowance for free-tier agents.
	FreeDailyLimit int `json:"free_daily_limit"`

	// CostPer1KTokens is the dollar cost per 1000 tokens used to estimate
	// cost saved per session.
	CostPer1KTokens float64 `json:"cost_per_1k_tokens"`

	// LearningRate scales how strongly feedback shifts pattern importance.
	LearningRate float64 `json:"learning_rate"`

	// KeepSnapshots stores original/compressed text on sessions for audit.
	KeepSnapshots bool `json:"keep_snapshots,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		QualityThreshold:    0.85,
		DedupThreshold:      0.82,
		TargetReduction:     0.30,
		MinRetainFraction:   0.25,
		SummarizeMinChars:   480,
		SummaryExcerptChars: 240,
		FreeDailyLimit:      100,
		CostPer1KTokens:     0.003,
		LearningRate:        0.1,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.pith.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.QualityThreshold = pickFloat(base.QualityThreshold, overlay.QualityThreshold)
	result.DedupThreshold = pickFloat(base.DedupThreshold, overlay.DedupThreshold)
	result.TargetReduction = pickFloat(base.TargetReduction, overlay.TargetReduction)
	result.MinRetainFraction = pickFloat(base.MinRetainFraction, overlay.MinRetainFraction)
	result.CostPer1KTokens = pickFloat(base.CostPer1KTokens, overlay.CostPer1KTokens)
	result.LearningRate = pickFloat(base.LearningRate, overlay.LearningRate)

	result.SummarizeMinChars = pickInt(base.SummarizeMinChars, overlay.SummarizeMinChars)
	result.SummaryExcerptChars = pickInt(base.SummaryExcerptChars, overlay.SummaryExcerptChars)
	result.FreeDailyLimit = pickInt(base.FreeDailyLimit, overlay.FreeDailyLimit)
	result.DBMaxOpenConns = pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.KeepSnapshots = base.KeepSnapshots || overlay.KeepSnapshots

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// pickFloat returns overlay if non-zero, else base.
func pickFloat(base, overlay float64) float64 {
	if overlay != 0 {
		return overlay
	}
	return base
}

// pickInt returns overlay if non-zero, else base.
func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
