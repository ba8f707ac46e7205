package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.QualityThreshold != 0.85 {
		t.Errorf("QualityThreshold = %v, want 0.85", cfg.QualityThreshold)
	}
	if cfg.FreeDailyLimit != 100 {
		t.Errorf("FreeDailyLimit = %d, want 100", cfg.FreeDailyLimit)
	}
	if cfg.SummaryExcerptChars >= cfg.SummarizeMinChars {
		t.Errorf("SummaryExcerptChars (%d) must be below SummarizeMinChars (%d) for idempotence",
			cfg.SummaryExcerptChars, cfg.SummarizeMinChars)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.QualityThreshold != 0.85 {
		t.Errorf("missing file should yield defaults, got QualityThreshold = %v", cfg.QualityThreshold)
	}
}

func TestLoad_Overrides(t *testing.T) {
	tmpDir := t.TempDir()
	raw := `{"quality_threshold": 0.9, "free_daily_limit": 10, "keep_snapshots": true}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(raw), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.QualityThreshold != 0.9 {
		t.Errorf("QualityThreshold = %v, want 0.9", cfg.QualityThreshold)
	}
	if cfg.FreeDailyLimit != 10 {
		t.Errorf("FreeDailyLimit = %d, want 10", cfg.FreeDailyLimit)
	}
	if !cfg.KeepSnapshots {
		t.Error("KeepSnapshots should be true")
	}
	// Unset fields fall back to defaults
	if cfg.DedupThreshold != 0.82 {
		t.Errorf("DedupThreshold = %v, want default 0.82", cfg.DedupThreshold)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(tmpDir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestMerge_DisabledTools(t *testing.T) {
	base := &Config{DisabledTools: []string{"context_compress", " context_stats "}}
	overlay := &Config{DisabledTools: []string{"context_compress", "context_set_tier"}}

	merged := Merge(base, overlay)
	want := []string{"context_compress", "context_stats", "context_set_tier"}
	if len(merged.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", merged.DisabledTools, want)
	}
	for i, s := range want {
		if merged.DisabledTools[i] != s {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, merged.DisabledTools[i], s)
		}
	}
}
