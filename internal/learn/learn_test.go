package learn

import (
	"context"
	"math"
	"testing"

	"github.com/pithworks/pith/internal/db"
	"github.com/pithworks/pith/internal/pattern"
	"github.com/pithworks/pith/internal/segment"
	"github.com/pithworks/pith/internal/store"
	"github.com/pithworks/pith/internal/strategy"
)

func newTestLearner(t *testing.T) (*Learner, *store.SQLiteStore) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	st := store.NewSQLite(database, 100)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, 0.1), st
}

func recordSession(t *testing.T, st *store.SQLiteStore, id string) {
	t.Helper()
	err := st.RecordSession(context.Background(), &store.Session{
		ID: id, AgentID: "a", OriginalTokens: 10, CompressedTokens: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestObserveRecordsPatternsByReason(t *testing.T) {
	l, st := newTestLearner(t)
	ctx := context.Background()
	recordSession(t, st, "s1")

	res := &strategy.Result{
		Removed: []strategy.Removal{
			{Segment: segment.Segment{Text: "repeated status line\n", Tag: segment.TagProse}, Reason: strategy.ReasonDuplicate},
			{Segment: segment.Segment{Text: "ok sure fine\n", Tag: segment.TagProse}, Reason: strategy.ReasonLowValue},
		},
		Protected: []segment.Segment{
			{Text: "the signing key lives in the vault\n", Tag: segment.TagProse},
		},
	}
	if err := l.Observe(ctx, "a", "s1", res); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	redundant, err := st.GetPatterns(ctx, "a", pattern.TypeRedundant)
	if err != nil {
		t.Fatal(err)
	}
	if len(redundant) != 1 || redundant[0].Importance != removedImportance {
		t.Errorf("redundant patterns: %+v", redundant)
	}

	boiler, err := st.GetPatterns(ctx, "a", pattern.TypeBoilerplate)
	if err != nil {
		t.Fatal(err)
	}
	if len(boiler) != 1 {
		t.Errorf("boilerplate patterns: %d", len(boiler))
	}

	hv, err := st.GetPatterns(ctx, "a", pattern.TypeHighValue)
	if err != nil {
		t.Fatal(err)
	}
	if len(hv) != 1 || hv[0].Importance != protectedImportance {
		t.Errorf("high value patterns: %+v", hv)
	}

	links, err := st.GetSessionPatterns(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 3 {
		t.Errorf("expected 3 links, got %d", len(links))
	}
}

func TestObserveSkipsBlankSegments(t *testing.T) {
	l, st := newTestLearner(t)
	ctx := context.Background()
	recordSession(t, st, "s1")

	res := &strategy.Result{
		Removed: []strategy.Removal{
			{Segment: segment.Segment{Text: "\n", Tag: segment.TagBlank}, Reason: strategy.ReasonDuplicate},
		},
	}
	if err := l.Observe(ctx, "a", "s1", res); err != nil {
		t.Fatal(err)
	}
	all, err := st.GetPatterns(ctx, "a", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("blank segment produced %d patterns", len(all))
	}
}

func TestRepeatObservationIncrementsFrequency(t *testing.T) {
	l, st := newTestLearner(t)
	ctx := context.Background()
	recordSession(t, st, "s1")
	recordSession(t, st, "s2")

	res := &strategy.Result{
		Removed: []strategy.Removal{
			{Segment: segment.Segment{Text: "same duplicate every day\n", Tag: segment.TagProse}, Reason: strategy.ReasonDuplicate},
		},
	}
	if err := l.Observe(ctx, "a", "s1", res); err != nil {
		t.Fatal(err)
	}
	if err := l.Observe(ctx, "a", "s2", res); err != nil {
		t.Fatal(err)
	}

	ps, err := st.GetPatterns(ctx, "a", pattern.TypeRedundant)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 1 {
		t.Fatalf("expected one merged pattern, got %d", len(ps))
	}
	if ps[0].Frequency != 2 {
		t.Errorf("frequency = %d, want 2", ps[0].Frequency)
	}
}

func TestApplyFeedbackMovesImportance(t *testing.T) {
	l, st := newTestLearner(t)
	ctx := context.Background()
	recordSession(t, st, "s1")

	res := &strategy.Result{
		Removed: []strategy.Removal{
			{Segment: segment.Segment{Text: "dropped content here\n", Tag: segment.TagProse}, Reason: strategy.ReasonLowValue},
		},
		Protected: []segment.Segment{
			{Text: "kept content here\n", Tag: segment.TagProse},
		},
	}
	if err := l.Observe(ctx, "a", "s1", res); err != nil {
		t.Fatal(err)
	}

	// strongly positive feedback: delta = (1.0-0.5)*2*0.1 = 0.1
	n, err := l.ApplyFeedback(ctx, "s1", 1.0)
	if err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}
	if n != 2 {
		t.Errorf("adjusted %d patterns, want 2", n)
	}

	hv, err := st.GetPatterns(ctx, "a", pattern.TypeHighValue)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(hv[0].Importance-(protectedImportance+0.1)) > 1e-9 {
		t.Errorf("protected importance = %f, want %f", hv[0].Importance, protectedImportance+0.1)
	}

	boiler, err := st.GetPatterns(ctx, "a", pattern.TypeBoilerplate)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(boiler[0].Importance-(removedImportance-0.1)) > 1e-9 {
		t.Errorf("removed importance = %f, want %f", boiler[0].Importance, removedImportance-0.1)
	}
}

func TestNegativeFeedbackReversesDirection(t *testing.T) {
	l, st := newTestLearner(t)
	ctx := context.Background()
	recordSession(t, st, "s1")

	res := &strategy.Result{
		Removed: []strategy.Removal{
			{Segment: segment.Segment{Text: "should not have been dropped\n", Tag: segment.TagProse}, Reason: strategy.ReasonLowValue},
		},
	}
	if err := l.Observe(ctx, "a", "s1", res); err != nil {
		t.Fatal(err)
	}

	// score 0.0: delta = -0.1, removed gets +0.1
	if _, err := l.ApplyFeedback(ctx, "s1", 0.0); err != nil {
		t.Fatal(err)
	}
	ps, err := st.GetPatterns(ctx, "a", pattern.TypeBoilerplate)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ps[0].Importance-(removedImportance+0.1)) > 1e-9 {
		t.Errorf("importance = %f, want %f", ps[0].Importance, removedImportance+0.1)
	}
}
