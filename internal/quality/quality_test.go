package quality

import (
	"testing"

	"github.com/pithworks/pith/internal/segment"
	"github.com/pithworks/pith/internal/strategy"
)

func TestIdentityScoresOne(t *testing.T) {
	text := "Nothing was removed from this document at all.\n"
	res := strategy.Identity{}.Apply(segment.Split(text), nil, strategy.Config{})
	if got := Evaluate(text, res); got != 1.0 {
		t.Errorf("identity quality = %f, want 1.0", got)
	}
}

func TestDedupOfRepeatsScoresHigh(t *testing.T) {
	para := "The release checklist was verified by the on-call engineer this morning.\n"
	text := para + "\n" + para + "\n" + para
	res := strategy.Dedup{}.Apply(segment.Split(text), nil, strategy.Config{DedupThreshold: 0.82})

	if got := Evaluate(text, res); got < 0.85 {
		t.Errorf("dedup of identical paragraphs scored %f, want >= 0.85", got)
	}
}

func TestHeavyRemovalScoresLow(t *testing.T) {
	text := "First topic about database indexes.\n\nSecond topic about network retries.\n\nThird topic about cache warming.\n"
	segs := segment.Split(text)

	// keep only the first paragraph
	res := &strategy.Result{
		Name:     strategy.NamePrune,
		Retained: segs[:1],
		Text:     segs[0].Text,
	}
	if got := Evaluate(text, res); got >= 0.85 {
		t.Errorf("dropping two thirds of distinct content scored %f", got)
	}
}

func TestLostProtectedSegmentLowersScore(t *testing.T) {
	a := segment.Segment{Start: 0, Text: "keep this\n"}
	b := segment.Segment{Start: 10, Text: "and this\n"}

	full := &strategy.Result{
		Text:      a.Text + b.Text,
		Retained:  []segment.Segment{a, b},
		Protected: []segment.Segment{a, b},
	}
	half := &strategy.Result{
		Text:      a.Text + b.Text,
		Retained:  []segment.Segment{a, b},
		Protected: []segment.Segment{a, b, {Start: 99, Text: "gone\n"}},
	}
	original := a.Text + b.Text
	if Evaluate(original, half) >= Evaluate(original, full) {
		t.Error("losing a protected segment should lower the score")
	}
}
