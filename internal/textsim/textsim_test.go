package textsim

import "testing"

var samples = []string{
	"",
	"one",
	"the quick brown fox jumps over the lazy dog",
	"the quick brown fox jumps over the lazy cat",
	"completely unrelated content about databases and indexes",
	"## Heading\n\nSome prose with a few words repeated words repeated",
}

func TestSimilarity_Reflexive(t *testing.T) {
	for _, s := range samples {
		if got := Similarity(s, s); got != 1.0 {
			t.Errorf("sim(%q, same) = %v, want 1.0", s, got)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	for _, a := range samples {
		for _, b := range samples {
			if Similarity(a, b) != Similarity(b, a) {
				t.Errorf("sim(%q, %q) != sim(%q, %q)", a, b, b, a)
			}
		}
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	for _, a := range samples {
		for _, b := range samples {
			got := Similarity(a, b)
			if got < 0 || got > 1 {
				t.Errorf("sim(%q, %q) = %v, out of [0,1]", a, b, got)
			}
		}
	}
}

func TestSimilarity_MonotoneUnderEdits(t *testing.T) {
	base := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	oneEdit := "alpha beta gamma delta epsilon zeta eta theta iota lambda"
	threeEdits := "alpha beta mu delta nu zeta eta xi iota lambda"

	simOne := Similarity(base, oneEdit)
	simThree := Similarity(base, threeEdits)

	if simOne >= 1.0 {
		t.Errorf("one edit should reduce similarity below 1.0, got %v", simOne)
	}
	if simThree >= simOne {
		t.Errorf("more edits should score lower: three=%v one=%v", simThree, simOne)
	}
}

func TestSimilarity_Disjoint(t *testing.T) {
	if got := Similarity("alpha beta gamma", "delta epsilon zeta"); got != 0 {
		t.Errorf("disjoint spans should score 0, got %v", got)
	}
}

func TestSimilarity_EmptyVsNonEmpty(t *testing.T) {
	if got := Similarity("", "something here"); got != 0 {
		t.Errorf("sim(empty, text) = %v, want 0", got)
	}
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("sim(empty, empty) = %v, want 1.0", got)
	}
}

func TestSimilarity_CaseInsensitive(t *testing.T) {
	if got := Similarity("Quick Brown Fox runs", "quick brown fox runs"); got != 1.0 {
		t.Errorf("case should not affect similarity, got %v", got)
	}
}
