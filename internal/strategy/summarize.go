package strategy

import (
	"strings"
	"unicode/utf8"

	"github.com/pithworks/pith/internal/pattern"
	"github.com/pithworks/pith/internal/segment"
)

// summaryMarker closes every condensed segment. Its presence also makes a
// second pass skip the segment, since condensed text is always shorter
// than the eligibility minimum.
const summaryMarker = " […]"

// Summarize condenses long prose and list segments to a bounded excerpt.
// Code, headings, and protected segments pass through untouched.
type Summarize struct{}

func (Summarize) Name() string { return NameSummarize }

func (Summarize) Apply(segs []segment.Segment, idx *pattern.Index, cfg Config) *Result {
	res := &Result{Name: NameSummarize, SegmentsIn: len(segs)}

	for _, seg := range segs {
		if !eligible(seg, cfg) {
			res.Retained = append(res.Retained, seg)
			continue
		}
		if isProtected(seg, idx) {
			res.Protected = append(res.Protected, seg)
			res.Retained = append(res.Retained, seg)
			continue
		}

		res.Removed = append(res.Removed, Removal{Segment: seg, Reason: ReasonSummarized})
		condensed := seg
		condensed.Text = excerpt(seg.Text, cfg.SummaryExcerptChars)
		res.Retained = append(res.Retained, condensed)
	}

	res.SegmentsOut = len(res.Retained)
	res.Text = segment.Join(res.Retained)
	return res
}

func eligible(seg segment.Segment, cfg Config) bool {
	if seg.Tag != segment.TagProse && seg.Tag != segment.TagList {
		return false
	}
	return seg.Len() >= cfg.SummarizeMinChars
}

// excerpt keeps up to max characters from the start of text, snapped back
// to a word boundary, and appends the summary marker. A trailing newline
// is preserved so joined output keeps its line structure.
func excerpt(text string, max int) string {
	trailing := ""
	if strings.HasSuffix(text, "\n") {
		trailing = "\n"
	}

	cut := strings.TrimSpace(text)
	if len(cut) > max {
		for max > 0 && !utf8.RuneStart(cut[max]) {
			max--
		}
		cut = cut[:max]
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		cut = strings.TrimRight(cut, " \t\n")
	}
	return cut + summaryMarker + trailing
}
