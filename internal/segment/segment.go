// Package segment splits raw context text into addressable segments with
// stable byte offsets. Segments never overlap and always cover the entire
// input, so the uncompressed original can be reassembled exactly.
package segment

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// Tag classifies a segment's structure.
type Tag string

const (
	TagCode    Tag = "code"
	TagHeading Tag = "heading"
	TagList    Tag = "list"
	TagProse   Tag = "prose"
	TagBlank   Tag = "blank"
)

// Segment is a contiguous span of the original text.
type Segment struct {
	// Start and End are byte offsets into the original text, [Start, End).
	Start int `json:"start"`
	End   int `json:"end"`

	// Text is the segment content. For untouched segments this is exactly
	// the original slice; strategies may replace it (e.g. summarization).
	Text string `json:"text"`

	// Tag is the inferred structural classification.
	Tag Tag `json:"tag"`
}

// Len returns the length of the segment's current text in bytes.
func (s Segment) Len() int {
	return len(s.Text)
}

// Priority ranks structural tags for dedup retention decisions.
// Higher values are considered more information-dense.
func (t Tag) Priority() int {
	switch t {
	case TagCode:
		return 4
	case TagHeading:
		return 3
	case TagList:
		return 2
	case TagProse:
		return 1
	default:
		return 0
	}
}

// fencePattern matches fenced code block delimiters (``` or ~~~) at the start
// of a line, allowing 0-3 spaces of indentation per CommonMark.
var fencePattern = regexp.MustCompile("^[ ]{0,3}(`{3,}|~{3,})")

var md = goldmark.New()

// Split segments text into an ordered, gap-free sequence of segments.
// Block boundaries come from the markdown parser; whitespace between blocks
// attaches to the preceding segment so coverage is total.
func Split(text string) []Segment {
	if text == "" {
		return nil
	}

	src := []byte(text)
	doc := md.Parser().Parse(gtext.NewReader(src))

	type boundary struct {
		start int
		tag   Tag
	}
	var bounds []boundary

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		start := blockStart(n)
		if start < 0 {
			continue
		}
		start = lineStart(src, start)
		if n.Kind() == ast.KindFencedCodeBlock {
			start = includeOpeningFence(src, start)
		}
		bounds = append(bounds, boundary{start: start, tag: tagFor(n)})
	}

	if len(bounds) == 0 {
		// No parseable blocks (e.g. whitespace-only input).
		return []Segment{{Start: 0, End: len(text), Text: text, Tag: tagForText(text)}}
	}

	// Force full coverage: the first segment absorbs any leading bytes.
	bounds[0].start = 0

	segs := make([]Segment, 0, len(bounds))
	for i, b := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1].start
		}
		if end <= b.start {
			continue
		}
		seg := Segment{Start: b.start, End: end, Text: text[b.start:end], Tag: b.tag}
		if strings.TrimSpace(seg.Text) == "" {
			seg.Tag = TagBlank
		}
		segs = append(segs, seg)
	}

	return segs
}

// Join reassembles segment texts in order. For unmodified segments this
// reproduces the original input exactly.
func Join(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// blockStart returns the earliest byte offset covered by a block node,
// recursing into containers (lists, blockquotes) whose own line set is empty.
// Returns -1 when the node covers no source bytes (e.g. thematic breaks).
func blockStart(n ast.Node) int {
	min := -1
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			min = lines.At(0).Start
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if s := blockStart(c); s >= 0 && (min < 0 || s < min) {
			min = s
		}
	}
	return min
}

// lineStart walks back from pos to the start of its line.
func lineStart(src []byte, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// includeOpeningFence extends a fenced code block's start to cover the
// opening fence line, which the parser excludes from the content lines.
func includeOpeningFence(src []byte, contentStart int) int {
	if contentStart == 0 {
		return 0
	}
	prevEnd := contentStart - 1 // the newline ending the previous line
	prevStart := lineStart(src, prevEnd)
	if fencePattern.Match(src[prevStart:prevEnd]) {
		return prevStart
	}
	return contentStart
}

// tagFor maps a block node kind to a structural tag.
func tagFor(n ast.Node) Tag {
	switch n.Kind() {
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		return TagCode
	case ast.KindHeading:
		return TagHeading
	case ast.KindList:
		return TagList
	default:
		return TagProse
	}
}

// tagForText classifies raw text that produced no parseable blocks.
func tagForText(text string) Tag {
	if strings.TrimSpace(text) == "" {
		return TagBlank
	}
	return TagProse
}
