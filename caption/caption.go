// Package caption defines the format-neutral caption model produced by
// readers and consumed by writers: timed captions, their node contents
// (text runs, line breaks, style toggles), and the per-language caption set.
package caption

import (
	"sort"
	"strings"
)

// Layout carries the percent-based origin of a caption or text run on a
// 100x100 screen coordinate space, derived from the source format's
// positioning information.
type Layout struct {
	OriginX float64 // percent from the left edge
	OriginY float64 // percent from the top edge
}

// Node is the interface implemented by the caption content variants.
// The concrete types are TextNode, BreakNode, and StyleNode.
type Node interface {
	node()
}

// TextNode is a run of caption text with optional positioning.
type TextNode struct {
	Text   string
	Layout *Layout
}

// BreakNode is an explicit line break between text runs.
type BreakNode struct{}

// StyleNode toggles a styling attribute. Start true opens the style,
// false closes it. Italics is the only attribute carried by EIA-608.
type StyleNode struct {
	Start   bool
	Italics bool
}

func (*TextNode) node()  {}
func (*BreakNode) node() {}
func (*StyleNode) node() {}

// Caption is a single timed caption. Times are in microseconds from the
// start of the media. End may be zero while the caption is still open;
// readers backfill it from the start of the following caption.
type Caption struct {
	Start  int64
	End    int64
	Nodes  []Node
	Layout *Layout
}

// Text returns the plain text of the caption, with line breaks rendered
// as newlines and style nodes dropped.
func (c *Caption) Text() string {
	var sb strings.Builder
	for _, n := range c.Nodes {
		switch n := n.(type) {
		case *TextNode:
			sb.WriteString(n.Text)
		case *BreakNode:
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// List is an ordered collection of captions that maintains the timing
// invariant on append: a stored caption with no end time receives the
// start time of the caption appended after it. Captions without nodes
// are not stored.
type List struct {
	captions []*Caption
}

// Append adds c to the list, backfilling the predecessor's end time.
// Node-less captions still close the predecessor but are not themselves
// stored; a nil caption is ignored.
func (l *List) Append(c *Caption) {
	if c == nil {
		return
	}
	if n := len(l.captions); n > 0 && l.captions[n-1].End == 0 {
		l.captions[n-1].End = c.Start
	}
	if len(c.Nodes) > 0 {
		l.captions = append(l.captions, c)
	}
}

// Extend appends every caption in caps, applying the Append rules.
func (l *List) Extend(caps []*Caption) {
	for _, c := range caps {
		l.Append(c)
	}
}

// All returns the stored captions in order.
func (l *List) All() []*Caption {
	return l.captions
}

// Set groups captions by language.
type Set struct {
	captions map[string][]*Caption
}

// NewSet returns an empty caption set.
func NewSet() *Set {
	return &Set{captions: make(map[string][]*Caption)}
}

// SetCaptions stores the captions for a language, replacing any
// previous captions for that language.
func (s *Set) SetCaptions(lang string, caps []*Caption) {
	s.captions[lang] = caps
}

// Captions returns the captions for a language, or nil.
func (s *Set) Captions(lang string) []*Caption {
	return s.captions[lang]
}

// Languages returns the languages present in the set, sorted.
func (s *Set) Languages() []string {
	langs := make([]string, 0, len(s.captions))
	for lang := range s.captions {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Empty reports whether the set contains no captions in any language.
func (s *Set) Empty() bool {
	for _, caps := range s.captions {
		if len(caps) > 0 {
			return false
		}
	}
	return true
}
