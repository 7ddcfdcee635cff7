package scc

import (
	"strings"

	"github.com/zsiec/sccodec/caption"
)

// captionBuilder converts finished node buffers into captions and owns
// the output collection. The captions produced by the most recent
// conversion stay "editing": their end time can still be corrected by a
// later clear-screen or roll-up.
type captionBuilder struct {
	collection caption.List
	editing    []*caption.Caption
}

// correctLastTiming sets the end time of the captions still being
// edited. Without force, only captions with no end time yet are
// touched.
func (cb *captionBuilder) correctLastTiming(end int64, force bool) {
	for _, c := range cb.editing {
		if force || c.End == 0 {
			c.End = end
		}
	}
}

// createAndStore walks the buffer's nodes and materializes one caption,
// or several when the buffer contains hard repositioning. All captions
// share the given start time; ends are backfilled later.
func (cb *captionBuilder) createAndStore(buf *nodeBuffer, start int64) {
	if buf.isEmpty() {
		return
	}

	cur := &caption.Caption{Start: start}
	cb.editing = []*caption.Caption{cur}
	openItalic := false

	for _, n := range buf.nodes {
		switch n.kind {
		case nodeText:
			if n.text == "" {
				continue
			}
			layout := layoutFromPosition(n.pos)
			cur.Nodes = append(cur.Nodes, &caption.TextNode{
				Text:   collapseWhitespace(n.text),
				Layout: layout,
			})
			cur.Layout = layout

		case nodeReposition:
			removeExtraItalics(cur)
			openItalic = false
			cur = &caption.Caption{Start: start}
			cb.editing = append(cb.editing, cur)

		case nodeBreak:
			if openItalic {
				cur.Nodes = append(cur.Nodes, italicsStyle(false))
				openItalic = false
			}
			cur.Nodes = append(cur.Nodes, &caption.BreakNode{})

		case nodeItalicsOn:
			cur.Nodes = append(cur.Nodes, italicsStyle(true))
			openItalic = true

		case nodeItalicsOff:
			if openItalic {
				cur.Nodes = append(cur.Nodes, italicsStyle(false))
				openItalic = false
			}
		}
	}

	if openItalic {
		cur.Nodes = append(cur.Nodes, italicsStyle(false))
	}
	removeExtraItalics(cur)

	cb.collection.Extend(cb.editing)
}

// captions returns everything stored so far, in order.
func (cb *captionBuilder) captions() []*caption.Caption {
	return cb.collection.All()
}

func italicsStyle(start bool) *caption.StyleNode {
	return &caption.StyleNode{Start: start, Italics: true}
}

// removeExtraItalics collapses an italics style pair surrounding a
// break into a continuous run: [style break style] loses both style
// nodes. The scan does not advance after a removal since the next
// candidate window starts at the same index.
func removeExtraItalics(c *caption.Caption) {
	nodes := c.Nodes
	i := 0
	for i+2 < len(nodes) {
		s1, ok1 := nodes[i].(*caption.StyleNode)
		_, isBreak := nodes[i+1].(*caption.BreakNode)
		s2, ok2 := nodes[i+2].(*caption.StyleNode)
		if ok1 && ok2 && isBreak && s1.Italics && s2.Italics {
			nodes = append(nodes[:i], nodes[i+1:]...)
			nodes = append(nodes[:i+1], nodes[i+2:]...)
			continue
		}
		i++
	}
	c.Nodes = nodes
}

// collapseWhitespace squeezes runs of whitespace into single spaces and
// trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// layoutFromPosition converts a grid position into the percent-based
// origin of the caption model. Rows 1-15 span the vertical axis,
// columns 0-31 the horizontal.
func layoutFromPosition(pos *Position) *caption.Layout {
	if pos == nil {
		return nil
	}
	return &caption.Layout{
		OriginX: 100 * float64(pos.Col) / 32,
		OriginY: 100 * float64(pos.Row-1) / 15,
	}
}
