package scc

import "strings"

// nodeKind discriminates the interpretable node variants accumulated
// while decoding one display buffer.
type nodeKind int

const (
	nodeText nodeKind = iota
	nodeBreak
	nodeItalicsOn
	nodeItalicsOff
	nodeReposition
)

// interpretableNode is one element of a display buffer: a text run, an
// explicit break, an italics toggle, or a hard positioning
// discontinuity that will split the buffer into a new caption.
type interpretableNode struct {
	kind nodeKind
	text string
	pos  *Position
}

func newTextNode(pos Position) *interpretableNode {
	p := pos
	return &interpretableNode{kind: nodeText, pos: &p}
}

func newMarkerNode(kind nodeKind, pos Position) *interpretableNode {
	p := pos
	return &interpretableNode{kind: kind, pos: &p}
}

// nodeBuffer is the ordered builder for one EIA-608 display buffer. It
// owns a position tracker and accumulates interpretable nodes until the
// reader converts it into captions.
type nodeBuffer struct {
	nodes   []*interpretableNode
	tracker *positionTracker
}

// newNodeBuffer returns an empty buffer whose tracker shares the
// reader's document-wide fallback position.
func newNodeBuffer(fallback *Position) *nodeBuffer {
	return &nodeBuffer{tracker: &positionTracker{fallback: fallback}}
}

// isEmpty reports whether no node carries any text. Breaks, italics
// toggles, and positioning alone do not make a buffer worth emitting.
func (b *nodeBuffer) isEmpty() bool {
	for _, n := range b.nodes {
		if n.text != "" {
			return false
		}
	}
	return true
}

// addChars appends characters to the most recent text run, first
// materializing any pending break or reposition the tracker has
// classified.
func (b *nodeBuffer) addChars(chars ...string) error {
	if len(chars) == 0 {
		return nil
	}
	pos, err := b.tracker.currentPosition()
	if err != nil {
		return err
	}

	var node *interpretableNode
	for i := len(b.nodes) - 1; i >= 0; i-- {
		if b.nodes[i].kind == nodeText {
			node = b.nodes[i]
			break
		}
	}
	if node == nil {
		node = newTextNode(pos)
		b.nodes = append(b.nodes, node)
	}

	switch {
	case b.tracker.breakRequired():
		b.nodes = append(b.nodes, newMarkerNode(nodeBreak, pos))
		node = newTextNode(pos)
		b.nodes = append(b.nodes, node)
		b.tracker.ackBreak()
	case b.tracker.repositionRequired():
		b.nodes = append(b.nodes, &interpretableNode{kind: nodeReposition})
		node = newTextNode(pos)
		b.nodes = append(b.nodes, node)
		b.tracker.ackReposition()
	}

	node.text += strings.Join(chars, "")
	return nil
}

// interpretCommand applies a control codeword the reader has no
// explicit case for: PACs update positioning, italics toggles append
// style nodes, anything else is discarded.
func (b *nodeBuffer) interpretCommand(word string) error {
	if len(word) == 4 {
		if inner, ok := pacPositions[word[:2]]; ok {
			if pos, ok := inner[word[2:]]; ok {
				b.tracker.updatePositioning(pos)
			}
		}
	}

	switch effectOf(word) {
	case effectItalicsOn:
		pos, err := b.tracker.currentPosition()
		if err != nil {
			return err
		}
		b.nodes = append(b.nodes, newMarkerNode(nodeItalicsOn, pos))
	case effectItalicsOff:
		pos, err := b.tracker.currentPosition()
		if err != nil {
			return err
		}
		b.nodes = append(b.nodes, newMarkerNode(nodeItalicsOff, pos))
	}
	return nil
}

// concatBuffers merges several buffers into a new one, joining their
// text with a single space. Used to rebuild the visible window when
// simulating roll-up displays. Nodes are copied so the source buffers
// stay usable. A buffer that begins with a text run is merged into the
// preceding text run when that run is the last node, so the joining
// space sits inside one run; where the two runs stay separate nodes,
// the space ends a run and is trimmed when captions are built.
func concatBuffers(buffers []*nodeBuffer, fallback *Position) *nodeBuffer {
	merged := newNodeBuffer(fallback)
	for i, buf := range buffers {
		for j, n := range buf.nodes {
			if k := len(merged.nodes) - 1; i > 0 && j == 0 && k >= 0 &&
				n.kind == nodeText && merged.nodes[k].kind == nodeText {
				merged.nodes[k].text += n.text
				continue
			}
			copied := *n
			merged.nodes = append(merged.nodes, &copied)
		}
		if i == len(buffers)-1 {
			continue
		}
		for j := len(merged.nodes) - 1; j >= 0; j-- {
			if merged.nodes[j].kind == nodeText {
				merged.nodes[j].text += " "
				break
			}
		}
	}
	return merged
}
