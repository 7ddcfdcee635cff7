package scc

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/zsiec/sccodec/caption"
)

// captionGridWidth is the number of character cells in an EIA-608 row.
const captionGridWidth = 32

// Writer encodes caption sets into SCC documents. Encoding is total:
// characters with no EIA-608 code are replaced by the unknown-glyph
// symbol rather than refused.
type Writer struct{}

// NewWriter returns a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write renders the set's first language as an SCC document. An empty
// set produces only the header.
func (w *Writer) Write(set *caption.Set) string {
	var out strings.Builder
	out.WriteString(Header + "\n\n")
	if set == nil || set.Empty() {
		return out.String()
	}

	langs := set.Languages()
	caps := set.Captions(langs[0])

	type entry struct {
		code   string
		start  int64
		end    int64
		hasEnd bool
	}

	entries := make([]entry, len(caps))
	for i, c := range caps {
		entries[i] = entry{code: textToCode(c), start: c.Start, end: c.End, hasEnd: true}
	}

	// Advance start times so the decoder has time to receive each
	// caption's codewords before display; the first caption keeps its
	// start time. When the pre-roll eats into
	// the previous caption's window, the previous trailing clear-screen
	// frame is dropped and the new caption replaces it directly.
	for i := range entries {
		codewords := float64(len(entries[i].code)/5 + 8)
		preroll := int64(codewords * MicrosecondsPerCodeword)
		if i == 0 {
			continue
		}
		start := entries[i].start - preroll
		if entries[i-1].end+int64(3*MicrosecondsPerCodeword) >= start {
			entries[i-1].hasEnd = false
		}
		entries[i].start = start
	}

	for _, e := range entries {
		out.WriteString(formatTimestamp(e.start))
		out.WriteString("\t94ae 94ae 9420 9420 ")
		out.WriteString(e.code)
		out.WriteString("942c 942c 942f 942f\n\n")
		if e.hasEnd {
			out.WriteString(formatTimestamp(e.end))
			out.WriteString("\t942c 942c\n\n")
		}
	}
	return out.String()
}

// textToCode renders one caption as codewords: for each wrapped line, a
// doubled column-0 PAC for the destination row followed by the line's
// character codes. Captions are bottom-aligned on the grid.
func textToCode(c *caption.Caption) string {
	var code string
	lines := layoutLines(c)
	for i, line := range lines {
		row := 16 - len(lines) + i
		if row < 1 {
			row = 1
		}
		pac := pacHighByRow[row] + pacLowByRow[row] + " "
		code += pac + pac
		for _, r := range line {
			code = printCharacter(code, r)
			code = maybeSpace(code)
		}
		code = maybeAlign(code)
	}
	return code
}

// layoutLines flattens the caption's nodes to text, NFC-normalizes it
// so decomposed accents hit the character tables, and wraps each line
// at the caption grid width.
func layoutLines(c *caption.Caption) []string {
	var sb strings.Builder
	for _, n := range c.Nodes {
		switch n := n.(type) {
		case *caption.TextNode:
			sb.WriteString(n.Text)
		case *caption.BreakNode:
			sb.WriteByte('\n')
		}
	}
	text := norm.NFC.String(sb.String())

	var lines []string
	for _, inner := range strings.Split(text, "\n") {
		lines = append(lines, wrapLine(inner, captionGridWidth)...)
	}
	return lines
}

// wrapLine greedily wraps s at width columns, hard-breaking words wider
// than a full row.
func wrapLine(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = nil
		}
	}

	for _, w := range words {
		r := []rune(w)
		for len(r) > width {
			flush()
			lines = append(lines, string(r[:width]))
			r = r[width:]
		}
		switch {
		case len(cur) == 0:
			cur = r
		case len(cur)+1+len(r) <= width:
			cur = append(cur, ' ')
			cur = append(cur, r...)
		default:
			flush()
			cur = r
		}
	}
	flush()
	return lines
}

// printCharacter appends the code for one character. Basic characters
// are two hex digits and pack two to a codeword; special and extended
// characters occupy a full codeword and must start on a word boundary.
func printCharacter(code string, r rune) string {
	if cc, ok := characterCodes[r]; ok {
		return code + cc
	}
	if cw, ok := specialExtendedCodes[r]; ok {
		return maybeAlign(code) + cw
	}
	return maybeAlign(code) + unknownGlyphCode
}

// maybeAlign finishes a half-filled codeword with a null byte so the
// next code starts on a word boundary.
func maybeAlign(code string) string {
	if len(code)%5 == 2 {
		code += "80 "
	}
	return code
}

// maybeSpace closes a completed codeword with the separating space.
func maybeSpace(code string) string {
	if len(code)%5 == 4 {
		code += " "
	}
	return code
}

// formatTimestamp renders microseconds of wall time as a non-drop-frame
// timecode, which runs slow by 1001/1000. Integer arithmetic keeps
// exact frame boundaries stable.
func formatTimestamp(micro int64) string {
	if micro < 0 {
		micro = 0
	}
	ndf := micro * 1000 / 1001
	hours := ndf / 3600000000
	ndf -= hours * 3600000000
	minutes := ndf / 60000000
	ndf -= minutes * 60000000
	seconds := ndf / 1000000
	frames := (ndf - seconds*1000000) * 30 / 1000000
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
