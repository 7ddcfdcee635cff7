package scc

import (
	"fmt"
	"math/bits"
)

// Header is the mandatory first line of an SCC document.
const Header = "Scenarist_SCC V1.0"

// MicrosecondsPerCodeword is the transmission time of one two-byte
// codeword: exactly one frame at 29.97 fps.
const MicrosecondsPerCodeword = 1001000.0 / 30.0

// Position is a cursor position on the EIA-608 grid. Rows run 1-15 top
// to bottom, columns 0-31 left to right.
type Position struct {
	Row int
	Col int
}

// defaultPosition is the position assumed before any PAC is observed.
var defaultPosition = Position{Row: 14, Col: 0}

// commandEffect classifies a control codeword by the only styling it can
// carry through to the caption model.
type commandEffect int

const (
	effectOther commandEffect = iota
	effectItalicsOn
	effectItalicsOff
)

// oddParity maps each 7-bit value to the byte transmitted on line 21:
// bit 7 set so the total number of one bits is odd. SCC files store
// codewords with the parity bit applied.
var oddParity = func() [128]byte {
	var t [128]byte
	for i := range t {
		b := byte(i)
		if bits.OnesCount8(b)%2 == 0 {
			b |= 0x80
		}
		t[i] = b
	}
	return t
}()

// codeByte renders the parity-applied form of a 7-bit byte as the
// two lowercase hex digits used in SCC documents.
func codeByte(b byte) string {
	return fmt.Sprintf("%02x", oddParity[b&0x7f])
}

// codeWord renders a two-byte codeword.
func codeWord(high, low byte) string {
	return codeByte(high) + codeByte(low)
}

// basicChars is the Basic North American character set, indexed from
// byte 0x20. It follows ASCII except for the music-industry
// substitutions mandated by EIA-608.
var basicChars = []rune{
	' ', '!', '"', '#', '$', '%', '&', '\'',
	'(', ')', 'á', '+', ',', '-', '.', '/',
	'0', '1', '2', '3', '4', '5', '6', '7',
	'8', '9', ':', ';', '<', '=', '>', '?',
	'@', 'A', 'B', 'C', 'D', 'E', 'F', 'G',
	'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O',
	'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W',
	'X', 'Y', 'Z', '[', 'é', ']', 'í', 'ó',
	'ú', 'a', 'b', 'c', 'd', 'e', 'f', 'g',
	'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o',
	'p', 'q', 'r', 's', 't', 'u', 'v', 'w',
	'x', 'y', 'z', 'ç', '÷', 'Ñ', 'ñ', '█',
}

// specialNAChars is the Special North American set, bytes 0x30-0x3f
// following the 0x11 high byte. 0x39 is the transparent space.
var specialNAChars = []rune{
	'®', '°', '½', '¿', '™', '¢', '£', '♪',
	'à', ' ', 'è', 'â', 'ê', 'î', 'ô', 'û',
}

// extendedWE1Chars is the Extended Western European set behind high
// byte 0x12: Spanish, miscellaneous, and French, bytes 0x20-0x3f.
var extendedWE1Chars = []rune{
	'Á', 'É', 'Ó', 'Ú', 'Ü', 'ü', '‘', '¡',
	'*', '’', '—', '©', '℠', '•', '“', '”',
	'À', 'Â', 'Ç', 'È', 'Ê', 'Ë', 'ë', 'Î',
	'Ï', 'ï', 'Ô', 'Ù', 'ù', 'Û', '«', '»',
}

// extendedWE2Chars is the Extended Western European set behind high
// byte 0x13: Portuguese, German, and Danish, bytes 0x20-0x3f.
var extendedWE2Chars = []rune{
	'Ã', 'ã', 'Í', 'Ì', 'ì', 'Ò', 'ò', 'Õ',
	'õ', '{', '}', '\\', '^', '_', '|', '~',
	'Ä', 'ä', 'Ö', 'ö', 'ß', '¥', '¤', '¦',
	'Å', 'å', 'Ø', 'ø', '┌', '┐', '└', '┘',
}

// pacRowBlocks describes the PAC address space of the primary channel:
// each grid row owns a 32-code block under one high byte.
var pacRowBlocks = [...]struct {
	row  int
	high byte
	base byte // first low byte of the row's block
}{
	{1, 0x11, 0x40}, {2, 0x11, 0x60},
	{3, 0x12, 0x40}, {4, 0x12, 0x60},
	{5, 0x15, 0x40}, {6, 0x15, 0x60},
	{7, 0x16, 0x40}, {8, 0x16, 0x60},
	{9, 0x17, 0x40}, {10, 0x17, 0x60},
	{11, 0x10, 0x40},
	{12, 0x13, 0x40}, {13, 0x13, 0x60},
	{14, 0x14, 0x40}, {15, 0x14, 0x60},
}

var (
	// commands maps control codewords to their styling effect. Mode and
	// memory commands are dispatched explicitly by the reader before
	// this table is consulted; everything else here is a recognized
	// no-op apart from the italics toggles.
	commands map[string]commandEffect

	// specialChars and extendedChars map whole codewords to the
	// character they print.
	specialChars  map[string]string
	extendedChars map[string]string

	// characters maps a single parity-applied byte (two hex digits) to
	// its character. The null byte 80 decodes to the empty string.
	characters map[string]string

	// pacPositions maps PAC high byte -> low byte -> grid position.
	// Style-carrying PACs map to column 0.
	pacPositions map[string]map[string]Position

	// pacItalics records the PAC codewords that select white italics.
	pacItalics map[string]bool

	// Encoder tables.
	characterCodes       map[rune]string // char -> single byte code
	specialExtendedCodes map[rune]string // char -> full codeword
	pacHighByRow         [16]string      // column-0 PAC for each row
	pacLowByRow          [16]string
)

// unknownGlyphCode is emitted for characters with no EIA-608 encoding.
const unknownGlyphCode = "91b6" // £

func init() {
	buildCommandTables()
	buildCharacterTables()
	buildPACTables()
}

func buildCommandTables() {
	commands = make(map[string]commandEffect)

	// Miscellaneous control codes (RCL through EOC) and tab offsets.
	for low := byte(0x20); low <= 0x2f; low++ {
		commands[codeWord(0x14, low)] = effectOther
	}
	for low := byte(0x21); low <= 0x23; low++ {
		commands[codeWord(0x17, low)] = effectOther
	}

	// Mid-row codes. A color change implicitly ends italics; 0x2e and
	// 0x2f select white italics.
	for low := byte(0x20); low <= 0x2f; low++ {
		effect := effectItalicsOff
		if low >= 0x2e {
			effect = effectItalicsOn
		}
		commands[codeWord(0x11, low)] = effect
	}
}

func buildCharacterTables() {
	characters = make(map[string]string, len(basicChars)+1)
	characterCodes = make(map[rune]string, len(basicChars))
	for i, r := range basicChars {
		code := codeByte(0x20 + byte(i))
		characters[code] = string(r)
		characterCodes[r] = code
	}
	characters["80"] = "" // null fill byte

	specialChars = make(map[string]string, len(specialNAChars))
	extendedChars = make(map[string]string, len(extendedWE1Chars)+len(extendedWE2Chars))
	specialExtendedCodes = make(map[rune]string)

	addPrintable := func(dst map[string]string, high, base byte, chars []rune) {
		for i, r := range chars {
			word := codeWord(high, base+byte(i))
			dst[word] = string(r)
			if _, dup := specialExtendedCodes[r]; !dup {
				specialExtendedCodes[r] = word
			}
		}
	}
	addPrintable(specialChars, 0x11, 0x30, specialNAChars)
	addPrintable(extendedChars, 0x12, 0x20, extendedWE1Chars)
	addPrintable(extendedChars, 0x13, 0x20, extendedWE2Chars)
}

func buildPACTables() {
	pacPositions = make(map[string]map[string]Position)
	pacItalics = make(map[string]bool)

	for _, blk := range pacRowBlocks {
		hk := codeByte(blk.high)
		inner := pacPositions[hk]
		if inner == nil {
			inner = make(map[string]Position)
			pacPositions[hk] = inner
		}
		for off := byte(0); off < 0x20; off++ {
			low := blk.base + off
			lk := codeByte(low)
			col := 0
			style := -1
			if low&0x10 != 0 {
				col = 4 * int((low&0x0e)>>1)
			} else {
				style = int((low & 0x0e) >> 1)
			}
			inner[lk] = Position{Row: blk.row, Col: col}
			if style == 7 {
				pacItalics[hk+lk] = true
			}
		}
		pacHighByRow[blk.row] = hk
		pacLowByRow[blk.row] = codeByte(blk.base | 0x10)
	}
}

// isPAC reports whether word is a Preamble Address Code of the primary
// channel.
func isPAC(word string) bool {
	if len(word) != 4 {
		return false
	}
	inner, ok := pacPositions[word[:2]]
	if !ok {
		return false
	}
	_, ok = inner[word[2:]]
	return ok
}

// effectOf returns the styling effect of a control codeword. PACs that
// select white italics open italics like a mid-row code does.
func effectOf(word string) commandEffect {
	if e, ok := commands[word]; ok {
		return e
	}
	if pacItalics[word] {
		return effectItalicsOn
	}
	return effectOther
}
