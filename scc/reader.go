package scc

import (
	"strings"
	"time"

	"github.com/zsiec/sccodec/caption"
)

// Mode identifies the EIA-608 display mode that owns the active buffer.
type Mode int

const (
	ModePop Mode = iota
	ModePaint
	ModeRoll
)

// ReadOptions controls a single decode.
type ReadOptions struct {
	// Lang is the language key the captions are stored under in the
	// resulting set. Defaults to "en-US".
	Lang string

	// SimulateRollUp makes each emitted roll-up caption carry all the
	// rows visible on screen at that moment, joined by spaces, instead
	// of only the newest row.
	SimulateRollUp bool

	// Offset is subtracted from every computed timestamp, for inputs
	// whose timecodes do not start at zero.
	Offset time.Duration
}

// Detect reports whether content begins with the SCC header line.
func Detect(content string) bool {
	line, _, _ := strings.Cut(content, "\n")
	return strings.TrimRight(line, "\r") == Header
}

// Reader decodes SCC documents into caption sets. The zero value is
// ready to use; one Reader may decode any number of documents, as every
// Read call resets all interpreter state.
type Reader struct {
	builder    *captionBuilder
	translator *timeTranslator

	lastCommand string

	buffers map[Mode]*nodeBuffer
	active  Mode

	rollRows         []*nodeBuffer
	rollRowsExpected int
	simulateRollUp   bool

	// time is the committed start, in microseconds, of the next caption
	// to be emitted.
	time int64

	// lastPosition is the document-wide fallback shared by every
	// buffer's position tracker.
	lastPosition Position
}

// NewReader returns a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Detect reports whether content begins with the SCC header line.
func (r *Reader) Detect(content string) bool {
	return Detect(content)
}

// Read decodes an SCC document. It returns caption.ErrNoCaptions when
// the input yields no captions. Every buffer's position tracker falls
// back to the document's last seen position, so Read does not return
// ErrNoPAC.
func (r *Reader) Read(content string, opts ReadOptions) (*caption.Set, error) {
	lang := opts.Lang
	if lang == "" {
		lang = "en-US"
	}
	r.reset(opts)

	lines := strings.Split(content, "\n")
	if len(lines) > 1 {
		// The first line is the header; it carries no caption data.
		for _, line := range lines[1:] {
			if err := r.translateLine(line); err != nil {
				return nil, err
			}
		}
	}
	if err := r.flushFinal(); err != nil {
		return nil, err
	}

	set := caption.NewSet()
	set.SetCaptions(lang, r.builder.captions())
	if set.Empty() {
		return nil, caption.ErrNoCaptions
	}
	return set, nil
}

func (r *Reader) reset(opts ReadOptions) {
	r.builder = &captionBuilder{}
	r.translator = &timeTranslator{offset: opts.Offset.Microseconds()}
	r.lastCommand = ""
	r.lastPosition = defaultPosition
	r.buffers = map[Mode]*nodeBuffer{
		ModePop:   newNodeBuffer(&r.lastPosition),
		ModePaint: newNodeBuffer(&r.lastPosition),
		ModeRoll:  newNodeBuffer(&r.lastPosition),
	}
	r.active = ModePop
	r.rollRows = nil
	r.rollRowsExpected = 0
	r.simulateRollUp = opts.SimulateRollUp
	r.time = 0
}

func (r *Reader) activeBuffer() *nodeBuffer {
	return r.buffers[r.active]
}

func (r *Reader) replaceActiveBuffer(b *nodeBuffer) {
	r.buffers[r.active] = b
}

func (r *Reader) newBuffer() *nodeBuffer {
	return newNodeBuffer(&r.lastPosition)
}

// setActiveMode switches the active display buffer, first flushing
// whatever implicit content the outgoing mode accumulated.
func (r *Reader) setActiveMode(m Mode) error {
	if m == r.active {
		return nil
	}
	if err := r.flushImplicitBuffers(r.active); err != nil {
		return err
	}
	r.active = m
	return nil
}

// flushImplicitBuffers converts to captions the buffers whose display
// is implicit. Pop-On is explicit (shown only by EOC) and is left
// alone. Roll-Up and Paint-On content may be displayed by a command on
// a later line, so a mode change must not lose it.
func (r *Reader) flushImplicitBuffers(old Mode) error {
	switch old {
	case ModePop:
		return nil
	case ModeRoll:
		if !r.activeBuffer().isEmpty() {
			return r.rollUp()
		}
	case ModePaint:
		if !r.buffers[ModePaint].isEmpty() {
			r.builder.createAndStore(r.buffers[ModePaint], r.time)
		}
	}
	return nil
}

// flushFinal emits whatever the active buffer still holds at the end of
// the document.
func (r *Reader) flushFinal() error {
	if !r.activeBuffer().isEmpty() {
		return r.rollUp()
	}
	return nil
}

func (r *Reader) translateLine(line string) error {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return nil
	}

	// Split into the leading timecode and the codewords after it.
	i := 0
	for i < len(line) && (line[i] == ':' || line[i] == ';' ||
		(line[i] >= '0' && line[i] <= '9')) {
		i++
	}
	stamp := line[:i]
	words := strings.Fields(line[i:])

	// A line consisting of a bare EOC displays a caption composed on
	// earlier lines. Emit it with the previous line's timing and close
	// it at this line's timecode; otherwise Paint-On captions that get
	// their EOC on a separate line end up with no usable timing.
	if len(words) == 1 && words[0] == "942f" {
		if err := r.fixLastTiming(stamp); err != nil {
			return err
		}
	}

	r.translator.startAt(stamp)

	for _, word := range words {
		r.translator.incrementFrames()
		if err := r.translateWord(word); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) fixLastTiming(stamp string) error {
	end := &timeTranslator{offset: r.translator.offset}
	end.startAt(stamp)

	r.builder.createAndStore(r.activeBuffer(), r.translator.time())
	r.builder.correctLastTiming(end.time(), false)
	r.replaceActiveBuffer(r.newBuffer())
	return nil
}

func (r *Reader) translateWord(word string) error {
	if _, ok := commands[word]; ok || isPAC(word) {
		return r.translateCommand(word)
	}
	if chars, ok := specialChars[word]; ok {
		return r.translatePrintableCommand(word, chars)
	}
	if chars, ok := extendedChars[word]; ok {
		return r.translatePrintableCommand(word, chars)
	}
	return r.translateCharacters(word)
}

// handleDoubleCommand suppresses the second of two identical control
// codewords. EIA-608 transmits every control code twice for robustness;
// the effect must apply once.
func (r *Reader) handleDoubleCommand(word string) bool {
	if word == r.lastCommand {
		r.lastCommand = ""
		return true
	}
	r.lastCommand = word
	return false
}

// translatePrintableCommand handles special and extended character
// codewords. These are doubled on the wire like control codes and are
// deduplicated the same way.
func (r *Reader) translatePrintableCommand(word, chars string) error {
	if r.handleDoubleCommand(word) {
		return nil
	}
	return r.activeBuffer().addChars(chars)
}

func (r *Reader) translateCommand(word string) error {
	if r.handleDoubleCommand(word) {
		return nil
	}

	switch word {
	case "9420": // Resume Caption Loading
		return r.setActiveMode(ModePop)

	case "9429": // Resume Direct Captioning
		if err := r.setActiveMode(ModePaint); err != nil {
			return err
		}
		r.rollRowsExpected = 1
		if !r.activeBuffer().isEmpty() {
			r.builder.createAndStore(r.activeBuffer(), r.time)
			r.replaceActiveBuffer(r.newBuffer())
		}
		r.time = r.translator.time()

	case "9425", "9426", "94a7": // Roll-Up 2, 3, 4 rows
		if err := r.setActiveMode(ModeRoll); err != nil {
			return err
		}
		switch word {
		case "9425":
			r.rollRowsExpected = 2
		case "9426":
			r.rollRowsExpected = 3
		case "94a7":
			r.rollRowsExpected = 4
		}
		if !r.activeBuffer().isEmpty() {
			r.builder.createAndStore(r.activeBuffer(), r.time)
			r.replaceActiveBuffer(r.newBuffer())
		}
		r.rollRows = nil
		r.time = r.translator.time()

	case "94ae": // Erase Non-displayed Memory
		r.replaceActiveBuffer(r.newBuffer())

	case "942f": // End Of Caption: display the composed buffer
		r.time = r.translator.time()
		r.builder.createAndStore(r.activeBuffer(), r.time)
		r.replaceActiveBuffer(r.newBuffer())

	case "94ad": // Carriage Return: advance the roll-up window
		if !r.activeBuffer().isEmpty() {
			return r.rollUp()
		}

	case "942c": // Erase Displayed Memory
		r.rollRows = nil
		// Legacy quirk kept for compatibility: the Paint buffer is
		// flushed here regardless of the active mode, and the active
		// slot is the one that gets reset.
		if !r.buffers[ModePaint].isEmpty() {
			r.builder.createAndStore(r.buffers[ModePaint], r.time)
			r.replaceActiveBuffer(r.newBuffer())
		}
		r.builder.correctLastTiming(r.translator.time(), false)

	default:
		return r.activeBuffer().interpretCommand(word)
	}
	return nil
}

func (r *Reader) translateCharacters(word string) error {
	if len(word) != 4 {
		return nil
	}
	c1, ok1 := characters[word[:2]]
	c2, ok2 := characters[word[2:]]
	if !ok1 || !ok2 {
		return nil
	}
	return r.activeBuffer().addChars(c1, c2)
}

// rollUp emits the active buffer as a caption. When simulating roll-up
// displays, the emitted caption is rebuilt from the rows currently
// visible in the roll window.
func (r *Reader) rollUp() error {
	if r.simulateRollUp && r.rollRowsExpected > 1 {
		if len(r.rollRows) >= r.rollRowsExpected {
			r.rollRows = r.rollRows[1:]
		}
		r.rollRows = append(r.rollRows, r.activeBuffer())
		r.replaceActiveBuffer(concatBuffers(r.rollRows, &r.lastPosition))
	}

	r.builder.createAndStore(r.activeBuffer(), r.time)
	r.replaceActiveBuffer(r.newBuffer())

	r.time = r.translator.time()
	r.builder.correctLastTiming(r.time, true)
	return nil
}
