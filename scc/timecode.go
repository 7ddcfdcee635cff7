package scc

import (
	"math"
	"strconv"
	"strings"
)

// timeTranslator converts SCC timecodes to microseconds, counting the
// frames consumed since the line's timecode was set. One codeword is
// transmitted per frame, so the frame counter advances per word.
type timeTranslator struct {
	hours      int
	minutes    int
	seconds    int
	frameField int
	dropFrame  bool

	frames int
	offset int64 // microseconds subtracted from every result
}

// startAt resets the translator to the given timecode and clears the
// frame counter. Missing or malformed fields parse as zero; the reader
// is lenient about damaged lines.
func (t *timeTranslator) startAt(stamp string) {
	t.frames = 0
	t.dropFrame = strings.ContainsRune(stamp, ';')

	var nums [4]int
	fields := strings.FieldsFunc(stamp, func(r rune) bool {
		return r == ':' || r == ';'
	})
	for i := 0; i < len(fields) && i < len(nums); i++ {
		nums[i], _ = strconv.Atoi(fields[i])
	}
	t.hours, t.minutes, t.seconds, t.frameField = nums[0], nums[1], nums[2], nums[3]
}

// incrementFrames records that one codeword was consumed.
func (t *timeTranslator) incrementFrames() {
	t.frames++
}

// time returns the current time in microseconds. The accumulated frame
// count is added to the frame field without carry, so the field may
// exceed 30; this matches how SCC authoring tools count. Non-drop-frame
// timecode runs slow by 1001/1000 relative to the wall clock.
func (t *timeTranslator) time() int64 {
	scale := 1001.0 / 1000.0
	if t.dropFrame {
		scale = 1.0
	}

	frames := float64(t.frameField + t.frames)
	tcSeconds := float64(t.hours)*3600 + float64(t.minutes)*60 +
		float64(t.seconds) + frames/30

	micro := int64(math.Round(tcSeconds*scale*1e6)) - t.offset
	if micro < 0 {
		micro = 0
	}
	return micro
}
