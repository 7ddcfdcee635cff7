package scc

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zsiec/sccodec/caption"
)

// toleranceMicros allows for the frame-counting slack between a line's
// timecode and the moment its EOC is transmitted.
const toleranceMicros = 500 * 1000

const sampleSCC = `Scenarist_SCC V1.0

00:00:09:05 94ae 94ae 9420 9420 9470 9470 a820 e3ec efe3 6b20 f4e9 e36b e96e 6720 2980 942c 942c 942f 942f

00:00:12:08 942c 942c

00:00:13:18 94ae 94ae 9420 9420 1370 1370 cdc1 ceba 94d0 94d0 5768 e56e 20f7 e520 f468 e96e 6b80 9470 9470 efe6 20a2 4520 e5f1 7561 ec73 206d 20e3 ad73 f175 61f2 e564 a22c 942c 942c 942f 942f

00:00:16:03 94ae 94ae 9420 9420 9470 9470 f7e5 2068 6176 e520 f468 e973 2076 e973 e9ef 6e20 efe6 2045 e96e 73f4 e5e9 6e80 942c 942c 942f 942f

00:00:17:20 94ae 94ae 9420 9420 94d0 94d0 6173 2061 6e20 efec 642c 20f7 f2e9 6e6b ec79 206d 616e 9470 9470 f7e9 f468 20f7 68e9 f4e5 2068 61e9 f2ae 942c 942c 942f 942f

00:00:19:13 94ae 94ae 9420 9420 1370 1370 cdc1 ce20 32ba 94d0 94d0 4520 e5f1 7561 ec73 206d 20e3 ad73 f175 61f2 e564 20e9 7380 9470 9470 6eef f420 6162 ef75 f420 616e 20ef ec64 2045 e96e 73f4 e5e9 6eae 942c 942c 942f 942f

00:00:25:16 94ae 94ae 9420 9420 1370 1370 cdc1 ce20 32ba 94d0 94d0 49f4 a773 2061 ecec 2061 62ef 75f4 2061 6e20 e5f4 e5f2 6e61 ec80 9470 9470 45e9 6e73 f4e5 e96e ae80 942c 942c 942f 942f

00:00:31:15 94ae 94ae 9420 9420 9470 9470 bc4c c1d5 c7c8 49ce c720 2620 57c8 4f4f d0d3 a13e 942c 942c 942f 942f

00:00:36:04 942c 942c

`

func readSample(t *testing.T, opts ReadOptions) []*caption.Caption {
	t.Helper()
	set, err := NewReader().Read(sampleSCC, opts)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	lang := opts.Lang
	if lang == "" {
		lang = "en-US"
	}
	return set.Captions(lang)
}

func TestDetect(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"sample", sampleSCC, true},
		{"header only", "Scenarist_SCC V1.0\n", true},
		{"crlf header", "Scenarist_SCC V1.0\r\nrest", true},
		{"srt", "1\n00:00:01,000 --> 00:00:02,000\nhi\n", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		if got := Detect(tc.content); got != tc.want {
			t.Errorf("%s: Detect = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestReadCaptionCount(t *testing.T) {
	caps := readSample(t, ReadOptions{})
	if len(caps) != 7 {
		t.Fatalf("got %d captions, want 7", len(caps))
	}
}

func TestReadTimestamps(t *testing.T) {
	caps := readSample(t, ReadOptions{})
	third := caps[2]

	if d := abs64(third.Start - 17000000); d >= toleranceMicros {
		t.Errorf("caption 2 start %d, want within %d of 17000000", third.Start, toleranceMicros)
	}
	if d := abs64(third.End - 18752000); d >= toleranceMicros {
		t.Errorf("caption 2 end %d, want within %d of 18752000", third.End, toleranceMicros)
	}
}

func TestReadTimingInvariants(t *testing.T) {
	caps := readSample(t, ReadOptions{})

	var prevStart int64
	for i, c := range caps {
		if c.Start < prevStart {
			t.Errorf("caption %d start %d before predecessor %d", i, c.Start, prevStart)
		}
		prevStart = c.Start

		if c.End == 0 && i != len(caps)-1 {
			t.Errorf("caption %d has no end time", i)
		}
		if c.End != 0 && c.End < c.Start {
			t.Errorf("caption %d ends at %d before start %d", i, c.End, c.Start)
		}
		if len(c.Nodes) == 0 {
			t.Errorf("caption %d has no nodes", i)
		}
		if strings.TrimSpace(c.Text()) == "" {
			t.Errorf("caption %d has no text", i)
		}
	}
}

func TestReadSampleText(t *testing.T) {
	caps := readSample(t, ReadOptions{})

	if got, want := caps[0].Text(), "( clock ticking )"; got != want {
		t.Errorf("caption 0 text %q, want %q", got, want)
	}
	if got, want := caps[6].Text(), "<LAUGHING & WHOOPS!>"; got != want {
		t.Errorf("caption 6 text %q, want %q", got, want)
	}
	// The multi-row captions carry their rows as explicit breaks.
	if got, want := caps[1].Text(), "MAN:\nWhen we think\nof \"E equals m c-squared\","; got != want {
		t.Errorf("caption 1 text %q, want %q", got, want)
	}
}

func TestReadEmptyFile(t *testing.T) {
	_, err := NewReader().Read("Scenarist_SCC V1.0\n", ReadOptions{})
	if !errors.Is(err, caption.ErrNoCaptions) {
		t.Fatalf("err = %v, want ErrNoCaptions", err)
	}
}

func TestReadPopOnSingleLine(t *testing.T) {
	const doc = "Scenarist_SCC V1.0\n\n" +
		"00:00:01:00\t9420 9420 9470 9470 c8e5 ecec ef80 942c 942c 942f 942f\n"

	set, err := NewReader().Read(doc, ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	caps := set.Captions("en-US")
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}
	if got := caps[0].Text(); got != "Hello" {
		t.Errorf("text %q, want %q", got, "Hello")
	}

	// The EOC is the 10th codeword after the 00:00:01:00 timecode, so
	// the start is 1s of NDF timecode plus ten frames, scaled by
	// 1001/1000.
	wantSeconds := (1 + 10.0/30) * 1.001
	want := int64(wantSeconds * 1e6)
	if d := abs64(caps[0].Start - want); d > 1 {
		t.Errorf("start %d, want %d", caps[0].Start, want)
	}
	if caps[0].End != 0 {
		t.Errorf("end %d, want 0 for a final open caption", caps[0].End)
	}
}

func TestReadDropFrameTiming(t *testing.T) {
	const body = "\t9420 9420 9470 9470 c8e5 ecec ef80 942c 942c 942f 942f\n"

	ndf, err := NewReader().Read("Scenarist_SCC V1.0\n\n00:00:10:00"+body, ReadOptions{})
	if err != nil {
		t.Fatalf("Read NDF: %v", err)
	}
	df, err := NewReader().Read("Scenarist_SCC V1.0\n\n00:00:10;00"+body, ReadOptions{})
	if err != nil {
		t.Fatalf("Read DF: %v", err)
	}

	ndfStart := ndf.Captions("en-US")[0].Start
	dfStart := df.Captions("en-US")[0].Start
	ratio := float64(ndfStart) / float64(dfStart)
	if ratio < 1.000999 || ratio > 1.001001 {
		t.Errorf("NDF/DF start ratio = %v, want 1.001", ratio)
	}
}

func TestReadOffset(t *testing.T) {
	const doc = "Scenarist_SCC V1.0\n\n" +
		"00:00:10:00\t9420 9420 9470 9470 c8e5 ecec ef80 942c 942c 942f 942f\n"

	plain, err := NewReader().Read(doc, ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	shifted, err := NewReader().Read(doc, ReadOptions{Offset: 2 * time.Second})
	if err != nil {
		t.Fatalf("Read with offset: %v", err)
	}

	want := plain.Captions("en-US")[0].Start - 2000000
	if got := shifted.Captions("en-US")[0].Start; got != want {
		t.Errorf("shifted start %d, want %d", got, want)
	}
}

func TestDoubleCommandSuppression(t *testing.T) {
	// The doubled special character must print once, and the doubled
	// PAC must not register as a reposition.
	const doc = "Scenarist_SCC V1.0\n\n" +
		"00:00:01:00\t9420 9420 9470 9470 91b0 91b0 942f 942f\n"

	set, err := NewReader().Read(doc, ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	caps := set.Captions("en-US")
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}
	if got := caps[0].Text(); got != "®" {
		t.Errorf("text %q, want single ®", got)
	}
}

func TestReadLineBreakFromAdjacentRows(t *testing.T) {
	const doc = "Scenarist_SCC V1.0\n\n" +
		"00:00:01:00\t9420 9420 94d0 94d0 c180 9470 9470 c280 942f 942f\n"

	set, err := NewReader().Read(doc, ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	caps := set.Captions("en-US")
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1 (adjacent rows are one caption)", len(caps))
	}
	if got := caps[0].Text(); got != "A\nB" {
		t.Errorf("text %q, want %q", got, "A\nB")
	}
}

func TestReadRepositionSplitsCaption(t *testing.T) {
	// Row 1 to row 15 is a cursor jump, not a line wrap.
	const doc = "Scenarist_SCC V1.0\n\n" +
		"00:00:01:00\t9420 9420 91d0 91d0 c180 9470 9470 c280 942f 942f\n"

	set, err := NewReader().Read(doc, ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	caps := set.Captions("en-US")
	if len(caps) != 2 {
		t.Fatalf("got %d captions, want 2", len(caps))
	}
	if caps[0].Text() != "A" || caps[1].Text() != "B" {
		t.Errorf("texts %q, %q, want A and B", caps[0].Text(), caps[1].Text())
	}
	if caps[0].Start != caps[1].Start {
		t.Errorf("split captions have different starts: %d vs %d", caps[0].Start, caps[1].Start)
	}
	if y := caps[1].Layout.OriginY; y < 90 {
		t.Errorf("second caption OriginY = %v, want bottom of grid", y)
	}
}

func TestReadMidRowItalics(t *testing.T) {
	const doc = "Scenarist_SCC V1.0\n\n" +
		"00:00:01:00\t9420 9420 9470 9470 91ae 91ae c8e9 942c 942c 942f 942f\n"

	set, err := NewReader().Read(doc, ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	caps := set.Captions("en-US")
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}

	nodes := caps[0].Nodes
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want style/text/style", len(nodes))
	}
	open, ok := nodes[0].(*caption.StyleNode)
	if !ok || !open.Start || !open.Italics {
		t.Errorf("first node %#v, want italics on", nodes[0])
	}
	if text, ok := nodes[1].(*caption.TextNode); !ok || text.Text != "Hi" {
		t.Errorf("middle node %#v, want text Hi", nodes[1])
	}
	closing, ok := nodes[2].(*caption.StyleNode)
	if !ok || closing.Start || !closing.Italics {
		t.Errorf("last node %#v, want italics off", nodes[2])
	}

	// No two adjacent style nodes of the same polarity.
	for i := 1; i < len(nodes); i++ {
		a, okA := nodes[i-1].(*caption.StyleNode)
		b, okB := nodes[i].(*caption.StyleNode)
		if okA && okB && a.Start == b.Start {
			t.Errorf("adjacent style nodes of same polarity at %d", i)
		}
	}
}

func TestReadSimulateRollUp(t *testing.T) {
	const doc = "Scenarist_SCC V1.0\n\n" +
		"00:00:01:00\t9426 9426 94ad 94ad 9470 9470 c180\n\n" +
		"00:00:02:00\t94ad 94ad 9470 9470 c280\n\n" +
		"00:00:03:00\t94ad 94ad 9470 9470 4380\n\n" +
		"00:00:04:00\t94ad 94ad 9470 9470 c480\n"

	set, err := NewReader().Read(doc, ReadOptions{SimulateRollUp: true})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	caps := set.Captions("en-US")
	if len(caps) != 4 {
		t.Fatalf("got %d captions, want 4", len(caps))
	}
	want := []string{"A", "A B", "A B C", "B C D"}
	for i, c := range caps {
		if c.Text() != want[i] {
			t.Errorf("caption %d text %q, want %q", i, c.Text(), want[i])
		}
	}
}

func TestReadRollUpWithoutSimulation(t *testing.T) {
	const doc = "Scenarist_SCC V1.0\n\n" +
		"00:00:01:00\t9426 9426 94ad 94ad 9470 9470 c180\n\n" +
		"00:00:02:00\t94ad 94ad 9470 9470 c280\n"

	set, err := NewReader().Read(doc, ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	caps := set.Captions("en-US")
	if len(caps) != 2 {
		t.Fatalf("got %d captions, want 2", len(caps))
	}
	if caps[0].Text() != "A" || caps[1].Text() != "B" {
		t.Errorf("texts %q, %q, want A and B", caps[0].Text(), caps[1].Text())
	}
	// The roll-up backfills the previous caption's end with force.
	if caps[0].End != caps[1].Start {
		t.Errorf("caption 0 end %d, want %d", caps[0].End, caps[1].Start)
	}
}

func TestReaderReuse(t *testing.T) {
	r := NewReader()
	for i := 0; i < 2; i++ {
		set, err := r.Read(sampleSCC, ReadOptions{})
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if got := len(set.Captions("en-US")); got != 7 {
			t.Fatalf("Read %d: got %d captions, want 7", i, got)
		}
	}
}

func TestReadCustomLang(t *testing.T) {
	set, err := NewReader().Read(sampleSCC, ReadOptions{Lang: "de-DE"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := len(set.Captions("de-DE")); got != 7 {
		t.Errorf("got %d captions under de-DE, want 7", got)
	}
	if set.Captions("en-US") != nil {
		t.Error("captions unexpectedly stored under en-US")
	}
}

func FuzzRead(f *testing.F) {
	f.Add(sampleSCC)
	f.Add("Scenarist_SCC V1.0\n")
	f.Add("Scenarist_SCC V1.0\n\n00:00:01:00\t9420 942f\n")
	f.Add("garbage\n\nnot:a:time\tzzzz 9420\n")
	f.Fuzz(func(t *testing.T, content string) {
		// Must not panic; errors are expected for most inputs.
		NewReader().Read(content, ReadOptions{})
		NewReader().Read(content, ReadOptions{SimulateRollUp: true})
		Detect(content)
	})
}

func BenchmarkRead(b *testing.B) {
	r := NewReader()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := r.Read(sampleSCC, ReadOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
