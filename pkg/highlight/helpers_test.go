package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	keywordStyle = Style{Fg: RGB(0x00, 0x00, 0xff), Bold: true}
	commentStyle = Style{Fg: RGB(0x00, 0x80, 0x00)}
	stringStyle  = Style{Fg: RGB(0x80, 0x00, 0x00), Bg: RGB(0xf0, 0xf0, 0xf0)}
	digitStyle   = Style{Fg: RGB(0xff, 0x00, 0x00)}
	markStyle    = Style{Fg: RGB(0x80, 0x00, 0x80)}
	labelStyle   = Style{Fg: RGB(0x00, 0x80, 0x80), Italic: true}
	blockStyle   = Style{Fg: RGB(0x44, 0x44, 0x44)}
)

// testHighlighter is a small C-like grammar: block and line comments,
// strings, a brace block with its own rule set, keywords and markers.
func testHighlighter(t *testing.T) *Highlighter {
	t.Helper()
	top := NewRuleSet(RuleSetDef{
		Delimiters: ",;():.",
		Spans: []SpanDef{
			{Name: "BlockComment", Begin: "/*", End: "*/", Style: commentStyle},
			{Name: "LineComment", Begin: "//", StopAtEOL: true, Style: commentStyle},
			{Name: "String", Begin: `"`, End: `"`, StopAtEOL: true, Style: stringStyle},
			{Name: "Block", Begin: "{", End: "}", Rule: "Inner", Style: blockStyle},
		},
		Keywords: map[string]Style{
			"if":  keywordStyle,
			"int": keywordStyle,
		},
		NextMarkers: []Marker{{Text: "public", Style: markStyle}},
		PrevMarkers: []Marker{{Text: ":", Style: labelStyle}},
	})
	inner := NewRuleSet(RuleSetDef{
		Name:       "Inner",
		Delimiters: ",;",
		Spans: []SpanDef{
			{Name: "Quote", Begin: "'", End: "'", StopAtEOL: true, Style: stringStyle},
		},
		Keywords: map[string]Style{"yes": keywordStyle},
	})
	h, diags := NewHighlighter(Definition{
		Name:       "Test",
		Extensions: []string{".t"},
		DigitStyle: digitStyle,
		RuleSets:   []*RuleSet{top, inner},
	})
	require.Empty(t, diags)
	return h
}

func spanNamed(t *testing.T, h *Highlighter, name string) *Span {
	t.Helper()
	for _, s := range h.Spans() {
		if s.Name() == name {
			return s
		}
	}
	require.FailNow(t, "no span "+name)
	return nil
}

// texts returns the text of each token, with whitespace tokens kept.
func texts(words []TextWord, line string) []string {
	src := []rune(line)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text(src)
	}
	return out
}

// memDoc is an in-memory Document. Lines are separated by "\n".
type memDoc struct {
	text      []rune
	offsets   []int
	lengths   []int
	words     [][]TextWord
	stacks    []*SpanStack
	unsettled map[int]bool

	repaints []Repaint
	commits  int
}

func newMemDoc(src string) *memDoc {
	d := &memDoc{unsettled: map[int]bool{}}
	lines := strings.Split(src, "\n")
	d.words = make([][]TextWord, len(lines))
	d.stacks = make([]*SpanStack, len(lines))
	d.setLines(lines)
	return d
}

func (d *memDoc) setLines(lines []string) {
	d.text = []rune(strings.Join(lines, "\n"))
	d.offsets = d.offsets[:0]
	d.lengths = d.lengths[:0]
	off := 0
	for _, l := range lines {
		n := len([]rune(l))
		d.offsets = append(d.offsets, off)
		d.lengths = append(d.lengths, n)
		off += n + 1
	}
}

func (d *memDoc) lines() []string {
	out := make([]string, len(d.offsets))
	for i := range d.offsets {
		out[i] = string(d.text[d.offsets[i] : d.offsets[i]+d.lengths[i]])
	}
	return out
}

// edit replaces the text of one line, keeping stored highlighting.
func (d *memDoc) edit(line int, text string) {
	ls := d.lines()
	ls[line] = text
	d.setLines(ls)
}

func (d *memDoc) CharAt(offset int) rune { return d.text[offset] }

func (d *memDoc) LineCount() int { return len(d.offsets) }

func (d *memDoc) LineSegment(line int) LineSegment {
	length := d.lengths[line]
	if d.unsettled[line] {
		length = -1
	}
	return LineSegment{
		Offset:    d.offsets[line],
		Length:    length,
		Words:     d.words[line],
		SpanStack: d.stacks[line],
	}
}

func (d *memDoc) SetLineHighlight(line int, words []TextWord, stack *SpanStack) {
	d.words[line] = words
	d.stacks[line] = stack
}

func (d *memDoc) LineNumberForOffset(offset int) int {
	for i := len(d.offsets) - 1; i >= 0; i-- {
		if offset >= d.offsets[i] {
			return i
		}
	}
	return 0
}

func (d *memDoc) RequestRepaint(r Repaint) { d.repaints = append(d.repaints, r) }

func (d *memDoc) CommitRepaint() { d.commits++ }

func (d *memDoc) resetRepaints() {
	d.repaints = nil
	d.commits = 0
}
