package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

var (
	commentStyle = highlight.Style{Fg: highlight.RGB(0, 0x80, 0)}
	keywordStyle = highlight.Style{Fg: highlight.RGB(0, 0, 0xff), Bold: true}
)

func testHighlighter(t require.TestingT) *highlight.Highlighter {
	rs := highlight.NewRuleSet(highlight.RuleSetDef{
		Delimiters: "{};",
		Spans: []highlight.SpanDef{
			{Name: "BlockComment", Begin: "/*", End: "*/", Style: commentStyle},
			{Name: "LineComment", Begin: "//", StopAtEOL: true, Style: commentStyle},
		},
		Keywords: map[string]highlight.Style{"int": keywordStyle},
	})
	h, diags := highlight.NewHighlighter(highlight.Definition{Name: "Test", RuleSets: []*highlight.RuleSet{rs}})
	require.Empty(t, diags)
	return h
}

func TestGeometry(t *testing.T) {
	b := New("ab\ncd\n")
	require.Equal(t, 3, b.LineCount())
	assert.Equal(t, 6, b.Len())
	assert.Equal(t, "cd", b.Line(1))
	assert.Equal(t, "", b.Line(2))

	seg := b.LineSegment(1)
	assert.Equal(t, 3, seg.Offset)
	assert.Equal(t, 2, seg.Length)

	assert.Equal(t, 'c', b.CharAt(3))
	assert.Equal(t, '\n', b.CharAt(2))

	tests := []struct {
		offset int
		want   int
	}{
		{-1, 0}, {0, 0}, {2, 0}, {3, 1}, {5, 1}, {6, 2}, {100, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.LineNumberForOffset(tt.offset), "offset %d", tt.offset)
	}
	assert.Equal(t, []int{0, 1, 2}, b.DirtyLines(), "new lines start dirty")
}

func TestEdits(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		edit      func(b *Buffer) error
		want      string
		wantDirty []int
	}{
		{"insert in line", "ab\ncd", func(b *Buffer) error { return b.Insert(1, "X") }, "aXb\ncd", []int{0}},
		{"insert lines", "a\nb\nc", func(b *Buffer) error { return b.Insert(2, "x\ny\n") }, "a\nx\ny\nb\nc", []int{1, 2, 3}},
		{"remove newline", "ab\ncd", func(b *Buffer) error { return b.Remove(2, 1) }, "abcd", []int{0}},
		{"replace across lines", "one\ntwo\nthree", func(b *Buffer) error { return b.Replace(2, 6, "-") }, "on-three", []int{0}},
		{"append at end", "a", func(b *Buffer) error { return b.Insert(1, "\n") }, "a\n", []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.text)
			b.TakeDirtyLines()
			require.NoError(t, tt.edit(b))
			assert.Equal(t, tt.want, b.Text())
			assert.Equal(t, tt.wantDirty, b.DirtyLines())
		})
	}
}

func TestEditErrors(t *testing.T) {
	b := New("abc")
	assert.True(t, errors.Is(b.Insert(4, "x"), ErrOutOfRange))
	assert.True(t, errors.Is(b.Insert(-1, "x"), ErrOutOfRange))
	assert.True(t, errors.Is(b.Remove(2, 5), ErrOutOfRange))
	assert.True(t, errors.Is(b.Replace(0, -1, ""), ErrOutOfRange))
	assert.Equal(t, "abc", b.Text())
}

func TestDirtyLinesShift(t *testing.T) {
	b := New("a\nb\nc\nd")
	b.TakeDirtyLines()
	require.NoError(t, b.Insert(6, "z"))
	require.NoError(t, b.Remove(0, 2))

	assert.Equal(t, "b\nc\nzd", b.Text())
	assert.Equal(t, []int{0, 2}, b.TakeDirtyLines())
	assert.Empty(t, b.DirtyLines())
}

func TestSetTextPreservesUnchangedLines(t *testing.T) {
	h := testHighlighter(t)
	b := New("int a;\nint b;\nint c;\nint d;")
	h.MarkAll(b)
	b.TakeDirtyLines()
	kept := b.Words(3)

	b.SetText("int a;\nint x;\nint y;\nint c;\nint d;")
	assert.Equal(t, "int x;", b.Line(1))
	assert.Equal(t, []int{1, 2, 3}, b.DirtyLines())
	assert.Equal(t, kept, b.Words(4), "unchanged lines keep their tokens")

	b.SetText(b.Text())
	assert.Equal(t, []int{1, 2, 3}, b.DirtyLines(), "identical text is a no-op")
}

func TestSetTextDeletion(t *testing.T) {
	b := New("a\nb\nc")
	b.TakeDirtyLines()
	b.SetText("a\nc")
	assert.Equal(t, 2, b.LineCount())
	assert.Equal(t, []int{1}, b.DirtyLines(), "the line after a deletion is rescanned")

	b.SetText("")
	assert.Equal(t, 1, b.LineCount())
	assert.Equal(t, "", b.Line(0))
}

func TestUpdateBracket(t *testing.T) {
	b := New("x")
	var got [][]highlight.Repaint
	b.OnRepaint(func(rs []highlight.Repaint) { got = append(got, rs) })

	b.BeginUpdate()
	b.RequestRepaint(highlight.SingleLine(2))
	b.CommitRepaint()
	assert.Empty(t, got, "held while the bracket is open")
	b.RequestRepaint(highlight.SingleLine(1))
	b.RequestRepaint(highlight.SingleLine(2))
	b.EndUpdate()
	require.Len(t, got, 1)
	assert.Equal(t, []highlight.Repaint{highlight.SingleLine(1), highlight.SingleLine(2)}, got[0])

	got = nil
	b.BeginUpdate()
	b.BeginUpdate()
	b.RequestRepaint(highlight.SingleLine(3))
	b.RequestRepaint(highlight.WholeArea())
	b.RequestRepaint(highlight.SingleLine(4))
	b.EndUpdate()
	assert.True(t, b.InUpdate())
	assert.Empty(t, got)
	b.EndUpdate()
	assert.Equal(t, [][]highlight.Repaint{{highlight.WholeArea()}}, got)

	got = nil
	b.EndUpdate()
	b.CommitRepaint()
	assert.Empty(t, got, "nothing queued")
}

func TestRescanInsideComment(t *testing.T) {
	h := testHighlighter(t)
	b := New("/* a\nb\nc */\nint")
	h.MarkAll(b)
	b.TakeDirtyLines()

	var got []highlight.Repaint
	b.OnRepaint(func(rs []highlight.Repaint) { got = append(got, rs...) })

	require.NoError(t, b.Insert(6, "b"))
	assert.False(t, h.MarkDirty(b, b.TakeDirtyLines()))
	assert.Equal(t, []highlight.Repaint{highlight.SingleLine(1)}, got)

	got = nil
	require.NoError(t, b.Remove(0, 2))
	assert.True(t, h.MarkDirty(b, b.TakeDirtyLines()))
	assert.Equal(t, []highlight.Repaint{highlight.WholeArea()}, got)
	assert.Nil(t, b.SpanStack(0))
	assert.Equal(t, keywordStyle, b.Words(3)[0].Style)
}

func TestInsertLinesInsideComment(t *testing.T) {
	h := testHighlighter(t)
	b := New("/* a\nb\nc */\nint")
	h.MarkAll(b)
	b.TakeDirtyLines()

	var got []highlight.Repaint
	b.OnRepaint(func(rs []highlight.Repaint) { got = append(got, rs...) })

	require.NoError(t, b.Insert(5, "new\nmore\n"))
	require.Equal(t, []int{1, 2, 3}, b.DirtyLines())
	assert.False(t, h.MarkDirty(b, b.TakeDirtyLines()), "stacks inside the comment are unchanged")
	assert.Equal(t, []highlight.Repaint{highlight.SingleLine(1), highlight.SingleLine(2), highlight.SingleLine(3)}, got)
	assert.Equal(t, 1, b.SpanStack(2).Len())

	got = nil
	b.SetText("/* a\nnew\nmore\nextra\nb\nc */\nint")
	assert.Equal(t, []int{3, 4}, b.DirtyLines())
	assert.False(t, h.MarkDirty(b, b.TakeDirtyLines()))
	assert.Equal(t, []highlight.Repaint{highlight.SingleLine(3), highlight.SingleLine(4)}, got)
	assert.Equal(t, commentStyle.Fg, b.Words(3)[0].Style.Fg)
}

func assertMatchesFullScan(t *rapid.T, h *highlight.Highlighter, b *Buffer) {
	fresh := New(b.Text())
	h.MarkAll(fresh)
	require.Equal(t, fresh.LineCount(), b.LineCount())
	for i := 0; i < b.LineCount(); i++ {
		if diff := cmp.Diff(fresh.Words(i), b.Words(i)); diff != "" {
			t.Fatalf("line %d %q mismatch (-full +incremental):\n%s", i, b.Line(i), diff)
		}
		require.True(t, highlight.BlockEqual(fresh.SpanStack(i), b.SpanStack(i)), "line %d stack", i)
	}
}

func TestIncrementalEditsMatchFullScan(t *testing.T) {
	fragments := []string{"/*", "*/", "//", "int", " ", "x", ";", "\n"}
	genText := rapid.Custom(func(t *rapid.T) string {
		parts := rapid.SliceOfN(rapid.SampledFrom(fragments), 0, 12).Draw(t, "parts")
		return strings.Join(parts, "")
	})

	rapid.Check(t, func(t *rapid.T) {
		h := testHighlighter(t)
		b := New(genText.Draw(t, "text"))
		h.MarkAll(b)
		b.TakeDirtyLines()

		steps := rapid.IntRange(1, 6).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "setText") {
				b.SetText(genText.Draw(t, "newText"))
			} else {
				off := rapid.IntRange(0, b.Len()).Draw(t, "offset")
				n := rapid.IntRange(0, b.Len()-off).Draw(t, "length")
				require.NoError(t, b.Replace(off, n, genText.Draw(t, "insert")))
			}
			h.MarkDirty(b, b.TakeDirtyLines())
			assertMatchesFullScan(t, h, b)
		}
	})
}
