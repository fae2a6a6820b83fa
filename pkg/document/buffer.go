// Package document provides an in-memory text buffer that the highlighter
// can scan incrementally.
package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

// ErrOutOfRange is returned for edits outside the buffer.
var ErrOutOfRange = errors.New("offset out of range")

type line struct {
	text  []rune
	words []highlight.TextWord
	stack *highlight.SpanStack
}

// Buffer is a line-oriented text buffer implementing highlight.Document.
// Lines are separated by a single '\n', which counts as one offset position.
// Edits record the lines they touch as dirty so a caller can hand them to
// MarkDirty. A Buffer is not safe for concurrent use.
type Buffer struct {
	lines  []*line
	starts []int
	dirty  map[int]bool

	updateLevel int
	whole       bool
	pending     []int
	queued      map[int]bool
	onRepaint   func([]highlight.Repaint)
}

var _ highlight.Document = (*Buffer)(nil)

// New creates a buffer holding text. Every line starts dirty.
func New(text string) *Buffer {
	b := &Buffer{dirty: map[int]bool{}, queued: map[int]bool{}}
	b.lines = makeLines(text)
	b.reindex()
	for i := range b.lines {
		b.dirty[i] = true
	}
	return b
}

func makeLines(text string) []*line {
	parts := strings.Split(text, "\n")
	out := make([]*line, len(parts))
	for i, p := range parts {
		out[i] = &line{text: []rune(p)}
	}
	return out
}

func (b *Buffer) reindex() {
	b.starts = b.starts[:0]
	off := 0
	for _, l := range b.lines {
		b.starts = append(b.starts, off)
		off += len(l.text) + 1
	}
}

// Len returns the number of offset positions, delimiters included.
func (b *Buffer) Len() int {
	last := len(b.lines) - 1
	return b.starts[last] + len(b.lines[last].text)
}

// Text returns the whole buffer.
func (b *Buffer) Text() string {
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = string(l.text)
	}
	return strings.Join(parts, "\n")
}

// Line returns the text of line n without its delimiter.
func (b *Buffer) Line(n int) string { return string(b.lines[n].text) }

// Words returns the tokens last stored for line n.
func (b *Buffer) Words(n int) []highlight.TextWord { return b.lines[n].words }

// SpanStack returns the outgoing span stack last stored for line n.
func (b *Buffer) SpanStack(n int) *highlight.SpanStack { return b.lines[n].stack }

func (b *Buffer) CharAt(offset int) rune {
	n := b.LineNumberForOffset(offset)
	col := offset - b.starts[n]
	if col < 0 || col >= len(b.lines[n].text) {
		return '\n'
	}
	return b.lines[n].text[col]
}

func (b *Buffer) LineCount() int { return len(b.lines) }

func (b *Buffer) LineSegment(n int) highlight.LineSegment {
	l := b.lines[n]
	return highlight.LineSegment{
		Offset:    b.starts[n],
		Length:    len(l.text),
		Words:     l.words,
		SpanStack: l.stack,
	}
}

func (b *Buffer) SetLineHighlight(n int, words []highlight.TextWord, stack *highlight.SpanStack) {
	b.lines[n].words = words
	b.lines[n].stack = stack
}

// LineNumberForOffset returns the line containing offset, clamped to the
// buffer.
func (b *Buffer) LineNumberForOffset(offset int) int {
	n := sort.Search(len(b.starts), func(i int) bool { return b.starts[i] > offset }) - 1
	if n < 0 {
		return 0
	}
	return n
}

// position converts an offset to a line and column.
func (b *Buffer) position(offset int) (int, int, error) {
	if offset < 0 || offset > b.Len() {
		return 0, 0, fmt.Errorf("%w: %d", ErrOutOfRange, offset)
	}
	n := b.LineNumberForOffset(offset)
	return n, offset - b.starts[n], nil
}

// Insert inserts text at offset.
func (b *Buffer) Insert(offset int, text string) error {
	return b.Replace(offset, 0, text)
}

// Remove deletes length positions starting at offset.
func (b *Buffer) Remove(offset, length int) error {
	return b.Replace(offset, length, "")
}

// Replace replaces length positions starting at offset with text. An edit
// confined to one line keeps that line's stored highlight state so a
// rescan can tell whether its outgoing span stack changed.
func (b *Buffer) Replace(offset, length int, text string) error {
	if length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrOutOfRange, length)
	}
	l0, c0, err := b.position(offset)
	if err != nil {
		return err
	}
	l1, c1, err := b.position(offset + length)
	if err != nil {
		return err
	}

	first, last := b.lines[l0], b.lines[l1]
	joined := string(first.text[:c0]) + text + string(last.text[c1:])

	if l0 == l1 && !strings.Contains(text, "\n") {
		first.text = []rune(joined)
		b.reindex()
		b.dirty[l0] = true
		return nil
	}

	fresh := makeLines(joined)
	// Replacement lines start from the edited line's old stack, the last one
	// from the stack the following line was scanned against.
	for _, l := range fresh {
		l.stack = first.stack
	}
	fresh[len(fresh)-1].stack = last.stack

	removed := l1 - l0 + 1
	delta := len(fresh) - removed
	lines := make([]*line, 0, len(b.lines)+delta)
	lines = append(lines, b.lines[:l0]...)
	lines = append(lines, fresh...)
	lines = append(lines, b.lines[l1+1:]...)
	b.lines = lines
	b.reindex()

	dirty := make(map[int]bool, len(b.dirty)+len(fresh))
	for n := range b.dirty {
		switch {
		case n < l0:
			dirty[n] = true
		case n > l1:
			dirty[n+delta] = true
		}
	}
	for i := range fresh {
		dirty[l0+i] = true
	}
	b.dirty = dirty
	return nil
}

// SetText replaces the whole buffer. Lines the line diff reports as
// unchanged keep their highlight state; inserted lines and the first
// unchanged line after each changed region are marked dirty.
func (b *Buffer) SetText(text string) {
	oldText := b.Text()
	if oldText == text {
		return
	}

	dmp := diffmatchpatch.New()
	// A trailing newline makes every line, the last included, end in '\n'.
	chars1, chars2, lineArray := dmp.DiffLinesToChars(oldText+"\n", text+"\n")
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	old := b.lines
	var lines []*line
	dirty := map[int]bool{}
	oldIdx := 0
	changed := false
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			for i := 0; i < n; i++ {
				if oldIdx+i < len(old) && b.dirty[oldIdx+i] {
					dirty[len(lines)+i] = true
				}
			}
			if changed && n > 0 {
				dirty[len(lines)] = true
			}
			lines = append(lines, old[oldIdx:oldIdx+n]...)
			oldIdx += n
			changed = false
		case diffmatchpatch.DiffDelete:
			oldIdx += n
			changed = true
		case diffmatchpatch.DiffInsert:
			var stack *highlight.SpanStack
			if len(lines) > 0 {
				stack = lines[len(lines)-1].stack
			}
			for _, s := range strings.SplitAfter(d.Text, "\n")[:n] {
				dirty[len(lines)] = true
				lines = append(lines, &line{text: []rune(strings.TrimSuffix(s, "\n")), stack: stack})
			}
			changed = true
		}
	}
	b.lines = lines
	b.reindex()
	b.dirty = dirty
}

// DirtyLines returns the lines edited since the last TakeDirtyLines, in
// ascending order.
func (b *Buffer) DirtyLines() []int {
	out := make([]int, 0, len(b.dirty))
	for n := range b.dirty {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// TakeDirtyLines returns the dirty lines and clears the set.
func (b *Buffer) TakeDirtyLines() []int {
	out := b.DirtyLines()
	b.dirty = map[int]bool{}
	return out
}

// OnRepaint sets the callback receiving flushed repaint requests.
func (b *Buffer) OnRepaint(fn func([]highlight.Repaint)) { b.onRepaint = fn }

// BeginUpdate opens an update bracket. Repaints are held until the
// outermost bracket closes.
func (b *Buffer) BeginUpdate() { b.updateLevel++ }

// EndUpdate closes an update bracket and flushes queued repaints when it was
// the outermost one.
func (b *Buffer) EndUpdate() {
	if b.updateLevel == 0 {
		return
	}
	b.updateLevel--
	if b.updateLevel == 0 {
		b.CommitRepaint()
	}
}

// InUpdate reports whether an update bracket is open.
func (b *Buffer) InUpdate() bool { return b.updateLevel > 0 }

// RequestRepaint queues r. A whole-area request subsumes every line request.
func (b *Buffer) RequestRepaint(r highlight.Repaint) {
	if b.whole {
		return
	}
	if r.Kind == highlight.RepaintWholeArea {
		b.whole = true
		b.pending = nil
		b.queued = map[int]bool{}
		return
	}
	if !b.queued[r.Line] {
		b.queued[r.Line] = true
		b.pending = append(b.pending, r.Line)
	}
}

// CommitRepaint flushes queued repaints to the OnRepaint callback unless an
// update bracket is open.
func (b *Buffer) CommitRepaint() {
	if b.updateLevel > 0 {
		return
	}
	var out []highlight.Repaint
	if b.whole {
		out = []highlight.Repaint{highlight.WholeArea()}
	} else {
		sort.Ints(b.pending)
		for _, n := range b.pending {
			out = append(out, highlight.SingleLine(n))
		}
	}
	b.whole = false
	b.pending = nil
	b.queued = map[int]bool{}
	if len(out) > 0 && b.onRepaint != nil {
		b.onRepaint(out)
	}
}
