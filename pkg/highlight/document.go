package highlight

// LineSegment is the highlighter's view of one document line. Offset is the
// document offset of the first character and Length excludes the line
// delimiter. A Length of -1 means the document content is not settled yet.
type LineSegment struct {
	Offset    int
	Length    int
	Words     []TextWord
	SpanStack *SpanStack
}

// RepaintKind distinguishes repaint requests.
type RepaintKind int

const (
	RepaintWholeArea RepaintKind = iota
	RepaintSingleLine
)

// Repaint is a request to redraw part of the view.
type Repaint struct {
	Kind RepaintKind
	Line int // for RepaintSingleLine
}

// WholeArea requests a repaint of everything.
func WholeArea() Repaint { return Repaint{Kind: RepaintWholeArea} }

// SingleLine requests a repaint of line n.
func SingleLine(n int) Repaint { return Repaint{Kind: RepaintSingleLine, Line: n} }

// Document is the narrow interface the highlighter needs from the text
// storage. The highlighter only reads characters and line geometry and
// writes back each line's words and outgoing span stack.
type Document interface {
	CharAt(offset int) rune
	LineCount() int
	LineSegment(line int) LineSegment
	SetLineHighlight(line int, words []TextWord, stack *SpanStack)
	LineNumberForOffset(offset int) int

	// RequestRepaint queues a repaint; CommitRepaint flushes the queue
	// unless the document is inside an update bracket.
	RequestRepaint(r Repaint)
	CommitRepaint()
}
