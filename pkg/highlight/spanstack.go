package highlight

// SpanStack is an immutable stack of open spans, innermost on top. The nil
// pointer is the empty stack; operations never return a non-nil empty stack,
// so "no open spans" always compares equal to nil.
type SpanStack struct {
	span  *Span
	below *SpanStack
	depth int
}

// Push returns a new stack with span on top of s.
func (s *SpanStack) Push(span *Span) *SpanStack {
	return &SpanStack{span: span, below: s, depth: s.Len() + 1}
}

// Pop returns the stack without its top entry.
func (s *SpanStack) Pop() *SpanStack {
	if s == nil {
		return nil
	}
	return s.below
}

// Peek returns the top span, or nil for the empty stack.
func (s *SpanStack) Peek() *Span {
	if s == nil {
		return nil
	}
	return s.span
}

// Len returns the number of open spans.
func (s *SpanStack) Len() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// IsEmpty reports whether the stack holds no spans.
func (s *SpanStack) IsEmpty() bool { return s == nil }

// Spans returns the open spans from top to bottom.
func (s *SpanStack) Spans() []*Span {
	if s == nil {
		return nil
	}
	out := make([]*Span, 0, s.depth)
	for n := s; n != nil; n = n.below {
		out = append(out, n.span)
	}
	return out
}

// WithoutLineLocal returns s with every stopAtEOL span removed. The result
// shares structure with s below the deepest removed entry.
func (s *SpanStack) WithoutLineLocal() *SpanStack {
	if s == nil {
		return nil
	}
	below := s.below.WithoutLineLocal()
	if s.span.stopAtEOL {
		return below
	}
	if below == s.below {
		return s
	}
	return below.Push(s.span)
}

// BlockEqual reports whether a and b hold the same span instances in the
// same order once stopAtEOL spans are ignored on both sides. Only those
// spans survive a line boundary, so only they can affect the next line.
func BlockEqual(a, b *SpanStack) bool {
	for {
		for a != nil && a.span.stopAtEOL {
			a = a.below
		}
		for b != nil && b.span.stopAtEOL {
			b = b.below
		}
		if a == nil || b == nil {
			return a == nil && b == nil
		}
		if a == b {
			return true
		}
		if a.span != b.span {
			return false
		}
		a, b = a.below, b.below
	}
}

func (s *SpanStack) String() string {
	if s == nil {
		return "[]"
	}
	out := "["
	for i, sp := range s.Spans() {
		if i > 0 {
			out += " "
		}
		out += sp.String()
	}
	return out + "]"
}
