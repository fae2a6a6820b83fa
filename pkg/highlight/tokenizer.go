package highlight

import "unicode"

// lineTokenizer holds the scan state for a single line.
type lineTokenizer struct {
	h     *Highlighter
	line  []rune
	words []TextWord

	stack         *SpanStack
	activeSpan    *Span
	activeRuleSet *RuleSet

	// pending word
	curOffset int
	curLength int

	markNext *Style
}

// ParseLine tokenizes one line. incoming is the span stack carried over from
// the previous line (with stopAtEOL spans already removed); the returned
// stack is the set of spans still open at the end of this line, likewise
// without stopAtEOL spans. ParseLine is pure: it reads only the rule graph,
// incoming and line.
func (h *Highlighter) ParseLine(incoming *SpanStack, line []rune) ([]TextWord, *SpanStack) {
	t := &lineTokenizer{
		h:     h,
		line:  line,
		stack: incoming,
		words: make([]TextWord, 0, len(line)/4+1),
	}
	t.updateSpanState()
	t.scan()
	return t.words, t.stack.WithoutLineLocal()
}

func (t *lineTokenizer) updateSpanState() {
	t.activeSpan = t.stack.Peek()
	t.activeRuleSet = t.h.RuleSetFor(t.activeSpan)
}

func (t *lineTokenizer) inSpan() bool { return t.activeSpan != nil }

func (t *lineTokenizer) escapesEnabled() bool {
	if t.activeRuleSet != nil && t.activeRuleSet.noEscapeSequences {
		return false
	}
	if t.activeSpan != nil && t.activeSpan.noEscapeSequences {
		return false
	}
	return true
}

func (t *lineTokenizer) peek(i int) (rune, bool) {
	if i < 0 || i >= len(t.line) {
		return 0, false
	}
	return t.line[i], true
}

func (t *lineTokenizer) scan() {
	n := len(t.line)
	for i := 0; i < n; {
		ch := t.line[i]
		switch {
		case ch == '\n' || ch == '\r':
			t.pushCurWord()
			t.curOffset++
			i++

		case ch == ' ' || ch == '\t':
			t.pushCurWord()
			t.emitWhitespace(ch)
			i++

		case ch == '\\' && t.escapesEnabled():
			// The escaped character can never start a span, end one or
			// split the word.
			t.curLength++
			i++
			if i < n {
				t.curLength++
				i++
			}

		default:
			i = t.scanDefault(i)
		}
	}
	t.pushCurWord()
}

func (t *lineTokenizer) emitWhitespace(ch rune) {
	typ := SpaceToken
	if ch == '\t' {
		typ = TabToken
	}
	style := t.h.DefaultStyle()
	if t.activeSpan != nil && t.activeSpan.style.HasBackground() {
		style = t.activeSpan.style
	}
	t.words = append(t.words, TextWord{
		Type:   typ,
		Offset: t.curOffset,
		Length: 1,
		Style:  style,
	})
	t.curOffset++
}

// scanDefault handles a non-whitespace, non-escape character at i and
// returns the position to continue from.
func (t *lineTokenizer) scanDefault(i int) int {
	ch := t.line[i]

	if !t.inSpan() && t.curLength == 0 && t.startsNumber(i) {
		end := t.scanNumber(i)
		t.words = append(t.words, TextWord{
			Type:   WordToken,
			Offset: t.curOffset,
			Length: end - i,
			Style:  t.h.DigitStyle(),
		})
		t.curOffset += end - i
		return end
	}

	if t.inSpan() && len(t.activeSpan.end) > 0 && t.matchAt(i, t.activeSpan.end, t.activeSpan.ignoreCase) {
		span := t.activeSpan
		t.pushCurWord()
		t.emitMarker(len(span.end), span.endStyle)
		t.stack = t.stack.Pop()
		t.updateSpanState()
		return i + len(span.end)
	}

	if rs := t.activeRuleSet; rs != nil {
		for _, span := range rs.spans {
			if !t.matchAt(i, span.begin, rs.ignoreCase) {
				continue
			}
			t.pushCurWord()
			t.emitMarker(len(span.begin), span.beginStyle)
			t.stack = t.stack.Push(span)
			t.updateSpanState()
			return i + len(span.begin)
		}

		if rs.IsDelimiter(ch) {
			t.pushCurWord()
			t.curLength++
			if i < len(t.line)-1 {
				t.pushCurWord()
			}
			// A trailing delimiter is left pending for the end-of-line flush.
			return i + 1
		}
	}

	t.curLength++
	return i + 1
}

func (t *lineTokenizer) emitMarker(length int, style Style) {
	t.words = append(t.words, TextWord{
		Type:   WordToken,
		Offset: t.curOffset,
		Length: length,
		Style:  style,
	})
	t.curOffset += length
}

// matchAt reports whether the literal seq occurs in the line at i.
func (t *lineTokenizer) matchAt(i int, seq []rune, ignoreCase bool) bool {
	if len(seq) == 0 || i+len(seq) > len(t.line) {
		return false
	}
	for k, r := range seq {
		c := t.line[i+k]
		if c == r {
			continue
		}
		if !ignoreCase || toUpper(c) != toUpper(r) {
			return false
		}
	}
	return true
}

// pushCurWord flushes the pending word, applying keyword styles and
// prev/next markers.
func (t *lineTokenizer) pushCurWord() {
	if t.curLength == 0 {
		return
	}
	rs := t.activeRuleSet

	var prevTrigger *Marker
	if rs != nil && len(t.words) > 0 {
		for k := len(t.words) - 1; k >= 0; k-- {
			if t.words[k].IsWhitespace() {
				continue
			}
			if t.words[k].HasDefaultColor {
				if m, ok := rs.prevMarkers.Lookup(t.line, t.curOffset, t.curLength); ok {
					t.words[k].Style = m.Style
					if m.MarkTrigger {
						prevTrigger = &m
					}
				}
			}
			break
		}
	}

	word := TextWord{
		Type:   WordToken,
		Offset: t.curOffset,
		Length: t.curLength,
	}
	if t.inSpan() {
		style, hasDefault := t.activeSpan.style, true
		if t.activeSpan.ruleSet != nil && rs != nil {
			if kw, ok := rs.keywords.Lookup(t.line, t.curOffset, t.curLength); ok {
				style, hasDefault = kw, false
			}
		}
		if hasDefault {
			style = style.Or(t.h.DefaultStyle())
		}
		if t.markNext != nil {
			style = *t.markNext
		}
		word.Style, word.HasDefaultColor = style, hasDefault
	} else {
		switch kw, ok := t.keyword(rs); {
		case t.markNext != nil:
			word.Style = *t.markNext
		case ok:
			word.Style = kw
		default:
			word.Style, word.HasDefaultColor = t.h.DefaultStyle(), true
		}
	}
	if prevTrigger != nil {
		word.Style = prevTrigger.Style
		word.HasDefaultColor = false
	}
	t.words = append(t.words, word)

	if rs != nil {
		if m, ok := rs.nextMarkers.Lookup(t.line, t.curOffset, t.curLength); ok {
			if m.MarkTrigger {
				last := &t.words[len(t.words)-1]
				last.Style = m.Style
			}
			style := m.Style
			t.markNext = &style
		} else {
			t.markNext = nil
		}
	}

	t.curOffset += t.curLength
	t.curLength = 0
}

func (t *lineTokenizer) keyword(rs *RuleSet) (Style, bool) {
	if rs == nil {
		return Style{}, false
	}
	return rs.keywords.Lookup(t.line, t.curOffset, t.curLength)
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	if r < 0x80 {
		return r
	}
	return unicode.ToUpper(r)
}
