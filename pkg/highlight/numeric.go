package highlight

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// startsNumber reports whether a numeric literal begins at i: a digit, or a
// '.' immediately followed by a digit.
func (t *lineTokenizer) startsNumber(i int) bool {
	ch := t.line[i]
	if isDigit(ch) {
		return true
	}
	next, ok := t.peek(i + 1)
	return ch == '.' && ok && isDigit(next)
}

// scanNumber consumes the numeric literal starting at i and returns the
// offset just past it. Only the extent matters; no value is computed.
//
//	literal  = hex | decimal
//	hex      = "0" ("x"|"X") hexdigit*
//	decimal  = digit* ["." digit+] [("e"|"E") ["+"|"-"] digit*] [suffix]
//	suffix   = "F"|"M"|"D"            (floating point)
//	         | ["U"] ["L"] | "L" "U"  (integers only)
func (t *lineTokenizer) scanNumber(i int) int {
	j := i
	accept := func(pred func(rune) bool) bool {
		if r, ok := t.peek(j); ok && pred(r) {
			j++
			return true
		}
		return false
	}
	is := func(want rune) func(rune) bool {
		return func(r rune) bool { return toUpper(r) == want }
	}

	hex, float := false, false
	if next, ok := t.peek(i + 1); ok && t.line[i] == '0' && toUpper(next) == 'X' {
		hex = true
		j += 2
		for accept(isHexDigit) {
		}
	} else {
		j++ // leading digit or '.'
		for accept(isDigit) {
		}
	}

	if !hex {
		if r, ok := t.peek(j); ok && r == '.' {
			if d, ok := t.peek(j + 1); ok && isDigit(d) {
				float = true
				j++
				for accept(isDigit) {
				}
			}
		}
	}

	if accept(is('E')) {
		float = true
		accept(func(r rune) bool { return r == '+' || r == '-' })
		for accept(isDigit) {
		}
	}

	if accept(func(r rune) bool { u := toUpper(r); return u == 'F' || u == 'M' || u == 'D' }) {
		float = true
	}

	if !float {
		unsigned := accept(is('U'))
		if accept(is('L')) && !unsigned {
			accept(is('U'))
		}
	}
	return j
}
