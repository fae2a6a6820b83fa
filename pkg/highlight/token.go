package highlight

// TextWordType represents the different kinds of tokens on a line.
type TextWordType int

const (
	WordToken TextWordType = iota // a run of non-whitespace characters
	SpaceToken
	TabToken
)

func (t TextWordType) String() string {
	switch t {
	case WordToken:
		return "word"
	case SpaceToken:
		return "space"
	case TabToken:
		return "tab"
	default:
		return "unknown"
	}
}

// TextWord is one styled token of a line. Offsets and lengths count runes
// from the start of the line.
type TextWord struct {
	Type            TextWordType
	Offset          int
	Length          int
	Style           Style
	HasDefaultColor bool // still eligible for prev-marker recoloring
}

// IsWhitespace reports whether the token is a space or tab.
func (w TextWord) IsWhitespace() bool {
	return w.Type == SpaceToken || w.Type == TabToken
}

// End returns the offset just past the token.
func (w TextWord) End() int { return w.Offset + w.Length }

// Text returns the token's characters taken from line.
func (w TextWord) Text(line []rune) string {
	if w.Offset < 0 || w.End() > len(line) {
		return ""
	}
	return string(line[w.Offset:w.End()])
}
