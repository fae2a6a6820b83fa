package highlight

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB color. The zero value means "unset", which renders as
// the surrounding default (transparent for backgrounds).
type Color struct {
	R, G, B uint8
	Set     bool
}

// RGB returns a set color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Set: true}
}

// Hex returns the color as "#rrggbb", or "-" when unset.
func (c Color) Hex() string {
	if !c.Set {
		return "-"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return c.Hex()
}

var namedColors = map[string]Color{
	"black":     RGB(0x00, 0x00, 0x00),
	"white":     RGB(0xff, 0xff, 0xff),
	"red":       RGB(0xff, 0x00, 0x00),
	"darkred":   RGB(0x8b, 0x00, 0x00),
	"green":     RGB(0x00, 0x80, 0x00),
	"darkgreen": RGB(0x00, 0x64, 0x00),
	"blue":      RGB(0x00, 0x00, 0xff),
	"darkblue":  RGB(0x00, 0x00, 0x8b),
	"navy":      RGB(0x00, 0x00, 0x80),
	"gray":      RGB(0x80, 0x80, 0x80),
	"grey":      RGB(0x80, 0x80, 0x80),
	"silver":    RGB(0xc0, 0xc0, 0xc0),
	"maroon":    RGB(0x80, 0x00, 0x00),
	"purple":    RGB(0x80, 0x00, 0x80),
	"magenta":   RGB(0xff, 0x00, 0xff),
	"teal":      RGB(0x00, 0x80, 0x80),
	"cyan":      RGB(0x00, 0xff, 0xff),
	"olive":     RGB(0x80, 0x80, 0x00),
	"orange":    RGB(0xff, 0xa5, 0x00),
	"brown":     RGB(0xa5, 0x2a, 0x2a),
	"yellow":    RGB(0xff, 0xff, 0x00),
}

// ParseColor parses a color string: "" or "-" for unset, "#rrggbb" for an
// explicit color, or one of a small set of case-insensitive color names.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Color{}, nil
	}
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("bad color value: %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("bad color value: %q", s)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Style is the resolved display style of a run of text.
// Zero value means "default" (no explicit styling).
type Style struct {
	Fg     Color
	Bg     Color
	Bold   bool
	Italic bool
	Font   string // optional font family override
}

// HasForeground reports whether the style sets an explicit foreground.
func (s Style) HasForeground() bool { return s.Fg.Set }

// HasBackground reports whether the style sets an explicit background.
func (s Style) HasBackground() bool { return s.Bg.Set }

// Equal reports whether s and o have identical styling.
func (s Style) Equal(o Style) bool {
	return s == o
}

// Or returns s when it sets a foreground, otherwise fallback.
func (s Style) Or(fallback Style) Style {
	if s.HasForeground() {
		return s
	}
	return fallback
}

func (s Style) String() string {
	var b strings.Builder
	b.WriteString(s.Fg.Hex())
	if s.Bg.Set {
		b.WriteString(" bg=")
		b.WriteString(s.Bg.Hex())
	}
	if s.Bold {
		b.WriteString(" bold")
	}
	if s.Italic {
		b.WriteString(" italic")
	}
	if s.Font != "" {
		b.WriteString(" font=")
		b.WriteString(s.Font)
	}
	return b.String()
}
