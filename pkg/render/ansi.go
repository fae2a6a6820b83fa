package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

// DefaultTabWidth is used when Options.TabWidth is not positive.
const DefaultTabWidth = 4

// Options controls ANSI rendering. The zero Profile is termenv.TrueColor;
// termenv.Ascii writes plain text. Token colors equal to the matching Base
// color are left to the terminal.
type Options struct {
	TabWidth int
	Profile  termenv.Profile
	Base     highlight.Style
}

type ansiWriter struct {
	r        *lipgloss.Renderer
	out      *bufio.Writer
	tabWidth int
	plain    bool
	base     highlight.Style
	col      int
}

// ANSI writes src as colored terminal text, one output line per line.
// Tabs are expanded to tab stops measured in terminal cells. Lines without
// stored tokens are written unstyled.
func ANSI(w io.Writer, src Source, opts Options) error {
	aw := &ansiWriter{
		out:      bufio.NewWriter(w),
		tabWidth: opts.TabWidth,
		plain:    opts.Profile == termenv.Ascii,
		base:     opts.Base,
	}
	if aw.tabWidth <= 0 {
		aw.tabWidth = DefaultTabWidth
	}
	if !aw.plain {
		aw.r = lipgloss.NewRenderer(w)
		aw.r.SetColorProfile(opts.Profile)
	}

	for n := 0; n < src.LineCount(); n++ {
		aw.col = 0
		line := []rune(src.Line(n))
		words := src.Words(n)
		if len(words) == 0 {
			aw.write(string(line), highlight.Style{})
		}
		for _, word := range words {
			text := word.Text(line)
			style := word.Style
			if word.IsWhitespace() {
				style = highlight.Style{Bg: style.Bg}
			}
			aw.write(text, style)
		}
		aw.out.WriteByte('\n')
	}
	return aw.out.Flush()
}

// write expands tabs in text and writes it with style.
func (aw *ansiWriter) write(text string, style highlight.Style) {
	if text == "" {
		return
	}
	var b strings.Builder
	for _, r := range text {
		if r == '\t' {
			pad := aw.tabWidth - aw.col%aw.tabWidth
			b.WriteString(strings.Repeat(" ", pad))
			aw.col += pad
			continue
		}
		b.WriteRune(r)
		aw.col += runewidth.RuneWidth(r)
	}
	expanded := b.String()
	if aw.plain {
		aw.out.WriteString(expanded)
		return
	}
	aw.out.WriteString(aw.lipglossStyle(style).Render(expanded))
}

func (aw *ansiWriter) lipglossStyle(s highlight.Style) lipgloss.Style {
	ls := aw.r.NewStyle()
	if s.HasForeground() && s.Fg != aw.base.Fg {
		ls = ls.Foreground(lipgloss.Color(s.Fg.Hex()))
	}
	if s.HasBackground() && s.Bg != aw.base.Bg {
		ls = ls.Background(lipgloss.Color(s.Bg.Hex()))
	}
	if s.Bold {
		ls = ls.Bold(true)
	}
	if s.Italic {
		ls = ls.Italic(true)
	}
	return ls
}
