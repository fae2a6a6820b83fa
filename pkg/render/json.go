// Package render writes highlighted documents as JSON lines or as ANSI
// colored terminal text.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

// Source is a highlighted document: line text plus the tokens stored for
// each line.
type Source interface {
	LineCount() int
	Line(n int) string
	Words(n int) []highlight.TextWord
}

// Span is a token's line-relative offset and length.
type Span struct {
	Offset int
	Length int
}

// MarshalJSON implements custom JSON marshaling for Span.
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Offset, s.Length})
}

// UnmarshalJSON implements custom JSON unmarshaling for Span.
func (s *Span) UnmarshalJSON(data []byte) error {
	var arr [2]int
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	s.Offset, s.Length = arr[0], arr[1]
	return nil
}

// Style is the JSON form of highlight.Style. Colors are #rrggbb and unset
// fields are omitted.
type Style struct {
	Color   string `json:"color,omitempty"`
	BgColor string `json:"bgcolor,omitempty"`
	Bold    bool   `json:"bold,omitempty"`
	Italic  bool   `json:"italic,omitempty"`
	Font    string `json:"font,omitempty"`
}

func styleOf(s highlight.Style) Style {
	out := Style{Bold: s.Bold, Italic: s.Italic, Font: s.Font}
	if s.HasForeground() {
		out.Color = s.Fg.Hex()
	}
	if s.HasBackground() {
		out.BgColor = s.Bg.Hex()
	}
	return out
}

// Token is one output record.
type Token struct {
	Line  int    `json:"line"`
	Span  Span   `json:"span"`
	Type  string `json:"type"`
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// Tokens flattens the stored tokens of every line of src.
func Tokens(src Source) []Token {
	var out []Token
	for n := 0; n < src.LineCount(); n++ {
		line := []rune(src.Line(n))
		for _, w := range src.Words(n) {
			out = append(out, Token{
				Line:  n,
				Span:  Span{Offset: w.Offset, Length: w.Length},
				Type:  w.Type.String(),
				Text:  w.Text(line),
				Style: styleOf(w.Style),
			})
		}
	}
	return out
}

// JSONLines writes one JSON object per token.
func JSONLines(w io.Writer, src Source) error {
	for _, tok := range Tokens(src) {
		data, err := json.Marshal(tok)
		if err != nil {
			return fmt.Errorf("JSON encoding error: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}
	return nil
}
