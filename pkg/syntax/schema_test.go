package syntax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

const sampleYAML = `
name: Sample
extensions: [.smp]
properties:
  LineComment: "--"
styles:
  keyword: {color: "#0000ff", bold: true}
environment:
  Selection: {color: white, bgcolor: "#316ac5"}
digits: {color: red}
rulesets:
  - delimiters: "();"
    spans:
      - name: Comment
        begin: "--"
        stopateol: true
        style: {color: green, italic: true}
      - name: Block
        begin: "begin"
        end: "end"
        rule: Inner
        style: {}
        beginstyle: {ref: keyword}
        endstyle: {ref: keyword}
    keywords:
      - name: Words
        style: {ref: keyword, italic: true}
        words: [if, then]
    markprevious:
      - text: "("
        style: {color: "#74531f"}
    markfollowing:
      - text: call
        style: {color: "#74531f"}
        markmarker: true
  - name: Inner
    ignorecase: true
    keywords:
      - style: {ref: keyword}
        words: [loop]
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleYAML), "sample.yaml")
	require.NoError(t, err)

	assert.Equal(t, "Sample", f.Name)
	assert.Equal(t, "sample.yaml", f.Source)
	assert.Equal(t, []string{".smp"}, f.Extensions)
	require.Len(t, f.RuleSets, 2)
	assert.Equal(t, "Inner", f.RuleSets[1].Name)
	assert.True(t, f.RuleSets[1].IgnoreCase)

	def := f.RuleSets[0]
	assert.Equal(t, "();", def.Delimiters)
	require.Len(t, def.Spans, 2)
	assert.True(t, def.Spans[0].StopAtEOL)
	require.NotNil(t, def.Spans[1].BeginStyle)
	assert.Equal(t, "keyword", def.Spans[1].BeginStyle.Ref)
	assert.True(t, def.MarkFollowing[0].MarkMarker)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{"unknown field", "name: X\ncolour: red\nrulesets: []\n", "colour"},
		{"missing name", "rulesets: [{}]\n", "missing name"},
		{"span without begin", "name: X\nrulesets:\n  - spans:\n      - name: S\n        style: {}\n", "missing begin"},
		{"unknown style ref", "name: X\nrulesets:\n  - keywords:\n      - style: {ref: nope}\n        words: [a]\n", `unknown style "nope"`},
		{"bad color", "name: X\ndigits: {color: \"#12\"}\nrulesets: []\n", "bad color"},
		{"ref inside styles", "name: X\nstyles:\n  a: {ref: b}\n  b: {}\nrulesets: []\n", "cannot use ref"},
		{"duplicate rule set", "name: X\nrulesets:\n  - name: A\n  - name: A\n", "more than once"},
		{"empty keyword", "name: X\nrulesets:\n  - keywords:\n      - style: {}\n        words: [\"\"]\n", "empty word"},
		{"marker without text", "name: X\nrulesets:\n  - markprevious:\n      - style: {}\n", "marker without text"},
		{"not yaml", "name: [", "failed to parse YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "bad.yaml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDefinition), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDerivedFilesMayReferToBaseStyles(t *testing.T) {
	_, err := Parse([]byte("name: D\nextends: B\nrulesets:\n  - keywords:\n      - style: {ref: fromBase}\n        words: [x]\n"), "d.yaml")
	assert.NoError(t, err)
}

func TestStyleValueResolve(t *testing.T) {
	styles := map[string]StyleValue{
		"keyword": {Color: "#0000ff", Bold: true, Font: "mono"},
	}

	tests := []struct {
		name string
		in   StyleValue
		want highlight.Style
	}{
		{"empty", StyleValue{}, highlight.Style{}},
		{"inline", StyleValue{Color: "red", Italic: true}, highlight.Style{Fg: highlight.RGB(0xff, 0, 0), Italic: true}},
		{"ref", StyleValue{Ref: "keyword"}, highlight.Style{Fg: highlight.RGB(0, 0, 0xff), Bold: true, Font: "mono"}},
		{"ref with overrides", StyleValue{Ref: "keyword", Color: "#010203", BgColor: "white", Italic: true},
			highlight.Style{Fg: highlight.RGB(1, 2, 3), Bg: highlight.RGB(0xff, 0xff, 0xff), Bold: true, Italic: true, Font: "mono"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.resolve(styles)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := StyleValue{Ref: "missing"}.resolve(styles)
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	f, err := Parse([]byte(sampleYAML), "sample.yaml")
	require.NoError(t, err)

	data, err := Marshal(f)
	require.NoError(t, err)

	again, err := Parse(data, "again.yaml")
	require.NoError(t, err)
	again.Source = f.Source
	assert.Equal(t, f, again)
}
