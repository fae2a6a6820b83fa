package syntax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse([]byte(src), t.Name()+".yaml")
	require.NoError(t, err)
	return f
}

func wordTexts(words []highlight.TextWord, line string) []string {
	src := []rune(line)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text(src)
	}
	return out
}

func TestBuildSample(t *testing.T) {
	hs, diags, err := Build(mustParse(t, sampleYAML))
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Len(t, hs, 1)
	h := hs[0]

	assert.Equal(t, "Sample", h.Name())
	assert.Equal(t, highlight.RGB(0xff, 0, 0), h.DigitStyle().Fg)
	sel := h.MustStyleFor(highlight.SlotSelection)
	assert.Equal(t, highlight.RGB(0xff, 0xff, 0xff), sel.Fg)

	line := "if begin LOOP end call f(x"
	words, out := h.ParseLine(nil, []rune(line))
	require.Equal(t, []string{"if", " ", "begin", " ", "LOOP", " ", "end", " ", "call", " ", "f", "(", "x"}, wordTexts(words, line))
	assert.Nil(t, out)

	kw := highlight.Style{Fg: highlight.RGB(0, 0, 0xff), Bold: true}
	fn := highlight.Style{Fg: highlight.RGB(0x74, 0x53, 0x1f)}
	assert.Equal(t, highlight.Style{Fg: highlight.RGB(0, 0, 0xff), Bold: true, Italic: true}, words[0].Style)
	assert.Equal(t, kw, words[2].Style, "begin style")
	assert.Equal(t, kw, words[4].Style, "inner keywords ignore case")
	assert.Equal(t, kw, words[6].Style, "end style")
	assert.Equal(t, fn, words[8].Style, "markmarker paints the trigger")
	assert.Equal(t, fn, words[10].Style)
}

func TestBuildDuplicateKeywordWarning(t *testing.T) {
	f := mustParse(t, `
name: Dup
rulesets:
  - keywords:
      - style: {color: red}
        words: [a, b]
      - style: {color: blue}
        words: [b]
`)
	hs, diags, err := Build(f)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, highlight.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, `"b"`)

	style, ok := hs[0].DefaultRuleSet().Keywords().Get("b")
	require.True(t, ok)
	assert.Equal(t, highlight.RGB(0, 0, 0xff), style.Fg, "last definition wins")
}

func TestBuildInheritance(t *testing.T) {
	base := mustParse(t, `
name: Base
extensions: [.b]
properties: {LineComment: "#", Shared: base}
styles:
  kw: {color: "#0000ff"}
digits: {color: red}
rulesets:
  - delimiters: ","
    spans:
      - name: Comment
        begin: "#"
        stopateol: true
        style: {color: green}
    keywords:
      - style: {ref: kw}
        words: [if, else]
  - name: Extra
    keywords:
      - style: {ref: kw}
        words: [only]
`)
	derived := mustParse(t, `
name: Derived
extends: Base
extensions: [.d]
properties: {Shared: derived}
rulesets:
  - delimiters: ";"
    spans:
      - name: String
        begin: "'"
        end: "'"
        style: {color: purple}
    keywords:
      - style: {ref: kw, bold: true}
        words: [else, class]
  - name: Mine
`)

	// Input order must not matter.
	hs, diags, err := Build(derived, base)
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Len(t, hs, 2)
	assert.Equal(t, "Base", hs[0].Name())
	d := hs[1]

	assert.Equal(t, []string{".d"}, d.Extensions())
	lc, _ := d.Property("LineComment")
	assert.Equal(t, "#", lc)
	shared, _ := d.Property("Shared")
	assert.Equal(t, "derived", shared)
	assert.Equal(t, hs[0].DigitStyle(), d.DigitStyle())

	names := []string{}
	for _, rs := range d.RuleSets() {
		names = append(names, rs.Name())
	}
	assert.Equal(t, []string{"", "Extra", "Mine"}, names)

	def := d.DefaultRuleSet()
	assert.Equal(t, ",;", def.Delimiters())
	require.Len(t, def.Spans(), 2)
	assert.Equal(t, "String", def.Spans()[0].Name(), "derived spans come first")
	assert.Equal(t, "Comment", def.Spans()[1].Name())

	elseStyle, _ := def.Keywords().Get("else")
	assert.True(t, elseStyle.Bold, "derived keyword wins")
	_, ok := def.Keywords().Get("if")
	assert.True(t, ok)
	_, ok = def.Keywords().Get("class")
	assert.True(t, ok)

	// The base is unchanged.
	_, ok = hs[0].DefaultRuleSet().Keywords().Get("class")
	assert.False(t, ok)
	assert.Len(t, hs[0].DefaultRuleSet().Spans(), 1)
}

func TestBuildRejections(t *testing.T) {
	good := mustParse(t, "name: Good\nrulesets: [{}]\n")

	tests := []struct {
		name    string
		files   []*File
		wantMsg string
	}{
		{"unknown base", []*File{mustParse(t, "name: A\nextends: Nope\nrulesets: [{}]\n")}, `unknown base "Nope"`},
		{"cycle", []*File{
			mustParse(t, "name: A\nextends: B\nrulesets: [{}]\n"),
			mustParse(t, "name: B\nextends: A\nrulesets: [{}]\n"),
		}, "inheritance cycle"},
		{"self cycle", []*File{mustParse(t, "name: A\nextends: A\nrulesets: [{}]\n")}, "inheritance cycle"},
		{"duplicate name", []*File{
			mustParse(t, "name: A\nrulesets: [{}]\n"),
			mustParse(t, "name: A\nrulesets: [{}]\n"),
		}, "defined more than once"},
		{"unresolved style in derived", []*File{
			mustParse(t, "name: A\nrulesets: [{}]\n"),
			mustParse(t, "name: B\nextends: A\nrulesets:\n  - keywords:\n      - style: {ref: missing}\n        words: [x]\n"),
		}, `unknown style "missing"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs, _, err := Build(append(tt.files, good)...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDefinition))
			assert.Contains(t, err.Error(), tt.wantMsg)

			var names []string
			for _, h := range hs {
				names = append(names, h.Name())
			}
			assert.Contains(t, names, "Good", "valid files are still built")
		})
	}
}

func TestDefaults(t *testing.T) {
	hs, diags, err := Defaults()
	require.NoError(t, err)
	require.Empty(t, diags)

	catalog := highlight.NewCatalog()
	defer catalog.Close()
	require.Empty(t, catalog.Install(hs...))
	assert.Equal(t, []string{"C", "CPP", "Default", "Go", "HTML", "JavaScript", "Nutmeg"}, catalog.Names())

	for path, want := range map[string]string{
		"main.go":    "Go",
		"x.h":        "C",
		"x.hpp":      "CPP",
		"app.mjs":    "JavaScript",
		"index.HTML": "HTML",
		"notes.txt":  "Default",
		"app.nutmeg": "Nutmeg",
	} {
		h, ok := catalog.ForFile(path)
		require.True(t, ok, path)
		assert.Equal(t, want, h.Name(), path)
	}

	t.Run("go", func(t *testing.T) {
		h, _ := catalog.ByName("Go")
		line := "func main() { fmt.Println(42) } // done"
		words, out := h.ParseLine(nil, []rune(line))
		assert.Nil(t, out)

		byText := map[string]highlight.TextWord{}
		for _, w := range words {
			byText[w.Text([]rune(line))] = w
		}
		fn := highlight.RGB(0x74, 0x53, 0x1f)
		assert.Equal(t, highlight.RGB(0, 0, 0xff), byText["func"].Style.Fg)
		assert.Equal(t, fn, byText["main"].Style.Fg, "marked after func")
		assert.Equal(t, fn, byText["Println"].Style.Fg, "marked before (")
		assert.Equal(t, highlight.RGB(0x09, 0x86, 0x58), byText["42"].Style.Fg)
		assert.Equal(t, highlight.RGB(0, 0x80, 0), byText["done"].Style.Fg)
	})

	t.Run("go raw strings span lines", func(t *testing.T) {
		h, _ := catalog.ByName("Go")
		_, out := h.ParseLine(nil, []rune("s := `first \\"))
		require.Equal(t, 1, out.Len())
		assert.Equal(t, "RawString", out.Peek().Name())
		_, out = h.ParseLine(out, []rune("second`"))
		assert.Nil(t, out)
	})

	t.Run("nutmeg", func(t *testing.T) {
		h, _ := catalog.ByName("Nutmeg")
		line := "def f(x) ### done"
		words, out := h.ParseLine(nil, []rune(line))
		assert.Nil(t, out)

		byText := map[string]highlight.TextWord{}
		for _, w := range words {
			byText[w.Text([]rune(line))] = w
		}
		assert.True(t, byText["def"].Style.Bold)
		assert.Equal(t, highlight.RGB(0x74, 0x53, 0x1f), byText["f"].Style.Fg)
		assert.Equal(t, highlight.RGB(0, 0x80, 0), byText["done"].Style.Fg)

		_, out = h.ParseLine(nil, []rune(`s := """first`))
		require.Equal(t, 1, out.Len())
		assert.Equal(t, "TripleString", out.Peek().Name())
		words, out = h.ParseLine(out, []rune(`last""" endif`))
		assert.Nil(t, out)
		assert.Equal(t, highlight.RGB(0, 0, 0xff), words[len(words)-1].Style.Fg)
		assert.False(t, words[len(words)-1].Style.Bold)
	})

	t.Run("cpp inherits c", func(t *testing.T) {
		h, _ := catalog.ByName("CPP")
		words, _ := h.ParseLine(nil, []rune("class int"))
		assert.True(t, words[0].Style.Bold)
		assert.Equal(t, highlight.RGB(0x2b, 0x91, 0xaf), words[2].Style.Fg)
	})

	t.Run("html delegates scripts", func(t *testing.T) {
		h, _ := catalog.ByName("HTML")
		line := "<SCRIPT>var x</script>"
		words, out := h.ParseLine(nil, []rune(line))
		require.Equal(t, []string{"<SCRIPT>", "var", " ", "x", "</script>"}, wordTexts(words, line))
		assert.Equal(t, highlight.RGB(0, 0, 0xff), words[1].Style.Fg)
		assert.Equal(t, highlight.RGB(0x80, 0, 0), words[0].Style.Fg)
		assert.Nil(t, out)
	})

	t.Run("html attributes", func(t *testing.T) {
		h, _ := catalog.ByName("HTML")
		line := `<a href="x">`
		words, _ := h.ParseLine(nil, []rune(line))
		require.Equal(t, []string{"<", "a", " ", "href", "=", `"`, "x", `"`, ">"}, wordTexts(words, line))
		assert.Equal(t, highlight.RGB(0xff, 0, 0), words[3].Style.Fg)
	})
}

func TestDefaultFile(t *testing.T) {
	f, ok := DefaultFile("Go")
	require.True(t, ok)
	assert.Equal(t, []string{".go"}, f.Extensions)

	_, ok = DefaultFile("Cobol")
	assert.False(t, ok)
}
