// Package syntax reads highlighter definitions from YAML files and builds
// them into highlight.Highlighter values.
package syntax

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

// ErrInvalidDefinition marks a definition file that must not be installed.
var ErrInvalidDefinition = errors.New("invalid syntax definition")

// File represents the structure of a YAML syntax definition file.
type File struct {
	Name        string                `yaml:"name"`
	Extends     string                `yaml:"extends,omitempty"`
	Extensions  []string              `yaml:"extensions,omitempty"`
	Properties  map[string]string     `yaml:"properties,omitempty"`
	Styles      map[string]StyleValue `yaml:"styles,omitempty"`
	Environment map[string]StyleValue `yaml:"environment,omitempty"`
	Digits      *StyleValue           `yaml:"digits,omitempty"`
	RuleSets    []RuleSet             `yaml:"rulesets"`

	// Source is where the file was read from, for messages.
	Source string `yaml:"-"`
}

// StyleValue is a style written in a definition file. Ref names an entry
// of the file's styles table; the other fields override it.
type StyleValue struct {
	Ref     string `yaml:"ref,omitempty"`
	Color   string `yaml:"color,omitempty"`
	BgColor string `yaml:"bgcolor,omitempty"`
	Bold    bool   `yaml:"bold,omitempty"`
	Italic  bool   `yaml:"italic,omitempty"`
	Font    string `yaml:"font,omitempty"`
}

// RuleSet is one rule set block. The rule set without a name is the
// default one.
type RuleSet struct {
	Name              string         `yaml:"name,omitempty"`
	IgnoreCase        bool           `yaml:"ignorecase,omitempty"`
	NoEscapeSequences bool           `yaml:"noescapesequences,omitempty"`
	Reference         string         `yaml:"reference,omitempty"`
	Delimiters        string         `yaml:"delimiters,omitempty"`
	Keywords          []KeywordGroup `yaml:"keywords,omitempty"`
	Spans             []Span         `yaml:"spans,omitempty"`
	MarkPrevious      []Marker       `yaml:"markprevious,omitempty"`
	MarkFollowing     []Marker       `yaml:"markfollowing,omitempty"`
}

// KeywordGroup gives a list of words one style.
type KeywordGroup struct {
	Name  string     `yaml:"name,omitempty"`
	Style StyleValue `yaml:"style"`
	Words []string   `yaml:"words"`
}

// Span is a begin/end delimited region.
type Span struct {
	Name              string      `yaml:"name"`
	Rule              string      `yaml:"rule,omitempty"`
	Begin             string      `yaml:"begin"`
	End               string      `yaml:"end,omitempty"`
	StopAtEOL         bool        `yaml:"stopateol,omitempty"`
	NoEscapeSequences bool        `yaml:"noescapesequences,omitempty"`
	Style             StyleValue  `yaml:"style"`
	BeginStyle        *StyleValue `yaml:"beginstyle,omitempty"`
	EndStyle          *StyleValue `yaml:"endstyle,omitempty"`
}

// Marker recolors the token before (markprevious) or after (markfollowing)
// its text.
type Marker struct {
	Text       string     `yaml:"text"`
	Style      StyleValue `yaml:"style"`
	MarkMarker bool       `yaml:"markmarker,omitempty"`
}

// LoadFile reads and validates a syntax definition file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read syntax file '%s': %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes and validates a syntax definition. Unknown fields are
// rejected. source is used in error messages.
func Parse(data []byte, source string) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML in syntax file '%s': %w", ErrInvalidDefinition, source, err)
	}
	f.Source = source
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal renders f back to YAML.
func Marshal(f *File) ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal syntax to YAML: %w", err)
	}
	return data, nil
}

// Validate checks the parts of f that can be checked without its base.
// Style references are only checked when f extends nothing, since a
// derived file may refer to its base's styles.
func (f *File) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if f.Name == "" {
		add("missing name")
	}
	for name, sv := range f.Styles {
		if sv.Ref != "" {
			add("style %q: named styles cannot use ref", name)
		} else if _, err := sv.resolve(nil); err != nil {
			add("style %q: %w", name, err)
		}
	}

	checkStyle := func(where string, sv StyleValue) {
		if sv.Ref != "" && f.Extends == "" {
			if _, ok := f.Styles[sv.Ref]; !ok {
				add("%s: unknown style %q", where, sv.Ref)
			}
		}
		if _, err := highlight.ParseColor(sv.Color); err != nil {
			add("%s: %w", where, err)
		}
		if _, err := highlight.ParseColor(sv.BgColor); err != nil {
			add("%s: %w", where, err)
		}
	}

	for slot, sv := range f.Environment {
		checkStyle("environment "+slot, sv)
	}
	if f.Digits != nil {
		checkStyle("digits", *f.Digits)
	}

	seen := map[string]bool{}
	for _, rs := range f.RuleSets {
		label := rs.Name
		if label == "" {
			label = "(default)"
		}
		if seen[rs.Name] {
			add("rule set %s defined more than once", label)
		}
		seen[rs.Name] = true

		for _, g := range rs.Keywords {
			checkStyle(fmt.Sprintf("rule set %s keywords %s", label, g.Name), g.Style)
			for _, w := range g.Words {
				if w == "" {
					add("rule set %s keywords %s: empty word", label, g.Name)
				}
			}
		}
		for j, sp := range rs.Spans {
			where := fmt.Sprintf("rule set %s span %s", label, sp.Name)
			if sp.Name == "" {
				where = fmt.Sprintf("rule set %s span #%d", label, j+1)
			}
			if sp.Begin == "" {
				add("%s: missing begin", where)
			}
			checkStyle(where, sp.Style)
			if sp.BeginStyle != nil {
				checkStyle(where+" beginstyle", *sp.BeginStyle)
			}
			if sp.EndStyle != nil {
				checkStyle(where+" endstyle", *sp.EndStyle)
			}
		}
		for _, m := range append(append([]Marker(nil), rs.MarkPrevious...), rs.MarkFollowing...) {
			if m.Text == "" {
				add("rule set %s: marker without text", label)
			}
			checkStyle(fmt.Sprintf("rule set %s marker %q", label, m.Text), m.Style)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	name := f.Name
	if name == "" {
		name = f.Source
	}
	return fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, name, errors.Join(errs...))
}

// resolve turns sv into a concrete style using the named styles table.
func (sv StyleValue) resolve(styles map[string]StyleValue) (highlight.Style, error) {
	var base StyleValue
	if sv.Ref != "" {
		named, ok := styles[sv.Ref]
		if !ok {
			return highlight.Style{}, fmt.Errorf("unknown style %q", sv.Ref)
		}
		base = named
	}

	color := base.Color
	if sv.Color != "" {
		color = sv.Color
	}
	bg := base.BgColor
	if sv.BgColor != "" {
		bg = sv.BgColor
	}
	font := base.Font
	if sv.Font != "" {
		font = sv.Font
	}

	fg, err := highlight.ParseColor(color)
	if err != nil {
		return highlight.Style{}, err
	}
	bgc, err := highlight.ParseColor(bg)
	if err != nil {
		return highlight.Style{}, err
	}
	return highlight.Style{
		Fg:     fg,
		Bg:     bgc,
		Bold:   base.Bold || sv.Bold,
		Italic: base.Italic || sv.Italic,
		Font:   font,
	}, nil
}
