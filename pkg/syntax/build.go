package syntax

import (
	"errors"
	"fmt"

	"github.com/spicery/nutmeg-highlighter/internal/log"
	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

// built is the resolved state of one file, kept for files extending it.
type built struct {
	styles      map[string]StyleValue
	properties  map[string]string
	environment map[string]highlight.Style
	digits      highlight.Style
	h           *highlight.Highlighter
}

// Build turns definition files into highlighters. Files are built after the
// file they extend. A base's rule sets are inherited, and a derived rule set
// with the same name is merged into the inherited copy with its own spans
// first and its own keywords winning. Files with unknown bases, inheritance
// cycles or unresolvable styles are left out and reported in the error;
// the remaining highlighters are still returned.
func Build(files ...*File) ([]*highlight.Highlighter, highlight.Diagnostics, error) {
	var diags highlight.Diagnostics
	var errs []error

	byName := make(map[string]*File, len(files))
	var inputs []*File
	for _, f := range files {
		if f == nil {
			continue
		}
		if _, dup := byName[f.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %s: defined more than once", ErrInvalidDefinition, f.Name))
			continue
		}
		byName[f.Name] = f
		inputs = append(inputs, f)
	}

	order, orderErrs := buildOrder(inputs, byName)
	errs = append(errs, orderErrs...)

	done := make(map[string]*built, len(order))
	var out []*highlight.Highlighter
	for _, f := range order {
		var base *built
		if f.Extends != "" {
			if base = done[f.Extends]; base == nil {
				errs = append(errs, fmt.Errorf("%w: %s: base %q was rejected", ErrInvalidDefinition, f.Name, f.Extends))
				continue
			}
		}
		b, err := buildFile(f, base, &diags)
		if err != nil {
			log.ErrorErr(log.CatSyntax, "rejected syntax definition", err, "name", f.Name)
			errs = append(errs, err)
			continue
		}
		done[f.Name] = b
		out = append(out, b.h)
	}
	return out, diags, errors.Join(errs...)
}

// buildOrder sorts files so that every base precedes the files extending it.
func buildOrder(files []*File, byName map[string]*File) ([]*File, []error) {
	const (
		unvisited = iota
		visiting
		visited
		failed
	)
	state := make(map[string]int, len(files))
	var order []*File
	var errs []error

	var visit func(f *File) bool
	visit = func(f *File) bool {
		switch state[f.Name] {
		case visited:
			return true
		case failed:
			return false
		case visiting:
			errs = append(errs, fmt.Errorf("%w: %s: inheritance cycle", ErrInvalidDefinition, f.Name))
			state[f.Name] = failed
			return false
		}
		state[f.Name] = visiting
		if f.Extends != "" {
			base, ok := byName[f.Extends]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s: unknown base %q", ErrInvalidDefinition, f.Name, f.Extends))
				state[f.Name] = failed
				return false
			}
			if !visit(base) {
				state[f.Name] = failed
				return false
			}
		}
		state[f.Name] = visited
		order = append(order, f)
		return true
	}
	for _, f := range files {
		visit(f)
	}
	return order, errs
}

func buildFile(f *File, base *built, diags *highlight.Diagnostics) (*built, error) {
	b := &built{
		styles:      map[string]StyleValue{},
		properties:  map[string]string{},
		environment: map[string]highlight.Style{},
	}
	if base != nil {
		for k, v := range base.styles {
			b.styles[k] = v
		}
		for k, v := range base.properties {
			b.properties[k] = v
		}
		for k, v := range base.environment {
			b.environment[k] = v
		}
		b.digits = base.digits
	}
	for k, v := range f.Styles {
		b.styles[k] = v
	}
	for k, v := range f.Properties {
		b.properties[k] = v
	}

	var errs []error
	resolve := func(where string, sv StyleValue) highlight.Style {
		s, err := sv.resolve(b.styles)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
		return s
	}

	for slot, sv := range f.Environment {
		b.environment[slot] = resolve("environment "+slot, sv)
	}
	if f.Digits != nil {
		b.digits = resolve("digits", *f.Digits)
	}

	own := make(map[string]*highlight.RuleSet, len(f.RuleSets))
	var ownOrder []*highlight.RuleSet
	for _, rs := range f.RuleSets {
		set := convertRuleSet(f.Name, rs, resolve, diags)
		own[rs.Name] = set
		ownOrder = append(ownOrder, set)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, f.Name, errors.Join(errs...))
	}

	var sets []*highlight.RuleSet
	merged := map[string]bool{}
	if base != nil {
		for _, inherited := range base.h.RuleSets() {
			c := inherited.Clone()
			if d, ok := own[c.Name()]; ok && !merged[c.Name()] {
				c.MergeFrom(d)
				merged[c.Name()] = true
			}
			sets = append(sets, c)
		}
	}
	for _, set := range ownOrder {
		if !merged[set.Name()] {
			sets = append(sets, set)
		}
	}

	h, hd := highlight.NewHighlighter(highlight.Definition{
		Name:        f.Name,
		Extensions:  f.Extensions,
		Properties:  b.properties,
		Environment: b.environment,
		DigitStyle:  b.digits,
		RuleSets:    sets,
	})
	*diags = append(*diags, hd...)
	b.h = h
	return b, nil
}

func convertRuleSet(hl string, rs RuleSet, resolve func(string, StyleValue) highlight.Style, diags *highlight.Diagnostics) *highlight.RuleSet {
	label := rs.Name
	if label == "" {
		label = "(default)"
	}
	def := highlight.RuleSetDef{
		Name:              rs.Name,
		Reference:         rs.Reference,
		IgnoreCase:        rs.IgnoreCase,
		NoEscapeSequences: rs.NoEscapeSequences,
		Delimiters:        rs.Delimiters,
	}
	for _, sp := range rs.Spans {
		where := "rule set " + label + " span " + sp.Name
		sd := highlight.SpanDef{
			Name:              sp.Name,
			Rule:              sp.Rule,
			Begin:             sp.Begin,
			End:               sp.End,
			StopAtEOL:         sp.StopAtEOL,
			NoEscapeSequences: sp.NoEscapeSequences,
			Style:             resolve(where, sp.Style),
		}
		if sp.BeginStyle != nil {
			s := resolve(where+" beginstyle", *sp.BeginStyle)
			sd.BeginStyle = &s
		}
		if sp.EndStyle != nil {
			s := resolve(where+" endstyle", *sp.EndStyle)
			sd.EndStyle = &s
		}
		def.Spans = append(def.Spans, sd)
	}
	for _, m := range rs.MarkPrevious {
		def.PrevMarkers = append(def.PrevMarkers, highlight.Marker{
			Text:        m.Text,
			Style:       resolve("rule set "+label+" markprevious "+m.Text, m.Style),
			MarkTrigger: m.MarkMarker,
		})
	}
	for _, m := range rs.MarkFollowing {
		def.NextMarkers = append(def.NextMarkers, highlight.Marker{
			Text:        m.Text,
			Style:       resolve("rule set "+label+" markfollowing "+m.Text, m.Style),
			MarkTrigger: m.MarkMarker,
		})
	}

	set := highlight.NewRuleSet(def)
	for _, g := range rs.Keywords {
		style := resolve("rule set "+label+" keywords "+g.Name, g.Style)
		for _, w := range g.Words {
			if set.AddKeyword(w, style) {
				*diags = append(*diags, highlight.Diagnostic{
					Severity:    highlight.SeverityWarning,
					Highlighter: hl,
					RuleSet:     rs.Name,
					Message:     fmt.Sprintf("keyword %q defined more than once, last definition wins", w),
				})
			}
		}
	}
	return set
}
