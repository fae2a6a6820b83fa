package highlight

import (
	"context"
	"sort"

	"github.com/spicery/nutmeg-highlighter/internal/log"
)

// DefaultWholeRepaintThreshold is the number of dirty lines above which an
// incremental scan repaints the whole area instead of line by line.
const DefaultWholeRepaintThreshold = 20

// Definition is everything needed to construct a Highlighter. The rule sets
// become owned by the highlighter; sets already owned by another
// highlighter are cloned.
type Definition struct {
	Name        string
	Extensions  []string
	Properties  map[string]string
	Environment map[string]Style
	DigitStyle  Style
	RuleSets    []*RuleSet
}

// Highlighter is a resolved syntax definition. After construction and
// ResolveReferences it is read-only and safe for concurrent ParseLine calls.
type Highlighter struct {
	name       string
	extensions []string
	properties map[string]string
	env        *Environment
	digitStyle Style

	ruleSets       []*RuleSet
	defaultRuleSet *RuleSet
	spans          []*Span

	wholeRepaintThreshold int
}

// NewHighlighter builds a highlighter and binds each span's rule name to
// the sibling rule set of that name. Problems are reported as diagnostics;
// the highlighter is always usable, with unresolved spans falling back to
// body-only styling.
func NewHighlighter(def Definition) (*Highlighter, Diagnostics) {
	var diags Diagnostics
	h := &Highlighter{
		name:                  def.Name,
		extensions:            append([]string(nil), def.Extensions...),
		properties:            make(map[string]string, len(def.Properties)),
		env:                   NewEnvironment(def.Environment),
		wholeRepaintThreshold: DefaultWholeRepaintThreshold,
	}
	for k, v := range def.Properties {
		h.properties[k] = v
	}
	h.digitStyle = def.DigitStyle.Or(h.DefaultStyle())

	byName := make(map[string]*RuleSet, len(def.RuleSets))
	for _, rs := range def.RuleSets {
		if rs == nil {
			continue
		}
		if rs.highlighter != nil {
			rs = rs.Clone()
		}
		rs.highlighter = h
		rs.binding = Binding{Kind: BindLocal}
		h.ruleSets = append(h.ruleSets, rs)

		if rs.IsDefault() {
			if h.defaultRuleSet != nil {
				diags.errorf(h.name, "", "", "more than one default rule set")
				continue
			}
			h.defaultRuleSet = rs
			continue
		}
		if _, dup := byName[rs.name]; dup {
			diags.warnf(h.name, rs.name, "", "duplicate rule set name, first definition wins")
			continue
		}
		byName[rs.name] = rs
	}
	if len(h.ruleSets) > 0 && h.defaultRuleSet == nil {
		diags.warnf(h.name, "", "", "no default rule set")
	}

	for _, rs := range h.ruleSets {
		for _, span := range rs.spans {
			span.id = len(h.spans)
			span.owner = rs
			h.spans = append(h.spans, span)
			if span.rule == "" {
				continue
			}
			child, ok := byName[span.rule]
			if !ok {
				diags.warnf(h.name, rs.name, span.name, "rule set %q not found", span.rule)
				span.ruleSet = nil
				continue
			}
			span.ruleSet = child
		}
	}
	return h, diags
}

// ResolveReferences binds every rule set that names another highlighter to
// that highlighter's default rule set. An unknown name leaves the rule set
// tokenizing with its own rules. It must run before the highlighter is
// shared between goroutines.
func (h *Highlighter) ResolveReferences(lookup func(name string) (*Highlighter, bool)) Diagnostics {
	var diags Diagnostics
	for _, rs := range h.ruleSets {
		if rs.reference == "" {
			continue
		}
		target, ok := lookup(rs.reference)
		if !ok || target == nil {
			diags.warnf(h.name, rs.name, "", "referenced highlighter %q not found", rs.reference)
			rs.binding = Binding{Kind: BindLocal}
			continue
		}
		rs.binding = Binding{Kind: BindDelegated, Target: target}
	}
	return diags
}

func (h *Highlighter) Name() string { return h.name }

// Extensions returns the file extensions the highlighter claims, with the
// leading dot.
func (h *Highlighter) Extensions() []string { return append([]string(nil), h.extensions...) }

// Property returns a free-form property value.
func (h *Highlighter) Property(key string) (string, bool) {
	v, ok := h.properties[key]
	return v, ok
}

// Properties returns a copy of the property bag.
func (h *Highlighter) Properties() map[string]string {
	out := make(map[string]string, len(h.properties))
	for k, v := range h.properties {
		out[k] = v
	}
	return out
}

func (h *Highlighter) Environment() *Environment { return h.env }

// StyleFor returns the environment style registered under name. Unknown
// names fail with ErrStyleNotFound.
func (h *Highlighter) StyleFor(name string) (Style, error) {
	return h.env.Lookup(name)
}

// MustStyleFor is StyleFor for the fixed slot names; it panics on a miss.
func (h *Highlighter) MustStyleFor(name string) Style {
	s, err := h.StyleFor(name)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultStyle returns the style of plain text.
func (h *Highlighter) DefaultStyle() Style {
	return h.env.slots[SlotDefault]
}

// DigitStyle returns the style of numeric literals.
func (h *Highlighter) DigitStyle() Style { return h.digitStyle }

// DefaultRuleSet returns the unnamed root rule set, or nil if there is none.
func (h *Highlighter) DefaultRuleSet() *RuleSet { return h.defaultRuleSet }

// RuleSets returns the rule sets in declaration order.
func (h *Highlighter) RuleSets() []*RuleSet { return h.ruleSets }

// RuleSet returns the rule set with the given name; "" is the default.
func (h *Highlighter) RuleSet(name string) (*RuleSet, bool) {
	if name == "" {
		return h.defaultRuleSet, h.defaultRuleSet != nil
	}
	for _, rs := range h.ruleSets {
		if rs.name == name {
			return rs, true
		}
	}
	return nil, false
}

// Spans returns every span of the highlighter indexed by ID.
func (h *Highlighter) Spans() []*Span { return h.spans }

// RuleSetFor returns the rule set that tokenizes the body of span. A nil
// span means top level. Spans without a child rule set have none, and
// delegated rule sets resolve to the target's default rule set.
func (h *Highlighter) RuleSetFor(span *Span) *RuleSet {
	var rs *RuleSet
	if span == nil {
		rs = h.defaultRuleSet
	} else {
		rs = span.ruleSet
	}
	if rs == nil {
		return nil
	}
	if rs.binding.Kind == BindDelegated && rs.binding.Target != nil {
		if target := rs.binding.Target.DefaultRuleSet(); target != nil {
			return target
		}
	}
	return rs
}

// SetWholeRepaintThreshold changes the dirty-line count above which
// MarkDirty repaints the whole area. Values below one restore the default.
func (h *Highlighter) SetWholeRepaintThreshold(n int) {
	if n < 1 {
		n = DefaultWholeRepaintThreshold
	}
	h.wholeRepaintThreshold = n
}

// MarkAll re-highlights every line of doc and requests a whole-area repaint.
func (h *Highlighter) MarkAll(doc Document) {
	_ = h.MarkAllContext(context.Background(), doc)
}

// MarkAllContext is MarkAll with cancellation checked between lines. Lines
// finished before cancellation keep their new highlighting; no repaint is
// requested.
func (h *Highlighter) MarkAllContext(ctx context.Context, doc Document) error {
	if len(h.ruleSets) == 0 {
		return nil
	}
	n := doc.LineCount()
	for line := 0; line < n; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := h.markLine(doc, line); !ok {
			log.Debug(log.CatHighlight, "full scan aborted on unsettled line", "highlighter", h.name, "line", line)
			return nil
		}
	}
	log.Debug(log.CatHighlight, "full scan", "highlighter", h.name, "lines", n)
	doc.RequestRepaint(WholeArea())
	doc.CommitRepaint()
	return nil
}

// MarkDirty re-highlights the given lines, following on to later lines for
// as long as a line's outgoing span stack changes. It reports whether any
// span stack changed, in which case the whole area is repainted; otherwise
// only the dirty lines are.
func (h *Highlighter) MarkDirty(doc Document, lines []int) bool {
	changed, _ := h.MarkDirtyContext(context.Background(), doc, lines)
	return changed
}

// MarkDirtyContext is MarkDirty with cancellation checked between lines.
func (h *Highlighter) MarkDirtyContext(ctx context.Context, doc Document, lines []int) (bool, error) {
	if len(h.ruleSets) == 0 || len(lines) == 0 {
		return false, nil
	}

	// Earlier lines feed later ones, so they go first.
	dirty := append([]int(nil), lines...)
	sort.Ints(dirty)

	n := doc.LineCount()
	processed := make(map[int]bool, len(dirty))
	var repaint []int
	spanChanged := false

	for _, d := range dirty {
		if d < 0 || d >= n {
			continue
		}
		seg := doc.LineSegment(d)
		if seg.Length == -1 {
			log.Debug(log.CatHighlight, "dirty scan aborted on unsettled line", "highlighter", h.name, "line", d)
			return spanChanged, nil
		}
		line := doc.LineNumberForOffset(seg.Offset)
		if line < 0 || line >= n || processed[line] {
			continue
		}
		repaint = append(repaint, line)

		for line < n && !processed[line] {
			if err := ctx.Err(); err != nil {
				return spanChanged, err
			}
			changed, ok := h.markLine(doc, line)
			if !ok {
				log.Debug(log.CatHighlight, "dirty scan aborted on unsettled line", "highlighter", h.name, "line", line)
				return spanChanged, nil
			}
			processed[line] = true
			if !changed {
				break
			}
			spanChanged = true
			line++
		}
	}

	log.Debug(log.CatHighlight, "dirty scan", "highlighter", h.name,
		"dirty", len(dirty), "processed", len(processed), "spanChanged", spanChanged)

	if spanChanged || len(repaint) > h.wholeRepaintThreshold {
		doc.RequestRepaint(WholeArea())
	} else {
		for _, line := range repaint {
			doc.RequestRepaint(SingleLine(line))
		}
	}
	doc.CommitRepaint()
	return spanChanged, nil
}

// markLine tokenizes one line from the previous line's stored stack and
// stores the result. It reports whether the outgoing stack differs from
// the one stored before, and false for ok when the line is unsettled.
func (h *Highlighter) markLine(doc Document, line int) (changed, ok bool) {
	seg := doc.LineSegment(line)
	if seg.Length == -1 {
		return false, false
	}
	var incoming *SpanStack
	if line > 0 {
		incoming = doc.LineSegment(line - 1).SpanStack.WithoutLineLocal()
	}
	words, stack := h.ParseLine(incoming, lineText(doc, seg))
	changed = !BlockEqual(stack, seg.SpanStack)
	doc.SetLineHighlight(line, words, stack)
	return changed, true
}

func lineText(doc Document, seg LineSegment) []rune {
	text := make([]rune, seg.Length)
	for i := range text {
		text[i] = doc.CharAt(seg.Offset + i)
	}
	return text
}

// StyleAt looks up the keyword style of length characters at offset within
// line, using the default rule set. It does not tokenize.
func (h *Highlighter) StyleAt(doc Document, line, offset, length int) (Style, bool) {
	if h.defaultRuleSet == nil || line < 0 || line >= doc.LineCount() {
		return Style{}, false
	}
	seg := doc.LineSegment(line)
	if seg.Length < 0 {
		return Style{}, false
	}
	return h.defaultRuleSet.keywords.Lookup(lineText(doc, seg), offset, length)
}
