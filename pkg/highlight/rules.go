package highlight

// Marker recolors a token next to a trigger text. As a next-marker it styles
// the token following the trigger; as a prev-marker it restyles the nearest
// preceding token that still has its default color.
type Marker struct {
	Text        string
	Style       Style
	MarkTrigger bool // also paint the trigger token itself
}

// SpanDef describes a nested region before it is owned by a rule set.
type SpanDef struct {
	Name              string
	Rule              string // name of the child rule set, empty for none
	Begin             string
	End               string // empty means the span has no explicit end
	StopAtEOL         bool
	NoEscapeSequences bool
	Style             Style
	BeginStyle        *Style // nil falls back to Style
	EndStyle          *Style // nil falls back to Style
}

// Span is a nested region rule owned by a RuleSet. Spans are compared by
// identity, so a given *Span is the interned value that appears in stacks.
type Span struct {
	id                int
	name              string
	rule              string
	begin             []rune
	end               []rune
	stopAtEOL         bool
	noEscapeSequences bool
	ignoreCase        bool
	style             Style
	beginStyle        Style
	endStyle          Style

	owner   *RuleSet
	ruleSet *RuleSet
}

func newSpan(def SpanDef, owner *RuleSet) *Span {
	s := &Span{
		id:                -1,
		name:              def.Name,
		rule:              def.Rule,
		begin:             []rune(def.Begin),
		end:               []rune(def.End),
		stopAtEOL:         def.StopAtEOL,
		noEscapeSequences: def.NoEscapeSequences,
		style:             def.Style,
		beginStyle:        def.Style,
		endStyle:          def.Style,
		owner:             owner,
	}
	if owner != nil {
		s.ignoreCase = owner.ignoreCase
	}
	if def.BeginStyle != nil {
		s.beginStyle = *def.BeginStyle
	}
	if def.EndStyle != nil {
		s.endStyle = *def.EndStyle
	}
	return s
}

// ID returns the span's index within its highlighter, or -1 before the span
// has been registered with one.
func (s *Span) ID() int { return s.id }

func (s *Span) Name() string { return s.name }

// Rule returns the configured child rule set name.
func (s *Span) Rule() string { return s.rule }

func (s *Span) Begin() string { return string(s.begin) }

func (s *Span) End() string { return string(s.end) }

func (s *Span) StopAtEOL() bool { return s.stopAtEOL }

func (s *Span) NoEscapeSequences() bool { return s.noEscapeSequences }

func (s *Span) Style() Style { return s.style }

func (s *Span) BeginStyle() Style { return s.beginStyle }

func (s *Span) EndStyle() Style { return s.endStyle }

// Owner returns the rule set that declares the span.
func (s *Span) Owner() *RuleSet { return s.owner }

// RuleSet returns the resolved child rule set, or nil when the span has no
// rule or its rule could not be resolved.
func (s *Span) RuleSet() *RuleSet { return s.ruleSet }

func (s *Span) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.name + "[" + string(s.begin) + "…" + string(s.end) + "]"
}

// BindingKind says how a rule set is tokenized.
type BindingKind int

const (
	// BindLocal tokenizes with the rule set itself.
	BindLocal BindingKind = iota
	// BindDelegated tokenizes with another highlighter's default rule set.
	BindDelegated
)

// Binding is the outcome of external reference resolution for a rule set.
type Binding struct {
	Kind   BindingKind
	Target *Highlighter
}

// RuleSetDef describes a rule set before construction.
type RuleSetDef struct {
	Name              string // empty for the default rule set
	Reference         string // name of another highlighter to delegate to
	IgnoreCase        bool
	NoEscapeSequences bool
	Delimiters        string
	Spans             []SpanDef
	Keywords          map[string]Style
	PrevMarkers       []Marker
	NextMarkers       []Marker
}

// RuleSet is a named grammar fragment: spans, delimiters, keywords and
// markers. It is read-only once its highlighter has been resolved.
type RuleSet struct {
	name              string
	reference         string
	ignoreCase        bool
	noEscapeSequences bool
	delimiters        [256]bool
	spans             []*Span
	keywords          *LookupTable[Style]
	prevMarkers       *LookupTable[Marker]
	nextMarkers       *LookupTable[Marker]

	binding     Binding
	highlighter *Highlighter
}

// NewRuleSet builds a rule set from its definition.
func NewRuleSet(def RuleSetDef) *RuleSet {
	rs := &RuleSet{
		name:              def.Name,
		reference:         def.Reference,
		ignoreCase:        def.IgnoreCase,
		noEscapeSequences: def.NoEscapeSequences,
		keywords:          NewLookupTable[Style](def.IgnoreCase),
		prevMarkers:       NewLookupTable[Marker](def.IgnoreCase),
		nextMarkers:       NewLookupTable[Marker](def.IgnoreCase),
	}
	for _, r := range def.Delimiters {
		if r < 256 {
			rs.delimiters[r] = true
		}
	}
	for _, sd := range def.Spans {
		rs.spans = append(rs.spans, newSpan(sd, rs))
	}
	for word, style := range def.Keywords {
		rs.keywords.Insert(word, style)
	}
	for _, m := range def.PrevMarkers {
		rs.prevMarkers.Insert(m.Text, m)
	}
	for _, m := range def.NextMarkers {
		rs.nextMarkers.Insert(m.Text, m)
	}
	return rs
}

// Name returns the rule set name; empty for the default rule set.
func (rs *RuleSet) Name() string { return rs.name }

// IsDefault reports whether this is the highlighter's root rule set.
func (rs *RuleSet) IsDefault() bool { return rs.name == "" }

func (rs *RuleSet) Reference() string { return rs.reference }

func (rs *RuleSet) IgnoreCase() bool { return rs.ignoreCase }

func (rs *RuleSet) NoEscapeSequences() bool { return rs.noEscapeSequences }

// Spans returns the spans in declaration order.
func (rs *RuleSet) Spans() []*Span { return rs.spans }

// IsDelimiter reports whether r splits words on its own.
func (rs *RuleSet) IsDelimiter(r rune) bool {
	return r >= 0 && r < 256 && rs.delimiters[r]
}

// Delimiters returns the delimiter characters in code order.
func (rs *RuleSet) Delimiters() string {
	var out []rune
	for i, on := range rs.delimiters {
		if on {
			out = append(out, rune(i))
		}
	}
	return string(out)
}

func (rs *RuleSet) Keywords() *LookupTable[Style] { return rs.keywords }

func (rs *RuleSet) PrevMarkers() *LookupTable[Marker] { return rs.prevMarkers }

func (rs *RuleSet) NextMarkers() *LookupTable[Marker] { return rs.nextMarkers }

// Binding returns how the rule set is tokenized after reference resolution.
func (rs *RuleSet) Binding() Binding { return rs.binding }

// Highlighter returns the highlighter owning the rule set, if any.
func (rs *RuleSet) Highlighter() *Highlighter { return rs.highlighter }

// AddKeyword inserts a keyword and reports whether it replaced an earlier one.
func (rs *RuleSet) AddKeyword(word string, style Style) bool {
	return rs.keywords.Insert(word, style)
}

// AddSpan appends a span built from def.
func (rs *RuleSet) AddSpan(def SpanDef) *Span {
	s := newSpan(def, rs)
	rs.spans = append(rs.spans, s)
	return s
}

// MergeFrom extends rs with other: other's spans go in front of rs's own,
// delimiters are OR'd and other's keywords and markers are added over rs's.
// It must only be called before the owning highlighter is constructed.
func (rs *RuleSet) MergeFrom(other *RuleSet) {
	for i := range rs.delimiters {
		rs.delimiters[i] = rs.delimiters[i] || other.delimiters[i]
	}
	spans := make([]*Span, 0, len(other.spans)+len(rs.spans))
	for _, s := range other.spans {
		c := *s
		c.owner = rs
		c.ignoreCase = rs.ignoreCase
		c.ruleSet = nil
		c.id = -1
		spans = append(spans, &c)
	}
	rs.spans = append(spans, rs.spans...)
	rs.keywords.mergeFrom(other.keywords)
	rs.prevMarkers.mergeFrom(other.prevMarkers)
	rs.nextMarkers.mergeFrom(other.nextMarkers)
}

// Clone returns an unresolved deep copy of rs.
func (rs *RuleSet) Clone() *RuleSet {
	c := &RuleSet{
		name:              rs.name,
		reference:         rs.reference,
		ignoreCase:        rs.ignoreCase,
		noEscapeSequences: rs.noEscapeSequences,
		delimiters:        rs.delimiters,
		keywords:          rs.keywords.clone(),
		prevMarkers:       rs.prevMarkers.clone(),
		nextMarkers:       rs.nextMarkers.clone(),
	}
	for _, s := range rs.spans {
		sc := *s
		sc.owner = c
		sc.ruleSet = nil
		sc.id = -1
		c.spans = append(c.spans, &sc)
	}
	return c
}
