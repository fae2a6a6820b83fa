package highlight

import (
	"errors"
	"fmt"
	"strings"
)

// Severity of a configuration diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic reports a configuration problem found while building or
// resolving highlighters. Warnings degrade to a safe fallback; errors mean
// the definition should not be installed.
type Diagnostic struct {
	Severity    Severity
	Highlighter string
	RuleSet     string
	Span        string
	Message     string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	if d.Highlighter != "" {
		b.WriteString(d.Highlighter)
	}
	if d.RuleSet != "" {
		b.WriteString(" ruleset ")
		b.WriteString(d.RuleSet)
	}
	if d.Span != "" {
		b.WriteString(" span ")
		b.WriteString(d.Span)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// Diagnostics is a list of configuration diagnostics.
type Diagnostics []Diagnostic

func (ds *Diagnostics) warnf(hl, ruleSet, span, format string, args ...any) {
	*ds = append(*ds, Diagnostic{
		Severity:    SeverityWarning,
		Highlighter: hl,
		RuleSet:     ruleSet,
		Span:        span,
		Message:     fmt.Sprintf(format, args...),
	})
}

func (ds *Diagnostics) errorf(hl, ruleSet, span, format string, args ...any) {
	*ds = append(*ds, Diagnostic{
		Severity:    SeverityError,
		Highlighter: hl,
		RuleSet:     ruleSet,
		Span:        span,
		Message:     fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err joins the error-severity diagnostics into one error, or returns nil.
func (ds Diagnostics) Err() error {
	var errs []error
	for _, d := range ds {
		if d.Severity == SeverityError {
			errs = append(errs, errors.New(d.String()))
		}
	}
	return errors.Join(errs...)
}

func (ds Diagnostics) String() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
