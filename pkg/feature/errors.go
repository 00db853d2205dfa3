package feature

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed model text. Recoverable only by the
// caller re-submitting corrected input.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// SemanticError reports a structurally invalid feature declaration,
// such as a duplicate name or a degenerate group.
type SemanticError struct {
	Feature string
	Reason  string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("invalid feature %q: %s", e.Feature, e.Reason)
}

// ExpansionError reports a recursive reference naming a feature that
// is not an ancestor of the referencing feature.
type ExpansionError struct {
	Reference string
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("recursive reference %q does not name an ancestor feature", e.Reference)
}

// ConstraintError reports a constraint line that failed to compile:
// a malformed formula or an atom that cannot be resolved unambiguously
// within its scope.
type ConstraintError struct {
	Line    int
	Atom    string
	Message string
}

func (e *ConstraintError) Error() string {
	if e.Atom != "" {
		return fmt.Sprintf("constraint on line %d: atom %q: %s", e.Line, e.Atom, e.Message)
	}
	return fmt.Sprintf("constraint on line %d: %s", e.Line, e.Message)
}

// RenderError reports a mapping model that cannot produce text for a
// configuration: an unknown or cyclic variation point, or one with no
// selected variant.
type RenderError struct {
	Handler string
	Message string
}

func (e *RenderError) Error() string {
	if e.Handler != "" {
		return fmt.Sprintf("render: variation point %q: %s", e.Handler, e.Message)
	}
	return "render: " + e.Message
}

// Violation is one structural rule or compiled constraint not
// satisfied by a configuration.
type Violation struct {
	// Subject is the instance the rule is anchored at, or empty for
	// configuration-level violations (missing or unknown identifiers).
	Subject Identifier
	Rule    string
}

func (v Violation) String() string {
	if v.Subject == "" {
		return v.Rule
	}
	return fmt.Sprintf("%s: %s", v.Subject, v.Rule)
}

// ViolationList is the complete set of violations found by a single
// validation pass. It is a normal result, not an engine failure: an
// empty list means the configuration is valid.
type ViolationList []Violation

func (vs ViolationList) String() string {
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// AppliedConstraint couples a constraint's human-readable rendering
// with the instance it applies to.
type AppliedConstraint struct {
	Subject Identifier
	Message string
}

// String implements fmt.Stringer and returns a human-readable message
// representing the receiver.
func (a AppliedConstraint) String() string {
	return fmt.Sprintf("%s: %s", a.Subject, a.Message)
}

// NotSatisfiable is an error composed of a minimal set of applied
// constraints that is sufficient to make a configuration impossible.
type NotSatisfiable []AppliedConstraint

func (e NotSatisfiable) Error() string {
	const msg = "constraints not satisfiable"
	if len(e) == 0 {
		return msg
	}
	s := make([]string, len(e))
	for i, a := range e {
		s[i] = a.String()
	}
	return fmt.Sprintf("%s:\n%s", msg, strings.Join(s, "\n"))
}
