package feature

import (
	"fmt"
	"io"
)

// SearchPosition exposes the solver's state when it traces a dead
// end.
type SearchPosition interface {
	Assumptions() []Identifier
	Conflicts() []AppliedConstraint
}

// Tracer observes the solver's search.
type Tracer interface {
	Trace(p SearchPosition)
}

// DefaultTracer ignores every position.
type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

// LoggingTracer writes each traced position to Writer.
type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nAssumptions:\n")
	for _, id := range p.Assumptions() {
		fmt.Fprintf(t.Writer, "- %s\n", id)
	}
	fmt.Fprintf(t.Writer, "Conflicts:\n")
	for _, a := range p.Conflicts() {
		fmt.Fprintf(t.Writer, "- %s\n", a)
	}
}
