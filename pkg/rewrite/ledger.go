package rewrite

import (
	"fmt"
	"sort"
)

// Ledger is the authoritative record of accepted, non-overlapping edits for
// one file. Invariant: no two accepted spans overlap.
type Ledger struct {
	edits []Edit // kept sorted by Span.Start
}

// Conflicts reports whether span overlaps any accepted edit.
func (l *Ledger) Conflicts(span Span) bool {
	for _, e := range l.edits {
		if e.Span.Conflicts(span) {
			return true
		}
	}
	return false
}

// Accept records an edit. The caller must have checked Conflicts first;
// Accept re-checks and refuses rather than corrupting the invariant.
func (l *Ledger) Accept(edit Edit) error {
	if l.Conflicts(edit.Span) {
		return fmt.Errorf("edit %s conflicts with an accepted edit", edit.Span)
	}
	idx := sort.Search(len(l.edits), func(i int) bool {
		return l.edits[i].Span.Start >= edit.Span.Start
	})
	l.edits = append(l.edits, Edit{})
	copy(l.edits[idx+1:], l.edits[idx:])
	l.edits[idx] = edit
	return nil
}

// Len returns the number of accepted edits.
func (l *Ledger) Len() int {
	return len(l.edits)
}

// Edits returns the accepted edits sorted by ascending start offset.
func (l *Ledger) Edits() []Edit {
	out := make([]Edit, len(l.edits))
	copy(out, l.edits)
	return out
}

// Validate re-checks the no-overlap invariant across the full accepted set.
func (l *Ledger) Validate() error {
	for i := 1; i < len(l.edits); i++ {
		if l.edits[i-1].Span.Conflicts(l.edits[i].Span) {
			return fmt.Errorf("ledger invariant violated: %s overlaps %s",
				l.edits[i-1].Span, l.edits[i].Span)
		}
	}
	return nil
}

// Reset discards all accepted edits.
func (l *Ledger) Reset() {
	l.edits = nil
}
