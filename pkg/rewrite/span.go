// Package rewrite implements the transactional text-rewrite engine: byte
// spans, proposed edits, a per-file ledger of accepted non-overlapping edits,
// and atomic commit/rollback over a copy of the original buffer.
package rewrite

import (
	"fmt"

	"fortio.org/safecast"
)

// Span is a half-open byte range [Start, End) within one file buffer.
type Span struct {
	Start uint32
	End   uint32
}

// NewSpan converts int offsets (as produced by token.Position.Offset) into a
// Span, validating that the range is well-formed.
func NewSpan(start, end int) (Span, error) {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return Span{}, fmt.Errorf("span start %d: %w", start, err)
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		return Span{}, fmt.Errorf("span end %d: %w", end, err)
	}
	if s > e {
		return Span{}, fmt.Errorf("invalid span: start %d > end %d", start, end)
	}
	return Span{Start: s, End: e}, nil
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Conflicts reports whether two spans overlap. Spans are half-open, so a span
// ending exactly where another begins does not conflict. Two zero-length spans
// never conflict; a zero-length span conflicts with a non-empty one when its
// position falls inside it (start inclusive, end exclusive).
func (s Span) Conflicts(other Span) bool {
	if s.Empty() && other.Empty() {
		return false
	}
	if s.Empty() {
		return other.Start <= s.Start && s.Start < other.End
	}
	if other.Empty() {
		return s.Start <= other.Start && other.Start < s.End
	}
	return s.Start < other.End && other.Start < s.End
}
