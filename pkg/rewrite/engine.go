package rewrite

import (
	"errors"
	"fmt"
	"sort"
)

// State tracks the per-file engine lifecycle.
type State uint8

const (
	StateIdle State = iota
	StateAccumulating
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

var (
	// ErrConflict is returned by Propose when an edit overlaps an accepted one.
	ErrConflict = errors.New("edit conflicts with an accepted edit")

	// ErrOutOfRange is returned when a span does not fit the buffer.
	ErrOutOfRange = errors.New("span out of buffer range")

	// ErrBadState is returned when an operation is invalid in the current state.
	ErrBadState = errors.New("operation invalid in current engine state")
)

// CommitError reports a ledger invariant violation detected at commit time.
// The engine rolls back; the original buffer is emitted unchanged.
type CommitError struct {
	Cause error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed, all edits rolled back: %v", e.Cause)
}

func (e *CommitError) Unwrap() error { return e.Cause }

// Rejection records an edit that was proposed but not accepted.
type Rejection struct {
	Edit   Edit
	Reason string
}

// Engine accumulates proposed edits for one file and applies them atomically.
// Edits never touch the buffer before CommitAll; CommitAll splices into a
// copy, so the original bytes survive regardless of outcome.
//
// Conflict policy: first-proposed wins. A later edit overlapping an accepted
// one is rejected and recorded, never merged or silently dropped.
type Engine struct {
	src      []byte
	ledger   Ledger
	state    State
	rejected []Rejection
}

func NewEngine(src []byte) *Engine {
	return &Engine{src: src, state: StateIdle}
}

// Original returns the pristine input buffer.
func (e *Engine) Original() []byte {
	return e.src
}

// Slice extracts verbatim source text for a span from the pristine buffer.
// This is the only sanctioned way to capture operand text: it never observes
// pending edits.
func (e *Engine) Slice(span Span) (string, error) {
	if int(span.End) > len(e.src) {
		return "", fmt.Errorf("%w: %s in buffer of %d bytes", ErrOutOfRange, span, len(e.src))
	}
	return string(e.src[span.Start:span.End]), nil
}

// Propose offers an edit for the accumulating set. It fails with ErrConflict
// if the edit's span overlaps any already-accepted edit.
func (e *Engine) Propose(edit Edit) error {
	switch e.state {
	case StateIdle:
		e.state = StateAccumulating
	case StateAccumulating:
	default:
		return fmt.Errorf("%w: %s", ErrBadState, e.state)
	}
	if int(edit.Span.End) > len(e.src) {
		e.rejected = append(e.rejected, Rejection{Edit: edit, Reason: "span out of range"})
		return fmt.Errorf("%w: %s", ErrOutOfRange, edit.Span)
	}
	if e.ledger.Conflicts(edit.Span) {
		e.rejected = append(e.rejected, Rejection{Edit: edit, Reason: "overlaps accepted edit"})
		return ErrConflict
	}
	return e.ledger.Accept(edit)
}

// Pending returns the number of accepted, not-yet-committed edits.
func (e *Engine) Pending() int {
	if e.state != StateAccumulating {
		return 0
	}
	return e.ledger.Len()
}

// Rejected returns every proposal the engine refused, with reasons.
func (e *Engine) Rejected() []Rejection {
	out := make([]Rejection, len(e.rejected))
	copy(out, e.rejected)
	return out
}

// CommitAll re-validates the no-overlap invariant, then applies the accepted
// edits to a copy of the original buffer in descending start-offset order so
// earlier offsets stay valid after each splice. On invariant violation the
// engine rolls back and the caller gets a *CommitError.
func (e *Engine) CommitAll() ([]byte, error) {
	if e.state == StateIdle {
		// Zero edits: output is byte-identical to input.
		e.state = StateCommitted
		return append([]byte(nil), e.src...), nil
	}
	if e.state != StateAccumulating {
		return nil, fmt.Errorf("%w: %s", ErrBadState, e.state)
	}
	if err := e.ledger.Validate(); err != nil {
		e.Rollback()
		return nil, &CommitError{Cause: err}
	}

	edits := e.ledger.Edits()
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Span.Start == edits[j].Span.Start {
			return edits[i].Span.End > edits[j].Span.End
		}
		return edits[i].Span.Start > edits[j].Span.Start
	})

	out := append([]byte(nil), e.src...)
	for _, edit := range edits {
		start, end := int(edit.Span.Start), int(edit.Span.End)
		if end > len(out) {
			e.Rollback()
			return nil, &CommitError{Cause: fmt.Errorf("%w: %s", ErrOutOfRange, edit.Span)}
		}
		suffix := append([]byte(nil), out[end:]...)
		out = append(append(out[:start], []byte(edit.NewText)...), suffix...)
	}

	e.state = StateCommitted
	return out, nil
}

// Rollback discards the accumulated edits. The original buffer is untouched.
func (e *Engine) Rollback() {
	e.ledger.Reset()
	e.state = StateRolledBack
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}
