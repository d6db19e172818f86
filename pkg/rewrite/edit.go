package rewrite

import "github.com/google/uuid"

// Edit is a proposed textual replacement over a byte span in one file's
// buffer. CandidateID ties the edit back to the candidate expression it was
// generated for, so rejections can be reported against the right site.
type Edit struct {
	Span        Span
	NewText     string
	CandidateID string
}

// NewEdit builds an edit with a fresh candidate ID. Callers that already
// carry an ID construct Edit directly.
func NewEdit(span Span, newText string) Edit {
	return Edit{
		Span:        span,
		NewText:     newText,
		CandidateID: uuid.NewString(),
	}
}
