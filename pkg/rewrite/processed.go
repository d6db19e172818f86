package rewrite

// ProcessedSet tracks spans already visited and transformed in one file, so a
// span is never considered twice even when traversal reaches the same node
// through different paths. Consult Seen before any transform decision.
type ProcessedSet struct {
	spans map[Span]struct{}
}

func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{spans: make(map[Span]struct{})}
}

// Mark records span as processed.
func (p *ProcessedSet) Mark(span Span) {
	p.spans[span] = struct{}{}
}

// Seen reports whether span was already processed.
func (p *ProcessedSet) Seen(span Span) bool {
	_, ok := p.spans[span]
	return ok
}

// Len returns the number of processed spans.
func (p *ProcessedSet) Len() int {
	return len(p.spans)
}
