// Package stats records outcome counts for the rewrite pipeline. It is pure
// bookkeeping: the core's correctness never depends on it. Counters are
// process-wide, reset only on explicit request, and safe for the bounded
// per-file parallelism the orchestrator uses.
package stats

import (
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// Outcome names one pipeline event worth counting.
type Outcome uint8

const (
	Classified Outcome = iota
	FilteredOut
	ContextRejected
	DeferredTyped
	Generated
	GenerationFailed
	ExtractionFailed
	Proposed
	Committed
	ConflictRejected
	CommitFailed
	FileRewritten
	FileUnchanged
)

// Snapshot is a read-only copy of the counters.
type Snapshot struct {
	Classified       uint64 `yaml:"classified"`
	FilteredOut      uint64 `yaml:"filtered_out"`
	ContextRejected  uint64 `yaml:"context_rejected"`
	DeferredTyped    uint64 `yaml:"deferred_typed"`
	Generated        uint64 `yaml:"generated"`
	GenerationFailed uint64 `yaml:"generation_failed"`
	ExtractionFailed uint64 `yaml:"extraction_failed"`
	Proposed         uint64 `yaml:"proposed"`
	Committed        uint64 `yaml:"committed"`
	ConflictRejected uint64 `yaml:"conflict_rejected"`
	CommitFailed     uint64 `yaml:"commit_failed"`
	FilesRewritten   uint64 `yaml:"files_rewritten"`
	FilesUnchanged   uint64 `yaml:"files_unchanged"`
}

// Collector accumulates outcome counts.
type Collector struct {
	mu   sync.Mutex
	snap Snapshot
}

func New() *Collector {
	return &Collector{}
}

// Count increments the counter for one outcome.
func (c *Collector) Count(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch o {
	case Classified:
		c.snap.Classified++
	case FilteredOut:
		c.snap.FilteredOut++
	case ContextRejected:
		c.snap.ContextRejected++
	case DeferredTyped:
		c.snap.DeferredTyped++
	case Generated:
		c.snap.Generated++
	case GenerationFailed:
		c.snap.GenerationFailed++
	case ExtractionFailed:
		c.snap.ExtractionFailed++
	case Proposed:
		c.snap.Proposed++
	case Committed:
		c.snap.Committed++
	case ConflictRejected:
		c.snap.ConflictRejected++
	case CommitFailed:
		c.snap.CommitFailed++
	case FileRewritten:
		c.snap.FilesRewritten++
	case FileUnchanged:
		c.snap.FilesUnchanged++
	}
}

// Add merges another snapshot into the collector (per-file counts rolling up
// into the process-wide totals).
func (c *Collector) Add(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Classified += s.Classified
	c.snap.FilteredOut += s.FilteredOut
	c.snap.ContextRejected += s.ContextRejected
	c.snap.DeferredTyped += s.DeferredTyped
	c.snap.Generated += s.Generated
	c.snap.GenerationFailed += s.GenerationFailed
	c.snap.ExtractionFailed += s.ExtractionFailed
	c.snap.Proposed += s.Proposed
	c.snap.Committed += s.Committed
	c.snap.ConflictRejected += s.ConflictRejected
	c.snap.CommitFailed += s.CommitFailed
	c.snap.FilesRewritten += s.FilesRewritten
	c.snap.FilesUnchanged += s.FilesUnchanged
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = Snapshot{}
}

// WriteSummary prints a human-readable summary of the snapshot.
func (s Snapshot) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Transformation statistics:\n"+
			"  classified:         %d\n"+
			"  context rejected:   %d\n"+
			"  filtered out:       %d\n"+
			"  deferred typed:     %d\n"+
			"  generated:          %d\n"+
			"  generation failed:  %d\n"+
			"  extraction failed:  %d\n"+
			"  committed:          %d\n"+
			"  conflict rejected:  %d\n"+
			"  files rewritten:    %d\n"+
			"  files unchanged:    %d\n",
		s.Classified, s.ContextRejected, s.FilteredOut, s.DeferredTyped,
		s.Generated, s.GenerationFailed, s.ExtractionFailed,
		s.Committed, s.ConflictRejected, s.FilesRewritten, s.FilesUnchanged)
	return err
}

// MarshalYAML is implicit via field tags; EncodeYAML writes the snapshot as a
// YAML document for machine consumption.
func (s Snapshot) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}

var (
	defaultMu sync.Mutex
	def       = New()
)

// Default returns the process-wide collector.
func Default() *Collector {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return def
}

// Init replaces the process-wide collector with a fresh one.
func Init() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	def = New()
}
