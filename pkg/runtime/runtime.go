// Package runtime holds the instrumentation entry points that rewritten code
// calls in place of the original operator expressions. Each entry point
// performs the original operation, records the access, and optionally checks
// bounds. The package deliberately has no third-party dependencies: it is
// linked into user programs.
package runtime

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Config controls what the entry points log at run time.
type Config struct {
	LogIndexAccesses bool
	LogArithmetic    bool
	CheckBounds      bool
	Output           io.Writer
}

var (
	mu  sync.RWMutex
	cfg = Config{CheckBounds: true, Output: os.Stderr}

	accessCount atomic.Uint64
	opCount     atomic.Uint64
)

// Init resets configuration and counters to their defaults.
func Init() {
	SetConfig(Config{CheckBounds: true, Output: os.Stderr})
	ResetCounters()
}

// SetConfig replaces the runtime configuration.
func SetConfig(c Config) {
	mu.Lock()
	cfg = c
	mu.Unlock()
}

// AccessCount returns the number of recorded index accesses.
func AccessCount() uint64 {
	return accessCount.Load()
}

// OpCount returns the number of recorded arithmetic/comparison operations.
func OpCount() uint64 {
	return opCount.Load()
}

// ResetCounters zeroes the access and operation counters.
func ResetCounters() {
	accessCount.Store(0)
	opCount.Store(0)
}

func recordAccess(op string, index int) {
	accessCount.Add(1)
	mu.RLock()
	log, w := cfg.LogIndexAccesses, cfg.Output
	mu.RUnlock()
	if log && w != nil {
		fmt.Fprintf(w, "optrace: %s index=%d\n", op, index)
	}
}

func recordOp(op string) {
	opCount.Add(1)
	mu.RLock()
	log, w := cfg.LogArithmetic, cfg.Output
	mu.RUnlock()
	if log && w != nil {
		fmt.Fprintf(w, "optrace: op %s\n", op)
	}
}

func reportBounds(op string, index, length int) {
	mu.RLock()
	check, w := cfg.CheckBounds, cfg.Output
	mu.RUnlock()
	if check && w != nil {
		fmt.Fprintf(w, "optrace: %s out of range: index %d, length %d\n", op, index, length)
	}
}
