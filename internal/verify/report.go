package verify

import (
	"fmt"
	"io"
	"sync"
)

// Reporter emits the run's diagnostic lines. Groups verify concurrently
// and their lines may interleave, but each individual line is written
// atomically so output never splits mid-line.
type Reporter struct {
	mu sync.Mutex
	w  io.Writer

	lines int
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Printf writes one diagnostic line.
func (r *Reporter) Printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format+"\n", args...)
	r.lines++
}

// Lines returns how many diagnostic lines were emitted. Zero means every
// package verified cleanly.
func (r *Reporter) Lines() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines
}
