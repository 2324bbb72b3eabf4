package ir

import (
	"fmt"
	"sync/atomic"
)

// IDGen is the auto-ID counter for fresh wire and cell names: process-wide
// and monotonic, shared across every module in one translation unit (never
// reset per module). Built on sync/atomic so a multi-goroutine driver can
// share one counter across modules translated concurrently.
type IDGen struct {
	n atomic.Int64
}

// NewIDGen creates a fresh, zeroed counter.
func NewIDGen() *IDGen {
	return &IDGen{}
}

// Next returns the next monotonically increasing index, starting at 0.
func (g *IDGen) Next() int64 {
	return g.n.Add(1) - 1
}

// CellName derives a unique cell name from its kind, source location, and
// the next autoidx: "(cell_kind, source_location, autoidx)".
func (g *IDGen) CellName(kind string, src Src) string {
	return fmt.Sprintf("$%s$%s$%d", kind, src.String(), g.Next())
}

// ContextName builds a task/function inlining context tag,
// "taskname$func$file:line$id".
func ContextName(taskname string, src Src, id int64) string {
	return fmt.Sprintf("%s$func$%s$%d", taskname, src.String(), id)
}
