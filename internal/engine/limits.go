package engine

import (
	"context"
	"errors"
	"time"
)

// Limits bounds a search. Zero fields are unlimited; with no limits at all
// the search runs to MaxPly or until the caller's context ends.
type Limits struct {
	Depth    int           // maximum iteration depth
	MoveTime time.Duration // wall clock for the whole search
	Nodes    uint64        // node budget
}

// checkInterval is the node quantum between budget polls. Power of two.
const checkInterval = 2048

// errSearchCancelled unwinds the search when the budget runs out. It never
// leaves the package: Search reports the last completed iteration instead.
var errSearchCancelled = errors.New("search cancelled")

// budget decides when the running search has to stop.
type budget struct {
	ctx       context.Context
	nodeLimit uint64
	stopped   bool
}

// spend accounts for one node and reports whether the search must unwind.
// The context is only polled every checkInterval nodes.
func (b *budget) spend(nodes uint64) bool {
	if b.stopped {
		return true
	}
	if b.nodeLimit > 0 && nodes >= b.nodeLimit {
		b.stopped = true
	} else if nodes&(checkInterval-1) == 0 && b.ctx.Err() != nil {
		b.stopped = true
	}
	return b.stopped
}
