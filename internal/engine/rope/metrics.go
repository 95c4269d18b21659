package rope

import "sync/atomic"

// Stats is a snapshot of process-wide node accounting, summed over all unit
// types. Counters only grow; live counts are derived.
type Stats struct {
	LeavesAllocated uint64
	LeavesFreed     uint64
	LinksAllocated  uint64
	LinksFreed      uint64

	// Flattens counts flatten operations that copied data.
	Flattens uint64

	// UnitsCopied counts storage units copied by those flattens.
	UnitsCopied uint64
}

// LiveLeaves returns the number of leaves not yet freed.
func (s Stats) LiveLeaves() uint64 {
	return s.LeavesAllocated - s.LeavesFreed
}

// LiveLinks returns the number of links not yet freed.
func (s Stats) LiveLinks() uint64 {
	return s.LinksAllocated - s.LinksFreed
}

// Allocated returns the total number of nodes allocated.
func (s Stats) Allocated() uint64 {
	return s.LeavesAllocated + s.LinksAllocated
}

// Sub returns the counter deltas between s and an earlier snapshot.
func (s Stats) Sub(earlier Stats) Stats {
	return Stats{
		LeavesAllocated: s.LeavesAllocated - earlier.LeavesAllocated,
		LeavesFreed:     s.LeavesFreed - earlier.LeavesFreed,
		LinksAllocated:  s.LinksAllocated - earlier.LinksAllocated,
		LinksFreed:      s.LinksFreed - earlier.LinksFreed,
		Flattens:        s.Flattens - earlier.Flattens,
		UnitsCopied:     s.UnitsCopied - earlier.UnitsCopied,
	}
}

var stats struct {
	leavesAllocated atomic.Uint64
	leavesFreed     atomic.Uint64
	linksAllocated  atomic.Uint64
	linksFreed      atomic.Uint64
	flattens        atomic.Uint64
	unitsCopied     atomic.Uint64
}

// ReadStats returns the current node accounting.
func ReadStats() Stats {
	return Stats{
		LeavesAllocated: stats.leavesAllocated.Load(),
		LeavesFreed:     stats.leavesFreed.Load(),
		LinksAllocated:  stats.linksAllocated.Load(),
		LinksFreed:      stats.linksFreed.Load(),
		Flattens:        stats.flattens.Load(),
		UnitsCopied:     stats.unitsCopied.Load(),
	}
}
