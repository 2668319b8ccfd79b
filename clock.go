package mvcc

import "sync/atomic"

// versionClock is the per-list monotonic 64-bit counter that timestamps
// every committed structural change. Version 0 is reserved to mean
// "unset" for a node's removedVersion; the counter itself starts at 1.
//
type versionClock struct {
	counter atomic.Uint64
}

func (c *versionClock) reset() {
	c.counter.Store(1)
}

// next performs a fetch-and-increment: it returns the version to assign
// to the caller's operation (the value the counter held before this call)
// and leaves the counter one higher for the next caller.
func (c *versionClock) next() uint64 {
	return c.counter.Add(1) - 1
}

// current returns the counter's present value without advancing it, the
// "load commit_counter" read used by remove_head, membership, and count.
func (c *versionClock) current() uint64 {
	return c.counter.Load()
}
