package mvcc

import (
	"unsafe"

	"github.com/sulabhM/concurrent/hazard"
)

// Iterator is a snapshot reader: it is constructed against the last
// version the list's clock had assigned at creation time and yields
// exactly the elements visible at that snapshot, regardless of concurrent
// mutation.
//
// The iterator holds a hazard slot on its current node so the reclaimer
// cannot free a node out from under it. It does not also publish an
// active-snapshot slot — a bare Iterator only gets hazard-pointer
// protection of the node it is sitting on, not a guarantee that older
// tombstones elsewhere in the chain survive reclamation. Callers who need
// the list's min-active-snapshot to respect an entire walk's duration
// should drive that walk through a Txn instead (TxnStart publishes the
// snapshot for its whole lifetime).
//
// Callers must call Close when done to return the iterator's hazard
// participant to the list, the same discipline database/sql.Rows expects.
type Iterator[E comparable] struct {
	list        *List[E]
	snapshot    uint64
	cur         *node[E]
	pending     *node[E]
	participant *hazard.Participant
	closed      bool
}

// Iter returns an iterator pinned at the last version the list's clock
// has assigned, so any mutation that takes its version after this call is
// invisible to the iterator.
func (l *List[E]) Iter() *Iterator[E] {
	// current() is the version the next mutation will be assigned; the
	// counter starts at 1, so current()-1 never underflows.
	it := &Iterator[E]{list: l, snapshot: l.clock.current() - 1}
	if p, err := l.borrow(); err == nil {
		it.participant = p
	}
	it.advanceTo(l.loadHead())
	return it
}

func (it *Iterator[E]) advanceTo(start *node[E]) {
	n := start
	for n != nil && !n.visible(it.snapshot) {
		n = loadNext(n)
	}
	it.pending = n
	if it.participant != nil {
		var hz unsafe.Pointer
		if n != nil {
			hz = unsafe.Pointer(n)
		}
		it.participant.PublishHazard(1, hz)
	}
}

// Next advances the iterator and reports whether a value is available.
func (it *Iterator[E]) Next() bool {
	if it.pending == nil {
		return false
	}
	it.cur = it.pending
	it.advanceTo(loadNext(it.cur))
	return true
}

// Value returns the element at the iterator's current position. Value
// must only be called after a call to Next that returned true.
func (it *Iterator[E]) Value() E {
	return it.cur.elm
}

// Close releases the iterator's hazard participant back to the list.
// Closing an already-closed iterator is a no-op.
func (it *Iterator[E]) Close() {
	if it.closed {
		return
	}
	it.closed = true
	if it.participant != nil {
		it.list.release(it.participant)
	}
}

// Slice drains the iterator into a freshly allocated slice and closes it.
// Convenience for tests and small lists; large concurrent lists should
// prefer Next/Value to avoid holding every element in memory at once.
func (it *Iterator[E]) Slice() []E {
	defer it.Close()
	var out []E
	for it.Next() {
		out = append(out, it.Value())
	}
	return out
}
