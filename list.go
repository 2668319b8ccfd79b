package mvcc

import (
	"sync"
	"unsafe"

	"github.com/sulabhM/concurrent/hazard"
)

// FreeFunc is a caller-supplied finalizer invoked exactly once per element
// when the node holding it is reclaimed.
type FreeFunc[E comparable] func(E)

// List is the lock-free, MVCC-versioned singly-linked list. The zero value
// is not usable; construct with NewList.
//
// Elements form a single ordered chain; the list is an unordered bag with
// positional insert semantics, not a set ordered by key.
type List[E comparable] struct {
	head unsafe.Pointer // *node[E]
	clock versionClock
	freeCB FreeFunc[E]

	hz           *hazard.Registry
	participants sync.Pool
}

// Option configures a List at construction time.
type Option[E comparable] func(*List[E])

// WithFreeFunc registers a finalizer invoked once per element when its
// node is reclaimed. Remove only tombstones a node; reclamation passes run
// in RemoveHead and Txn.Commit.
func WithFreeFunc[E comparable](cb FreeFunc[E]) Option[E] {
	return func(l *List[E]) { l.freeCB = cb }
}

// WithHazardCapacity overrides the number of concurrent participants the
// list's hazard registry can serve.
func WithHazardCapacity[E comparable](n int) Option[E] {
	return func(l *List[E]) { l.hz = hazard.NewRegistryN(n) }
}

// NewList returns an empty list.
func NewList[E comparable](opts ...Option[E]) *List[E] {
	l := &List[E]{}
	l.clock.reset()
	for _, opt := range opts {
		opt(l)
	}
	if l.hz == nil {
		l.hz = hazard.NewRegistry()
	}
	l.participants.New = func() any {
		p, err := l.hz.Acquire()
		if err != nil {
			return nil
		}
		return p
	}
	return l
}

// borrow obtains a hazard participant for the duration of a single list
// operation. Go has no thread-locals, so each operation borrows an explicit
// participant handle from a pool instead of registering one per goroutine.
func (l *List[E]) borrow() (*hazard.Participant, error) {
	v := l.participants.Get()
	p, ok := v.(*hazard.Participant)
	if !ok || p == nil {
		return nil, ErrHazardTableFull
	}
	return p, nil
}

func (l *List[E]) release(p *hazard.Participant) {
	p.Reset()
	l.participants.Put(p)
}

func (l *List[E]) loadHead() *node[E] {
	return loadPtr[E](&l.head)
}

// InsertHead inserts elm at the head of the list. No hazard slot is
// required: the new node is private until its publishing CAS succeeds.
func (l *List[E]) InsertHead(elm E) {
	n := &node[E]{elm: elm, insertVersion: l.clock.next()}
	for {
		old := l.loadHead()
		storeNextRaw(n, old)
		if casPtr[E](&l.head, old, n) {
			return
		}
	}
}

// InsertTail inserts elm at the tail of the list. Tombstoned nodes are
// still valid chain elements for linkage purposes and are walked through,
// not skipped.
func (l *List[E]) InsertTail(elm E) {
	n := &node[E]{elm: elm, insertVersion: l.clock.next()}
	p, err := l.borrow()
	if err != nil {
		return
	}
	defer l.release(p)

	for {
		head := l.loadHead()
		if head == nil {
			if casPtr[E](&l.head, nil, n) {
				return
			}
			continue
		}
		p.PublishHazard(1, unsafe.Pointer(head))
		if l.loadHead() != head {
			continue
		}
		curr := head
		for {
			next := loadNext(curr)
			if next == nil {
				break
			}
			p.PublishHazard(1, unsafe.Pointer(next))
			curr = next
		}
		if casNext(curr, nil, n) {
			return
		}
	}
}

// InsertAfter links elm immediately after the first node whose element is
// identity-equal to anchor and visible at the snapshot captured when this
// call started. Returns ErrNotFound (the new node dropped, never linked)
// if no such anchor exists by the time the walk completes.
//
// On a losing CAS against the anchor's next pointer, the walk restarts
// from head rather than retrying the CAS with a stale next snapshot: a
// concurrent InsertAfter against the same anchor may have spliced a
// sibling in, and naively retrying would drop that sibling.
func (l *List[E]) InsertAfter(anchor, elm E) error {
	s := l.clock.next()
	n := &node[E]{elm: elm, insertVersion: s}

	p, err := l.borrow()
	if err != nil {
		return ErrHazardTableFull
	}
	defer l.release(p)

	for {
		curr := l.loadHead()
		var found *node[E]
		for curr != nil {
			p.PublishHazard(1, unsafe.Pointer(curr))
			if curr.elm == anchor && curr.visible(s) {
				found = curr
				break
			}
			curr = loadNext(curr)
		}
		if found == nil {
			return ErrNotFound
		}
		next := loadNext(found)
		storeNextRaw(n, next)
		if casNext(found, next, n) {
			return nil
		}
		// lost the race against a concurrent insert on the same anchor;
		// rewalk from head rather than retrying against a stale `next`.
	}
}

// RemoveHead removes and returns the first node visible at the snapshot
// captured when this call started. Returns (zero, false) if the list is
// logically empty at that snapshot, even if tombstones remain physically
// linked.
func (l *List[E]) RemoveHead() (E, bool) {
	s := l.clock.current()
	p, err := l.borrow()
	if err != nil {
		var zero E
		return zero, false
	}
	defer l.release(p)

	for {
		head := l.loadHead()
		if head == nil {
			var zero E
			return zero, false
		}
		p.PublishHazard(1, unsafe.Pointer(head))
		if l.loadHead() != head {
			continue
		}
		if head.visible(s) {
			next := loadNext(head)
			if casPtr[E](&l.head, head, next) {
				l.retireAndReclaim(p, head)
				return head.elm, true
			}
			continue
		}

		prev := head
		curr := loadNext(head)
		for curr != nil && !curr.visible(s) {
			p.PublishHazard(0, unsafe.Pointer(prev))
			p.PublishHazard(1, unsafe.Pointer(curr))
			prev = curr
			curr = loadNext(curr)
		}
		if curr == nil {
			var zero E
			return zero, false
		}
		next := loadNext(curr)
		if casNext(prev, curr, next) {
			l.retireAndReclaim(p, curr)
			return curr.elm, true
		}
	}
}

// Remove tombstones the first live node whose element is identity-equal to
// elm. Physical unlinking is deferred to the reclaimer. A second removal
// of an already-tombstoned element is a no-op returning ErrNotFound.
func (l *List[E]) Remove(elm E) error {
	c := l.clock.next()
	curr := l.loadHead()
	for curr != nil {
		if curr.elm == elm && curr.removedVersion.CompareAndSwap(0, c) {
			return nil
		}
		curr = loadNext(curr)
	}
	return ErrNotFound
}

// Contains reports whether elm is visible in the list as of the moment
// this call started walking.
func (l *List[E]) Contains(elm E) bool {
	s := l.clock.current()
	for curr := l.loadHead(); curr != nil; curr = loadNext(curr) {
		if curr.elm == elm && curr.visible(s) {
			return true
		}
	}
	return false
}

// Size returns the number of elements visible as of the moment this call
// started walking.
func (l *List[E]) Size() int {
	s := l.clock.current()
	n := 0
	for curr := l.loadHead(); curr != nil; curr = loadNext(curr) {
		if curr.visible(s) {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the list has no element visible as of the
// moment this call started walking.
func (l *List[E]) IsEmpty() bool {
	s := l.clock.current()
	for curr := l.loadHead(); curr != nil; curr = loadNext(curr) {
		if curr.visible(s) {
			return false
		}
	}
	return true
}

// containsAt is Contains pinned to an already-captured snapshot, used by
// Txn to test visibility as of the transaction's start rather than now.
func (l *List[E]) containsAt(elm E, s uint64) bool {
	for curr := l.loadHead(); curr != nil; curr = loadNext(curr) {
		if curr.elm == elm && curr.visible(s) {
			return true
		}
	}
	return false
}

// retireAndReclaim hands a physically-unlinked node to the participant's
// retire list and opportunistically runs a reclaim pass. Called from
// RemoveHead, which unlinks directly rather than tombstoning; the node
// still needs the hazard-safe drain before freeCB runs, same as a
// reclaimer-unlinked tombstone.
func (l *List[E]) retireAndReclaim(p *hazard.Participant, n *node[E]) {
	p.Retire(unsafe.Pointer(n))
	l.reclaim(p)
}
