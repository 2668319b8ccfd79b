package mvcc

import (
	"math"
	"unsafe"

	"github.com/sulabhM/concurrent/hazard"
)

// reclaim is the full reclaimer pass: compute the minimum active
// snapshot, unlink every tombstone older than it, then drain the
// participant's retire list against a fresh hazard rescan.
// Called opportunistically by Txn.Commit and by RemoveHead's direct
// unlink path; safe to call with an empty amount of work to do.
func (l *List[E]) reclaim(p *hazard.Participant) {
	m := l.hz.MinActiveSnapshot()
	if m == math.MaxUint64 {
		m = l.clock.current()
	}
	l.unlinkTombstones(p, m)
	l.drain(p)
}

// unlinkTombstones walks the chain once, CAS-unlinking any node whose
// removedVersion is nonzero and strictly below m, and handing each
// unlinked node to the participant's retire list.
func (l *List[E]) unlinkTombstones(p *hazard.Participant, m uint64) {
	prevAddr := &l.head
	curr := l.loadHead()
	for curr != nil {
		p.PublishHazard(1, unsafe.Pointer(curr))
		next := loadNext(curr)
		rv := curr.removedVersion.Load()
		if rv != 0 && rv < m {
			if casPtr[E](prevAddr, curr, next) {
				p.Retire(unsafe.Pointer(curr))
				curr = next
				continue
			}
			// lost the race; someone else advanced prevAddr, rescan from there.
			curr = loadPtr[E](prevAddr)
			continue
		}
		p.PublishHazard(0, unsafe.Pointer(curr))
		prevAddr = &curr.next
		curr = next
	}
}

// drain confirms, for each node on the participant's retire list, that no
// hazard slot anywhere in the registry still references it, and if so
// invokes freeCB (when set) on its element. Nodes still hazarded stay on
// the retire list for a future pass; this module relies on the Go garbage
// collector for the actual memory reclamation once a node becomes
// unreachable, so "free" here means "safe to invoke freeCB and drop our
// last reference", not a manual deallocation (see DESIGN.md, reclaim.go).
func (l *List[E]) drain(p *hazard.Participant) {
	p.Drain(func(ptr unsafe.Pointer) bool {
		n := (*node[E])(ptr)
		if l.freeCB != nil {
			l.freeCB(n.elm)
		}
		return true
	})
	p.ClearHazards()
}
