package mvcc

import "github.com/sulabhM/concurrent/hazard"

type txnState int

const (
	txnActive txnState = iota
	txnCommitted
	txnRolledBack
)

// insertAfterOp is a staged (anchor, element) pair for Txn.InsertAfter.
type insertAfterOp[E comparable] struct {
	anchor E
	elm    E
}

// Txn is a snapshot handle plus three ordered insert buffers (head, tail,
// after-anchor) and one remove buffer, applied to the list atomically in
// effect on Commit. A Txn must be used by exactly one goroutine from
// TxnStart to Commit/Rollback; distinct transactions on distinct goroutines may run
// concurrently against the same List.
type Txn[E comparable] struct {
	list        *List[E]
	snapshot    uint64
	participant *hazard.Participant
	state       txnState

	insHead  []E
	insTail  []E
	insAfter []insertAfterOp[E]
	removed  []E
}

// TxnStart captures the list's current commit counter as this
// transaction's snapshot and publishes it into the hazard registry's
// active-snapshot slot so the reclaimer will not unlink nodes still
// visible to it.
func (l *List[E]) TxnStart() (*Txn[E], error) {
	p, err := l.borrow()
	if err != nil {
		return nil, ErrHazardTableFull
	}
	s := l.clock.current()
	p.PublishSnapshot(s)
	return &Txn[E]{list: l, snapshot: s, participant: p}, nil
}

// Update runs fn against a fresh transaction, committing if fn returns
// nil and rolling back otherwise.
func (l *List[E]) Update(fn func(*Txn[E]) error) error {
	t, err := l.TxnStart()
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		_ = t.Rollback()
		return err
	}
	return t.Commit()
}

// InsertHead stages an insert at the head of the list, applied on Commit.
func (t *Txn[E]) InsertHead(elm E) error {
	if t.state != txnActive {
		return ErrTxnClosed
	}
	t.insHead = append(t.insHead, elm)
	return nil
}

// InsertTail stages an insert at the tail of the list, applied on Commit.
func (t *Txn[E]) InsertTail(elm E) error {
	if t.state != txnActive {
		return ErrTxnClosed
	}
	t.insTail = append(t.insTail, elm)
	return nil
}

// InsertAfter stages an insert immediately after anchor, applied on
// Commit. Multiple stages against the same anchor are applied in staging
// order, each behind the previously applied sibling.
func (t *Txn[E]) InsertAfter(anchor, elm E) error {
	if t.state != txnActive {
		return ErrTxnClosed
	}
	t.insAfter = append(t.insAfter, insertAfterOp[E]{anchor: anchor, elm: elm})
	return nil
}

// Remove stages a removal. If elm is currently staged for insert, the
// staged insert is cancelled (the list is never touched, caller retains
// ownership); otherwise, if elm is visible at this transaction's
// snapshot, it is staged for removal; otherwise this is a no-op.
func (t *Txn[E]) Remove(elm E) error {
	if t.state != txnActive {
		return ErrTxnClosed
	}
	if t.cancelStagedInsert(elm) {
		return nil
	}
	if t.list.containsAt(elm, t.snapshot) {
		t.removed = append(t.removed, elm)
	}
	return nil
}

// cancelStagedInsert removes elm from whichever insert buffer currently
// stages it, reporting whether it found (and cancelled) one.
func (t *Txn[E]) cancelStagedInsert(elm E) bool {
	for i, e := range t.insHead {
		if e == elm {
			t.insHead = append(t.insHead[:i], t.insHead[i+1:]...)
			return true
		}
	}
	for i, e := range t.insTail {
		if e == elm {
			t.insTail = append(t.insTail[:i], t.insTail[i+1:]...)
			return true
		}
	}
	for i, op := range t.insAfter {
		if op.elm == elm {
			t.insAfter = append(t.insAfter[:i], t.insAfter[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Txn[E]) isStagedInsert(elm E) bool {
	for _, e := range t.insHead {
		if e == elm {
			return true
		}
	}
	for _, e := range t.insTail {
		if e == elm {
			return true
		}
	}
	for _, op := range t.insAfter {
		if op.elm == elm {
			return true
		}
	}
	return false
}

func (t *Txn[E]) isStagedRemove(elm E) bool {
	for _, e := range t.removed {
		if e == elm {
			return true
		}
	}
	return false
}

// Contains reports whether elm would be visible after a hypothetical
// commit of this transaction with no interleaving: staged for insert
// (true), staged for removal (false), else whatever is visible at this
// transaction's snapshot.
func (t *Txn[E]) Contains(elm E) bool {
	if t.state != txnActive {
		return false
	}
	if t.isStagedInsert(elm) {
		return true
	}
	if t.isStagedRemove(elm) {
		return false
	}
	return t.list.containsAt(elm, t.snapshot)
}

// Foreach visits, in order: staged head inserts first-staged-first (the
// order Commit leaves them in at the head of the list), then each
// node visible at this transaction's snapshot and not staged for
// removal (immediately followed by every insert-after staged against
// that node's element, in staging order), then staged tail inserts
// first-staged-first. This models the list a reader would see after a
// hypothetical commit with no interleaving.
func (t *Txn[E]) Foreach(fn func(E)) error {
	if t.state != txnActive {
		return ErrTxnClosed
	}
	for _, e := range t.insHead {
		fn(e)
	}
	for curr := t.list.loadHead(); curr != nil; curr = loadNext(curr) {
		if !curr.visible(t.snapshot) || t.isStagedRemove(curr.elm) {
			continue
		}
		fn(curr.elm)
		for _, op := range t.insAfter {
			if op.anchor == curr.elm {
				fn(op.elm)
			}
		}
	}
	for _, e := range t.insTail {
		fn(e)
	}
	return nil
}

// Commit applies every staged operation to the list, in order: removes
// first (each consuming a fresh commit version), then insert-after in
// staging order, then insert-tail in
// staging order, then insert-head in reverse staging order (so the first
// staged head-insert ends up nearest the head). Commit is not atomic with
// respect to other committers: concurrent transactions may interleave;
// each individual staged operation still appears atomically in the
// list's own linearization order.
func (t *Txn[E]) Commit() error {
	if t.state != txnActive {
		return ErrTxnClosed
	}

	for _, elm := range t.removed {
		version := t.list.clock.next()
		for curr := t.list.loadHead(); curr != nil; curr = loadNext(curr) {
			if curr.elm == elm && curr.removedVersion.CompareAndSwap(0, version) {
				break
			}
		}
	}

	lastSibling := make(map[E]E, len(t.insAfter))
	for _, op := range t.insAfter {
		target := op.anchor
		if last, ok := lastSibling[op.anchor]; ok {
			target = last
		}
		if err := t.list.InsertAfter(target, op.elm); err == nil {
			lastSibling[op.anchor] = op.elm
		}
	}

	for _, elm := range t.insTail {
		t.list.InsertTail(elm)
	}

	for i := len(t.insHead) - 1; i >= 0; i-- {
		t.list.InsertHead(t.insHead[i])
	}

	t.state = txnCommitted
	t.list.reclaim(t.participant)
	t.list.release(t.participant)
	return nil
}

// Rollback discards every staged buffer and releases the transaction's
// hazard participant. No list mutation occurs; callers retain ownership
// of elements in cancelled insert buffers. Elements in the remove buffer
// are unaffected and remain in the list.
func (t *Txn[E]) Rollback() error {
	if t.state != txnActive {
		return ErrTxnClosed
	}
	t.state = txnRolledBack
	t.insHead, t.insTail, t.insAfter, t.removed = nil, nil, nil, nil
	t.list.release(t.participant)
	return nil
}
