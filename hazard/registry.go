// Package hazard implements the hazard-pointer-plus-active-snapshot
// registry that protects in-flight list traversals from reclamation and
// pins the oldest snapshot version still observable by any live reader or
// transaction. It is independent of any particular list/node type: slots
// hold opaque unsafe.Pointer values, the way the original C implementation
// holds void*.
package hazard

import (
	"errors"
	"math"
	"sync/atomic"
	"unsafe"
)

// MaxParticipants bounds how many concurrent participants a Registry can
// serve. The reference implementation uses 32; callers needing more should
// build a Registry with NewRegistryN.
const MaxParticipants = 32

// SlotsPerParticipant is the number of hazard slots each participant owns
// (one for "prev", one for "curr" during a two-pointer walk).
const SlotsPerParticipant = 2

// ErrRegistryFull is returned by Acquire when every participant slot is
// already claimed. Callers may treat it as recoverable by retrying later
// or by failing the operation that needed a participant.
var ErrRegistryFull = errors.New("hazard: registry full")

// Registry is a fixed-capacity table of hazard and active-snapshot slots.
// The zero value is not usable; construct with NewRegistry.
type Registry struct {
	hazards   []unsafe.Pointer
	snapshots []atomic.Uint64
	next      atomic.Int64
	cap       int64
}

// NewRegistry builds a Registry sized for MaxParticipants participants.
func NewRegistry() *Registry {
	return NewRegistryN(MaxParticipants)
}

// NewRegistryN builds a Registry sized for n participants. Use this to
// raise the capacity above MaxParticipants for workloads with more
// concurrent callers.
func NewRegistryN(n int) *Registry {
	return &Registry{
		hazards:   make([]unsafe.Pointer, n*SlotsPerParticipant),
		snapshots: make([]atomic.Uint64, n),
		cap:       int64(n),
	}
}

// Acquire claims the next free participant slot. Exceeding the registry's
// capacity returns ErrRegistryFull; it never corrupts registry state.
func (r *Registry) Acquire() (*Participant, error) {
	i := r.next.Add(1) - 1
	if i >= r.cap {
		return nil, ErrRegistryFull
	}
	return &Participant{reg: r, idx: int(i)}, nil
}

// MinActiveSnapshot returns the minimum nonzero value across all
// active-snapshot slots, or math.MaxUint64 if none are active. It is a
// safe under-approximation, not required to be linearizable.
func (r *Registry) MinActiveSnapshot() uint64 {
	min := uint64(math.MaxUint64)
	for i := range r.snapshots {
		v := r.snapshots[i].Load()
		if v != 0 && v < min {
			min = v
		}
	}
	return min
}

// IsHazarded reports whether ptr is currently published in any hazard
// slot, across every participant. A nil ptr is never hazarded.
func (r *Registry) IsHazarded(ptr unsafe.Pointer) bool {
	if ptr == nil {
		return false
	}
	for i := range r.hazards {
		if atomic.LoadPointer(&r.hazards[i]) == ptr {
			return true
		}
	}
	return false
}

// Participant is a per-thread (per-goroutine-turn, see List's pooling)
// handle onto a Registry: two hazard slots, one active-snapshot slot, and
// a private retire list of nodes this participant has unlinked but not
// yet confirmed free of hazards.
type Participant struct {
	reg     *Registry
	idx     int
	retired []unsafe.Pointer
}

// PublishHazard stores ptr (slot 0 = "prev", slot 1 = "curr") with a
// release store. Pass nil to stop protecting whatever was previously
// published in that slot.
func (p *Participant) PublishHazard(slot int, ptr unsafe.Pointer) {
	atomic.StorePointer(&p.reg.hazards[p.idx*SlotsPerParticipant+slot], ptr)
}

// ClearHazards stops protecting anything this participant previously
// published.
func (p *Participant) ClearHazards() {
	p.PublishHazard(0, nil)
	p.PublishHazard(1, nil)
}

// PublishSnapshot records the oldest snapshot version this participant
// still needs visible, preventing the reclaimer from unlinking nodes
// removed at or after that version.
func (p *Participant) PublishSnapshot(v uint64) {
	p.reg.snapshots[p.idx].Store(v)
}

// ClearSnapshot marks this participant as having no open snapshot.
func (p *Participant) ClearSnapshot() {
	p.reg.snapshots[p.idx].Store(0)
}

// Retire appends ptr to this participant's thread-local retire list. The
// caller has already unlinked ptr from the chain; it is not freed (nor, in
// this Go port, is any memory manually released — see Drain) until a
// rescan confirms no hazard slot still references it.
func (p *Participant) Retire(ptr unsafe.Pointer) {
	p.retired = append(p.retired, ptr)
}

// Drain walks this participant's retire list and, for each entry no
// longer present in any hazard slot, calls free and drops it from the
// list. Entries free returns false for (still contended, or the caller
// chose to defer) stay on the retire list for a future pass.
func (p *Participant) Drain(free func(unsafe.Pointer) bool) {
	kept := p.retired[:0]
	for _, ptr := range p.retired {
		if p.reg.IsHazarded(ptr) || !free(ptr) {
			kept = append(kept, ptr)
			continue
		}
	}
	p.retired = kept
}

// Reset clears this participant's hazard and snapshot slots so it can be
// safely handed to a new borrower (see List's sync.Pool of participants).
// The retire list is left untouched: retired-but-not-yet-freed nodes must
// still be drained by whoever holds this participant next.
func (p *Participant) Reset() {
	p.ClearHazards()
	p.ClearSnapshot()
}
