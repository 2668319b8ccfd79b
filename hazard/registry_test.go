package hazard

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestAcquireExhaustion(t *testing.T) {
	r := NewRegistryN(2)

	p1, err := r.Acquire()
	require.NoError(t, err)
	p2, err := r.Acquire()
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)

	_, err = r.Acquire()
	require.ErrorIs(t, err, ErrRegistryFull)
}

func TestMinActiveSnapshotWithNoParticipants(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, uint64(math.MaxUint64), r.MinActiveSnapshot())
}

func TestMinActiveSnapshotTracksLowestPublishedValue(t *testing.T) {
	r := NewRegistryN(4)
	p1, err := r.Acquire()
	require.NoError(t, err)
	p2, err := r.Acquire()
	require.NoError(t, err)

	p1.PublishSnapshot(10)
	p2.PublishSnapshot(5)
	require.Equal(t, uint64(5), r.MinActiveSnapshot())

	p2.ClearSnapshot()
	require.Equal(t, uint64(10), r.MinActiveSnapshot())

	p1.ClearSnapshot()
	require.Equal(t, uint64(math.MaxUint64), r.MinActiveSnapshot())
}

func TestIsHazardedReflectsPublishedPointers(t *testing.T) {
	r := NewRegistryN(2)
	p, err := r.Acquire()
	require.NoError(t, err)

	var x int
	ptr := unsafe.Pointer(&x)

	require.False(t, r.IsHazarded(ptr))
	p.PublishHazard(0, ptr)
	require.True(t, r.IsHazarded(ptr))

	p.ClearHazards()
	require.False(t, r.IsHazarded(ptr))
}

func TestDrainKeepsHazardedEntriesAndFreesTheRest(t *testing.T) {
	r := NewRegistryN(2)
	owner, err := r.Acquire()
	require.NoError(t, err)
	reader, err := r.Acquire()
	require.NoError(t, err)

	var a, b int
	pa, pb := unsafe.Pointer(&a), unsafe.Pointer(&b)
	reader.PublishHazard(0, pa) // a is still being read by another participant

	owner.Retire(pa)
	owner.Retire(pb)

	var freed []unsafe.Pointer
	owner.Drain(func(p unsafe.Pointer) bool {
		freed = append(freed, p)
		return true
	})

	require.Equal(t, []unsafe.Pointer{pb}, freed)

	reader.ClearHazards()
	owner.Drain(func(p unsafe.Pointer) bool {
		freed = append(freed, p)
		return true
	})
	require.Equal(t, []unsafe.Pointer{pb, pa}, freed)
}
