package mvcc

import (
	"sync/atomic"
	"unsafe"
)

// loadPtr, storePtr, and casPtr wrap sync/atomic's untyped pointer
// primitives for any *node[E] slot, whether it's a node's next link or a
// List's head.
func loadPtr[E comparable](addr *unsafe.Pointer) *node[E] {
	return (*node[E])(atomic.LoadPointer(addr))
}

func storePtr[E comparable](addr *unsafe.Pointer, n *node[E]) {
	atomic.StorePointer(addr, unsafe.Pointer(n))
}

func casPtr[E comparable](addr *unsafe.Pointer, old, new *node[E]) bool {
	return atomic.CompareAndSwapPointer(addr, unsafe.Pointer(old), unsafe.Pointer(new))
}
