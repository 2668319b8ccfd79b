// Package mvcc implements a concurrent, linearizable, singly-linked list
// with multi-version concurrency control snapshots and optimistic
// transactions.
//
// Many goroutines may insert, remove, search, and traverse a shared List
// without mutual exclusion. A reader can take a consistent point-in-time
// view (Iterator) that is unaffected by concurrent mutations, and a writer
// can stage a batch of changes in a Txn and apply them atomically, in
// effect, relative to the list's own serialization order.
//
// The list is an unordered bag with positional insert semantics, not an
// ordered set: there is no ordering by key.
package mvcc
