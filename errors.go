package mvcc

import "errors"

// ErrNotFound is returned when a List operation names an element or anchor
// that is not present (or no longer visible) in the list.
var ErrNotFound = errors.New("mvcc: not found")

// ErrAlreadyExists reports an element that is present where it must be
// absent. No operation in this package currently returns it; a second
// removal of the same element returns ErrNotFound.
var ErrAlreadyExists = errors.New("mvcc: already exists")

// ErrTxnClosed is returned by every error-returning Txn method called
// after Commit or Rollback, turning what would otherwise be caller misuse
// into a checked, returned error rather than a debug assertion.
// Txn.Contains, which returns no error, reports false instead.
var ErrTxnClosed = errors.New("mvcc: transaction already committed or rolled back")

// ErrAllocFailed is reserved for allocation-fallible paths such as a
// pooled-node allocator. Go's allocator panics rather than returning an
// error, so this sentinel is currently unused in practice; see DESIGN.md.
var ErrAllocFailed = errors.New("mvcc: allocation failed")

// ErrHazardTableFull is returned when the hazard registry has no free
// participant slots left. It mirrors hazard.ErrRegistryFull at the mvcc
// API surface so callers do not need to import the hazard package.
var ErrHazardTableFull = errors.New("mvcc: hazard table full")
