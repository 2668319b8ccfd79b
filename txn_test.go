package mvcc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTxnStageAndCommit(t *testing.T) {
	l := NewList[int]()
	l.InsertTail(1)
	l.InsertTail(2)

	tx, err := l.TxnStart()
	require.NoError(t, err)

	require.NoError(t, tx.InsertAfter(1, 42))
	require.NoError(t, tx.InsertTail(99))
	require.NoError(t, tx.Remove(2))

	var seen []int
	require.NoError(t, tx.Foreach(func(e int) { seen = append(seen, e) }))
	require.Equal(t, []int{1, 42, 99}, seen)

	// Uncommitted staging must not be visible on the main list.
	require.Equal(t, []int{1, 2}, collect(t, l))

	require.NoError(t, tx.Commit())
	require.Equal(t, []int{1, 42, 99}, collect(t, l))
	require.Equal(t, 3, l.Size())
}

func TestTxnRollbackLeavesListUntouched(t *testing.T) {
	l := NewList[string]()
	l.InsertTail("A")

	tx, err := l.TxnStart()
	require.NoError(t, err)

	require.NoError(t, tx.InsertTail("B"))
	require.NoError(t, tx.Remove("A"))

	require.NoError(t, tx.Rollback())

	require.Equal(t, []string{"A"}, collect(t, l))
	require.Equal(t, 1, l.Size())
}

func TestTxnInsertAfterSameAnchorPreservesStagingOrder(t *testing.T) {
	l := NewList[int]()
	l.InsertTail(0)

	tx, err := l.TxnStart()
	require.NoError(t, err)
	require.NoError(t, tx.InsertAfter(0, 100)) // "U"
	require.NoError(t, tx.InsertAfter(0, 200)) // "V"
	require.NoError(t, tx.Commit())

	require.Equal(t, []int{0, 100, 200}, collect(t, l))
}

func TestTxnEmptyCommitIsNoop(t *testing.T) {
	l := NewList[int]()
	l.InsertTail(1)
	l.InsertTail(2)

	before := collect(t, l)

	require.NoError(t, l.Update(func(*Txn[int]) error { return nil }))

	require.Equal(t, before, collect(t, l))
}

func TestTxnRemoveCancelsStagedInsert(t *testing.T) {
	l := NewList[int]()

	tx, err := l.TxnStart()
	require.NoError(t, err)

	require.NoError(t, tx.InsertTail(5))
	require.True(t, tx.Contains(5))

	require.NoError(t, tx.Remove(5))
	require.False(t, tx.Contains(5))

	require.NoError(t, tx.Commit())
	require.False(t, l.Contains(5))
}

func TestTxnMethodsAfterCommitReturnClosedError(t *testing.T) {
	l := NewList[int]()
	tx, err := l.TxnStart()
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.ErrorIs(t, tx.InsertHead(1), ErrTxnClosed)
	require.ErrorIs(t, tx.InsertTail(1), ErrTxnClosed)
	require.ErrorIs(t, tx.InsertAfter(1, 2), ErrTxnClosed)
	require.ErrorIs(t, tx.Remove(1), ErrTxnClosed)
	require.ErrorIs(t, tx.Foreach(func(int) {}), ErrTxnClosed)
	require.ErrorIs(t, tx.Commit(), ErrTxnClosed)
	require.ErrorIs(t, tx.Rollback(), ErrTxnClosed)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	l := NewList[int]()
	l.InsertTail(1)

	sentinel := ErrNotFound
	err := l.Update(func(tx *Txn[int]) error {
		require.NoError(t, tx.InsertTail(2))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, []int{1}, collect(t, l))
}
