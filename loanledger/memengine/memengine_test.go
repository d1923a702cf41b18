package memengine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
	"github.com/AntonStoeckl/loan-ledger-go/loanledger/memengine"
	. "github.com/AntonStoeckl/loan-ledger-go/testutil/helper" //nolint:revive
)

func givenBook(t *testing.T, ctx context.Context, store *memengine.Store, kind loanledger.BookKind) loanledger.Book {
	book := loanledger.Book{BookID: GivenUniqueID(t), Title: "Refactoring", Kind: kind, Available: true}
	err := store.WithinTx(ctx, func(ctx context.Context, tx loanledger.Tx) error {
		return tx.SaveBook(ctx, book)
	})
	require.NoError(t, err, "error in arranging test data")

	return book
}

func Test_Store_WithinTx_RollsBackOnError(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memengine.NewStore()

	// arrange
	book := givenBook(t, ctx, store, loanledger.KindPhysical)
	boom := errors.New("boom")

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx loanledger.Tx) error {
		if err := tx.MarkBookBorrowed(ctx, book.BookID); err != nil {
			return err
		}

		if err := tx.InsertLoan(ctx, loanledger.OpenLoan(GivenUniqueLoanID(t), 1, book, Date(t, "2024-01-01"))); err != nil {
			return err
		}

		return boom
	})

	// assert
	assert.ErrorIs(t, err, boom)

	stored, err := store.FindBook(ctx, book.BookID)
	require.NoError(t, err)
	assert.True(t, stored.Available, "the availability change must be rolled back")

	loans, err := store.LoansOf(ctx, 1, loanledger.AllLoans)
	require.NoError(t, err)
	assert.Empty(t, loans, "the inserted loan must be rolled back")
}

func Test_Store_WithinTx_CanceledContext(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := memengine.NewStore()
	called := false

	// act
	err := store.WithinTx(ctx, func(context.Context, loanledger.Tx) error {
		called = true
		return nil
	})

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func Test_Tx_MarkBookBorrowed_IsCompareAndSwap(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memengine.NewStore()

	// arrange
	book := givenBook(t, ctx, store, loanledger.KindPhysical)

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx loanledger.Tx) error {
		if err := tx.MarkBookBorrowed(ctx, book.BookID); err != nil {
			return err
		}

		return tx.MarkBookBorrowed(ctx, book.BookID)
	})

	// assert
	assert.ErrorIs(t, err, loanledger.ErrConcurrencyConflict)
}

func Test_Tx_CloseLoan_IsCompareAndSwap(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memengine.NewStore()

	// arrange
	book := givenBook(t, ctx, store, loanledger.KindEBook)
	loan := loanledger.OpenLoan(GivenUniqueLoanID(t), 1, book, Date(t, "2024-01-01"))
	closed := loan.Close(Date(t, "2024-01-21"), decimal.NewFromInt(6))

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx loanledger.Tx) error {
		if err := tx.InsertLoan(ctx, loan); err != nil {
			return err
		}

		if err := tx.CloseLoan(ctx, closed); err != nil {
			return err
		}

		return tx.CloseLoan(ctx, closed)
	})

	// assert
	assert.ErrorIs(t, err, loanledger.ErrConcurrencyConflict)
}

func Test_Tx_MarkBookReturned_IgnoresMissingBook(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memengine.NewStore()

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx loanledger.Tx) error {
		return tx.MarkBookReturned(ctx, GivenUniqueID(t))
	})

	// assert
	assert.NoError(t, err)
}

func Test_Tx_Lookups_ReportNotFound(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memengine.NewStore()

	// act + assert
	err := store.WithinTx(ctx, func(ctx context.Context, tx loanledger.Tx) error {
		_, err := tx.FindPatron(ctx, 1)
		assert.ErrorIs(t, err, loanledger.ErrPatronNotFound)

		_, err = tx.LockBook(ctx, 1)
		assert.ErrorIs(t, err, loanledger.ErrBookNotFound)

		_, err = tx.LockLoan(ctx, GivenUniqueLoanID(t))
		assert.ErrorIs(t, err, loanledger.ErrLoanNotFound)

		_, found, err := tx.FindOpenLoan(ctx, 1, 1)
		assert.NoError(t, err)
		assert.False(t, found)

		return nil
	})

	require.NoError(t, err)

	_, err = store.FindLoan(ctx, GivenUniqueLoanID(t))
	assert.ErrorIs(t, err, loanledger.ErrLoanNotFound)

	_, err = store.FindBook(ctx, 1)
	assert.ErrorIs(t, err, loanledger.ErrBookNotFound)
}

func Test_Tx_AppendJournal_AssignsSequenceNumbers(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memengine.NewStore()

	// act
	err := store.WithinTx(ctx, func(ctx context.Context, tx loanledger.Tx) error {
		for _, entryType := range []string{loanledger.LoanOpenedEntryType, loanledger.LoanClosedEntryType} {
			entry, err := loanledger.BuildJournalEntry(entryType, Date(t, "2024-01-01"), 1, 2, struct{}{})
			if err != nil {
				return err
			}

			if err = tx.AppendJournal(ctx, entry); err != nil {
				return err
			}
		}

		return nil
	})

	// assert
	require.NoError(t, err)

	entries, err := store.Journal(ctx, loanledger.BuildJournalFilter(1))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint(1), entries[0].SequenceNumber)
	assert.Equal(t, uint(2), entries[1].SequenceNumber)
}
