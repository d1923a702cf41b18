package loanledger

import (
	"context"

	"github.com/google/uuid"
)

// TxFunc is the unit of work a Store runs inside one transaction.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the storage contract the Ledger depends on.
//
// WithinTx must run fn atomically: either every write fn makes through tx is committed, or none is.
// Implementations must make concurrent check-then-mutate sequences on the same book safe,
// either by locking (LockBook, LockLoan) or by failing the losing writer with ErrConcurrencyConflict.
type Store interface {
	WithinTx(ctx context.Context, fn TxFunc) error

	FindBook(ctx context.Context, bookID int64) (Book, error)
	FindLoan(ctx context.Context, loanID uuid.UUID) (Loan, error)
	LoansOf(ctx context.Context, patronID int64, selection LoanSelection) ([]Loan, error)
	OutstandingFine(ctx context.Context, patronID int64) (OutstandingFine, error)
	PatronsWithOutstandingFines(ctx context.Context) ([]PatronFine, error)
	PaymentsOf(ctx context.Context, patronID int64) ([]Payment, error)
	PaymentSummary(ctx context.Context) (PaymentSummary, error)
	Journal(ctx context.Context, filter JournalFilter) ([]JournalEntry, error)
}

// Tx is the transactional view of a Store handed to a TxFunc.
//
// Lookups return ErrPatronNotFound, ErrBookNotFound or ErrLoanNotFound when the row does not exist.
type Tx interface {
	FindPatron(ctx context.Context, patronID int64) (Patron, error)
	SavePatron(ctx context.Context, patron Patron) error

	SaveBook(ctx context.Context, book Book) error
	UpdateBook(ctx context.Context, bookID int64, patch BookPatch) error

	// LockBook reads a book and holds it against concurrent borrow/return until the transaction ends.
	LockBook(ctx context.Context, bookID int64) (Book, error)

	// MarkBookBorrowed flips available from true to false. It returns ErrConcurrencyConflict if the book was not available.
	MarkBookBorrowed(ctx context.Context, bookID int64) error

	// MarkBookReturned sets available to true.
	MarkBookReturned(ctx context.Context, bookID int64) error

	// FindOpenLoan returns the open loan of patronID for bookID, if there is one.
	FindOpenLoan(ctx context.Context, patronID int64, bookID int64) (Loan, bool, error)
	InsertLoan(ctx context.Context, loan Loan) error

	// HasOpenLoans reports whether any patron has an open loan for bookID.
	HasOpenLoans(ctx context.Context, bookID int64) (bool, error)

	// LockLoan reads a loan and holds it against a concurrent return until the transaction ends.
	LockLoan(ctx context.Context, loanID uuid.UUID) (Loan, error)

	// CloseLoan stores return date and final fine. It returns ErrConcurrencyConflict if the loan was already closed.
	CloseLoan(ctx context.Context, loan Loan) error
	UpdateLoan(ctx context.Context, loanID uuid.UUID, patch LoanPatch) error

	InsertPayment(ctx context.Context, payment Payment) error

	AppendJournal(ctx context.Context, entry JournalEntry) error
}
