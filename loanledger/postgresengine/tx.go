package postgresengine

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
	"github.com/AntonStoeckl/loan-ledger-go/loanledger/postgresengine/internal/adapters"
)

// tx runs statements on one database transaction. It is only valid inside WithinTx.
type tx struct {
	store Store
	db    adapters.DBTx
}

func (t *tx) FindPatron(ctx context.Context, patronID int64) (loanledger.Patron, error) {
	stmt, err := t.store.tables.selectPatron(patronID)
	if err != nil {
		return loanledger.Patron{}, t.store.buildFailed(ctx, err)
	}

	return queryOne(ctx, t.store, t.db, stmt, scanPatron, loanledger.ErrPatronNotFound)
}

func (t *tx) SavePatron(ctx context.Context, patron loanledger.Patron) error {
	stmt, err := t.store.tables.upsertPatron(patron)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.store.exec(ctx, t.db, stmt)

	return err
}

func (t *tx) SaveBook(ctx context.Context, book loanledger.Book) error {
	stmt, err := t.store.tables.upsertBook(book)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.store.exec(ctx, t.db, stmt)

	return err
}

func (t *tx) UpdateBook(ctx context.Context, bookID int64, patch loanledger.BookPatch) error {
	stmt, err := t.store.tables.updateBook(bookID, patch)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	return t.execExpectingRow(ctx, stmt, loanledger.ErrBookNotFound)
}

// LockBook reads the book with SELECT ... FOR UPDATE.
func (t *tx) LockBook(ctx context.Context, bookID int64) (loanledger.Book, error) {
	stmt, err := t.store.tables.selectBook(bookID, true)
	if err != nil {
		return loanledger.Book{}, t.store.buildFailed(ctx, err)
	}

	return queryOne(ctx, t.store, t.db, stmt, scanBook, loanledger.ErrBookNotFound)
}

func (t *tx) MarkBookBorrowed(ctx context.Context, bookID int64) error {
	stmt, err := t.store.tables.setBookAvailability(bookID, false)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	return t.execExpectingRow(ctx, stmt, loanledger.ErrConcurrencyConflict)
}

// MarkBookReturned ignores books that are already available or were removed from the catalogue.
func (t *tx) MarkBookReturned(ctx context.Context, bookID int64) error {
	stmt, err := t.store.tables.setBookAvailability(bookID, true)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.store.exec(ctx, t.db, stmt)

	return err
}

func (t *tx) FindOpenLoan(ctx context.Context, patronID int64, bookID int64) (loanledger.Loan, bool, error) {
	stmt, err := t.store.tables.selectOpenLoan(patronID, bookID)
	if err != nil {
		return loanledger.Loan{}, false, t.store.buildFailed(ctx, err)
	}

	loans, err := queryAll(ctx, t.store, t.db, stmt, scanLoan)
	if err != nil {
		return loanledger.Loan{}, false, err
	}

	if len(loans) == 0 {
		return loanledger.Loan{}, false, nil
	}

	return loans[0], true, nil
}

func (t *tx) HasOpenLoans(ctx context.Context, bookID int64) (bool, error) {
	stmt, err := t.store.tables.selectAnyOpenLoanOf(bookID)
	if err != nil {
		return false, t.store.buildFailed(ctx, err)
	}

	loans, err := queryAll(ctx, t.store, t.db, stmt, scanLoan)
	if err != nil {
		return false, err
	}

	return len(loans) > 0, nil
}

// InsertLoan fails with loanledger.ErrAlreadyBorrowed if the patron already has an open loan for the book,
// enforced by a partial unique index.
func (t *tx) InsertLoan(ctx context.Context, loan loanledger.Loan) error {
	stmt, err := t.store.tables.insertLoan(loan)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.store.exec(ctx, t.db, stmt)

	return err
}

// LockLoan reads the loan with SELECT ... FOR UPDATE.
func (t *tx) LockLoan(ctx context.Context, loanID uuid.UUID) (loanledger.Loan, error) {
	stmt, err := t.store.tables.selectLoan(loanID, true)
	if err != nil {
		return loanledger.Loan{}, t.store.buildFailed(ctx, err)
	}

	return queryOne(ctx, t.store, t.db, stmt, scanLoan, loanledger.ErrLoanNotFound)
}

func (t *tx) CloseLoan(ctx context.Context, loan loanledger.Loan) error {
	stmt, err := t.store.tables.closeLoan(loan)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	return t.execExpectingRow(ctx, stmt, loanledger.ErrConcurrencyConflict)
}

func (t *tx) UpdateLoan(ctx context.Context, loanID uuid.UUID, patch loanledger.LoanPatch) error {
	stmt, err := t.store.tables.updateLoan(loanID, patch)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	return t.execExpectingRow(ctx, stmt, loanledger.ErrLoanNotFound)
}

func (t *tx) InsertPayment(ctx context.Context, payment loanledger.Payment) error {
	stmt, err := t.store.tables.insertPayment(payment)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.store.exec(ctx, t.db, stmt)

	return err
}

// AppendJournal inserts the entry; the sequence number is assigned by the database.
func (t *tx) AppendJournal(ctx context.Context, entry loanledger.JournalEntry) error {
	stmt, err := t.store.tables.insertJournalEntry(entry)
	if err != nil {
		return t.store.buildFailed(ctx, err)
	}

	_, err = t.store.exec(ctx, t.db, stmt)

	return err
}

// execExpectingRow executes stmt and returns noRows if it affected nothing.
func (t *tx) execExpectingRow(ctx context.Context, stmt statement, noRows error) error {
	rowsAffected, err := t.store.exec(ctx, t.db, stmt)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return noRows
	}

	return nil
}
