package memengine

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

// tx operates on a private copy of the Store's state. It is only valid inside WithinTx.
type tx struct {
	state state
}

func (t *tx) FindPatron(_ context.Context, patronID int64) (loanledger.Patron, error) {
	patron, ok := t.state.patrons[patronID]
	if !ok {
		return loanledger.Patron{}, loanledger.ErrPatronNotFound
	}

	return patron, nil
}

func (t *tx) SavePatron(_ context.Context, patron loanledger.Patron) error {
	t.state.patrons[patron.PatronID] = patron

	return nil
}

// SaveBook keeps the availability of a book that is already in the catalogue.
func (t *tx) SaveBook(_ context.Context, book loanledger.Book) error {
	if existing, ok := t.state.books[book.BookID]; ok {
		book.Available = existing.Available
	}

	t.state.books[book.BookID] = book

	return nil
}

func (t *tx) UpdateBook(_ context.Context, bookID int64, patch loanledger.BookPatch) error {
	book, ok := t.state.books[bookID]
	if !ok {
		return loanledger.ErrBookNotFound
	}

	t.state.books[bookID] = patch.ApplyTo(book)

	return nil
}

// LockBook needs no row lock: the whole transaction holds the Store's mutex.
func (t *tx) LockBook(_ context.Context, bookID int64) (loanledger.Book, error) {
	book, ok := t.state.books[bookID]
	if !ok {
		return loanledger.Book{}, loanledger.ErrBookNotFound
	}

	return book, nil
}

func (t *tx) MarkBookBorrowed(_ context.Context, bookID int64) error {
	book, ok := t.state.books[bookID]
	if !ok || !book.Available {
		return loanledger.ErrConcurrencyConflict
	}

	book.Available = false
	t.state.books[bookID] = book

	return nil
}

// MarkBookReturned ignores books that were removed from the catalogue.
func (t *tx) MarkBookReturned(_ context.Context, bookID int64) error {
	book, ok := t.state.books[bookID]
	if !ok {
		return nil
	}

	book.Available = true
	t.state.books[bookID] = book

	return nil
}

func (t *tx) FindOpenLoan(_ context.Context, patronID int64, bookID int64) (loanledger.Loan, bool, error) {
	for _, loan := range t.state.loans {
		if loan.PatronID == patronID && loan.BookID == bookID && loan.IsOpen() {
			return loan, true, nil
		}
	}

	return loanledger.Loan{}, false, nil
}

func (t *tx) HasOpenLoans(_ context.Context, bookID int64) (bool, error) {
	for _, loan := range t.state.loans {
		if loan.BookID == bookID && loan.IsOpen() {
			return true, nil
		}
	}

	return false, nil
}

func (t *tx) InsertLoan(_ context.Context, loan loanledger.Loan) error {
	if _, exists := t.state.loans[loan.LoanID]; exists {
		return loanledger.ErrConcurrencyConflict
	}

	t.state.loans[loan.LoanID] = loan

	return nil
}

func (t *tx) LockLoan(_ context.Context, loanID uuid.UUID) (loanledger.Loan, error) {
	loan, ok := t.state.loans[loanID]
	if !ok {
		return loanledger.Loan{}, loanledger.ErrLoanNotFound
	}

	return loan, nil
}

func (t *tx) CloseLoan(_ context.Context, loan loanledger.Loan) error {
	stored, ok := t.state.loans[loan.LoanID]
	if !ok || !stored.IsOpen() {
		return loanledger.ErrConcurrencyConflict
	}

	t.state.loans[loan.LoanID] = loan

	return nil
}

func (t *tx) UpdateLoan(_ context.Context, loanID uuid.UUID, patch loanledger.LoanPatch) error {
	loan, ok := t.state.loans[loanID]
	if !ok {
		return loanledger.ErrLoanNotFound
	}

	t.state.loans[loanID] = patch.ApplyTo(loan)

	return nil
}

func (t *tx) InsertPayment(_ context.Context, payment loanledger.Payment) error {
	t.state.payments = append(t.state.payments, payment)

	return nil
}

// AppendJournal assigns the next sequence number, starting at 1.
func (t *tx) AppendJournal(_ context.Context, entry loanledger.JournalEntry) error {
	entry.SequenceNumber = uint(len(t.state.journal)) + 1
	t.state.journal = append(t.state.journal, entry)

	return nil
}
