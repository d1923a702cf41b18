package loanledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanState is the lifecycle state of a Loan: open -> closed, never back.
type LoanState string

const (
	LoanOpen   LoanState = "open"
	LoanClosed LoanState = "closed"
)

// Loan is one borrowing of one book by one patron.
// ReturnDate is nil while the loan is open; its presence defines the closed state.
type Loan struct {
	LoanID     uuid.UUID
	PatronID   int64
	BookID     int64
	BorrowDate CalendarDate
	ReturnDate *CalendarDate
	Fine       decimal.Decimal
	ItemKind   BookKind
}

// OpenLoan creates a new loan in the open state with a zero fine.
// ItemKind is a snapshot of the book's kind, so later catalogue edits do not change how the loan is returned.
func OpenLoan(loanID uuid.UUID, patronID int64, book Book, borrowDate CalendarDate) Loan {
	return Loan{
		LoanID:     loanID,
		PatronID:   patronID,
		BookID:     book.BookID,
		BorrowDate: ToCalendarDate(borrowDate),
		Fine:       decimal.Zero,
		ItemKind:   book.Kind,
	}
}

// IsOpen reports whether the loan has not been returned yet.
func (l Loan) IsOpen() bool {
	return l.ReturnDate == nil
}

// State returns LoanOpen or LoanClosed.
func (l Loan) State() LoanState {
	if l.IsOpen() {
		return LoanOpen
	}

	return LoanClosed
}

// Close returns a copy of the loan in the closed state with its final fine.
// The fine overwrites whatever provisional value was stored before.
func (l Loan) Close(returnDate CalendarDate, fine decimal.Decimal) Loan {
	rd := ToCalendarDate(returnDate)
	l.ReturnDate = &rd
	l.Fine = RoundMoney(fine)

	return l
}

// LoanPatch lists the fields an administrative override may change. Nil fields stay untouched.
// There is deliberately no way to clear a return date: closed loans stay closed.
type LoanPatch struct {
	Fine       *decimal.Decimal
	BorrowDate *CalendarDate
}

// IsEmpty reports whether the patch changes nothing.
func (p LoanPatch) IsEmpty() bool {
	return p.Fine == nil && p.BorrowDate == nil
}

// ApplyTo returns a copy of l with the patch applied.
func (p LoanPatch) ApplyTo(l Loan) Loan {
	if p.Fine != nil {
		l.Fine = RoundMoney(*p.Fine)
	}

	if p.BorrowDate != nil {
		l.BorrowDate = ToCalendarDate(*p.BorrowDate)
	}

	return l
}

// OutstandingFine aggregates the fines a patron has on open loans that carry a fine.
type OutstandingFine struct {
	PatronID      int64
	TotalFine     decimal.Decimal
	OpenLoanCount int
}

// PatronFine is one row of the outstanding fines report.
type PatronFine struct {
	PatronID      int64
	Name          string
	Role          PatronRole
	TotalFine     decimal.Decimal
	OpenLoanCount int
}

// LoanSelection chooses which of a patron's loans LoansOf returns.
type LoanSelection int

const (
	AllLoans LoanSelection = iota
	OpenLoansOnly
)
