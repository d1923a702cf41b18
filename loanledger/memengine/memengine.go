// Package memengine provides an in-memory implementation of loanledger.Store.
//
// Transactions are serialized by a single mutex and work on a copy of the state,
// which replaces the committed state only if the transaction function succeeds.
// It backs the tests and ledgerctl's demo command; nothing is persisted.
package memengine

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

// Store is an in-memory loanledger.Store. The zero value is not usable, use NewStore.
type Store struct {
	mu    sync.Mutex
	state state
}

type state struct {
	patrons  map[int64]loanledger.Patron
	books    map[int64]loanledger.Book
	loans    map[uuid.UUID]loanledger.Loan
	payments []loanledger.Payment
	journal  []loanledger.JournalEntry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		state: state{
			patrons: make(map[int64]loanledger.Patron),
			books:   make(map[int64]loanledger.Book),
			loans:   make(map[uuid.UUID]loanledger.Loan),
		},
	}
}

func (s state) clone() state {
	return state{
		patrons:  maps.Clone(s.patrons),
		books:    maps.Clone(s.books),
		loans:    maps.Clone(s.loans),
		payments: slices.Clone(s.payments),
		journal:  slices.Clone(s.journal),
	}
}

// WithinTx runs fn against a private copy of the state and commits it if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn loanledger.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &tx{state: s.state.clone()}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = tx.state

	return nil
}

// FindBook returns a book by id.
func (s *Store) FindBook(ctx context.Context, bookID int64) (loanledger.Book, error) {
	if err := ctx.Err(); err != nil {
		return loanledger.Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.state.books[bookID]
	if !ok {
		return loanledger.Book{}, loanledger.ErrBookNotFound
	}

	return book, nil
}

// FindLoan returns a loan by id.
func (s *Store) FindLoan(ctx context.Context, loanID uuid.UUID) (loanledger.Loan, error) {
	if err := ctx.Err(); err != nil {
		return loanledger.Loan{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.state.loans[loanID]
	if !ok {
		return loanledger.Loan{}, loanledger.ErrLoanNotFound
	}

	return loan, nil
}

// LoansOf returns a patron's loans, newest borrow date first.
func (s *Store) LoansOf(
	ctx context.Context,
	patronID int64,
	selection loanledger.LoanSelection,
) ([]loanledger.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loans := make([]loanledger.Loan, 0)

	for _, loan := range s.state.loans {
		if loan.PatronID != patronID {
			continue
		}

		if selection == loanledger.OpenLoansOnly && !loan.IsOpen() {
			continue
		}

		loans = append(loans, loan)
	}

	slices.SortFunc(loans, func(a, b loanledger.Loan) int {
		if c := b.BorrowDate.Compare(a.BorrowDate); c != 0 {
			return c
		}

		return cmp.Compare(b.LoanID.String(), a.LoanID.String())
	})

	return loans, nil
}

// OutstandingFine sums the fines of a patron's open loans with a fine greater than zero.
func (s *Store) OutstandingFine(ctx context.Context, patronID int64) (loanledger.OutstandingFine, error) {
	if err := ctx.Err(); err != nil {
		return loanledger.OutstandingFine{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outstanding := loanledger.OutstandingFine{PatronID: patronID, TotalFine: decimal.Zero}

	for _, loan := range s.state.loans {
		if loan.PatronID != patronID || !carriesOutstandingFine(loan) {
			continue
		}

		outstanding.TotalFine = outstanding.TotalFine.Add(loan.Fine)
		outstanding.OpenLoanCount++
	}

	outstanding.TotalFine = loanledger.RoundMoney(outstanding.TotalFine)

	return outstanding, nil
}

// PatronsWithOutstandingFines returns one row per patron with an outstanding fine, largest total first.
func (s *Store) PatronsWithOutstandingFines(ctx context.Context) ([]loanledger.PatronFine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byPatron := make(map[int64]loanledger.PatronFine)

	for _, loan := range s.state.loans {
		if !carriesOutstandingFine(loan) {
			continue
		}

		row, ok := byPatron[loan.PatronID]
		if !ok {
			patron := s.state.patrons[loan.PatronID]
			row = loanledger.PatronFine{
				PatronID:  loan.PatronID,
				Name:      patron.Name,
				Role:      patron.Role,
				TotalFine: decimal.Zero,
			}
		}

		row.TotalFine = row.TotalFine.Add(loan.Fine)
		row.OpenLoanCount++
		byPatron[loan.PatronID] = row
	}

	report := slices.Collect(maps.Values(byPatron))

	slices.SortFunc(report, func(a, b loanledger.PatronFine) int {
		if c := b.TotalFine.Cmp(a.TotalFine); c != 0 {
			return c
		}

		return cmp.Compare(a.PatronID, b.PatronID)
	})

	for i := range report {
		report[i].TotalFine = loanledger.RoundMoney(report[i].TotalFine)
	}

	return report, nil
}

// PaymentsOf returns a patron's payments, newest first.
func (s *Store) PaymentsOf(ctx context.Context, patronID int64) ([]loanledger.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payments := make([]loanledger.Payment, 0)

	for _, payment := range s.state.payments {
		if payment.PatronID == patronID {
			payments = append(payments, payment)
		}
	}

	slices.Reverse(payments)
	slices.SortStableFunc(payments, func(a, b loanledger.Payment) int {
		return b.PaymentDate.Compare(a.PaymentDate)
	})

	return payments, nil
}

// PaymentSummary aggregates all payments.
func (s *Store) PaymentSummary(ctx context.Context) (loanledger.PaymentSummary, error) {
	if err := ctx.Err(); err != nil {
		return loanledger.PaymentSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, payment := range s.state.payments {
		total = total.Add(payment.Amount)
	}

	return loanledger.BuildPaymentSummary(len(s.state.payments), total), nil
}

// Journal returns the entries matching filter in append order.
func (s *Store) Journal(ctx context.Context, filter loanledger.JournalFilter) ([]loanledger.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]loanledger.JournalEntry, 0)

	for _, entry := range s.state.journal {
		if filter.Matches(entry) {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func carriesOutstandingFine(loan loanledger.Loan) bool {
	return loan.IsOpen() && loan.Fine.IsPositive()
}
