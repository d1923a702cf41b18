// Package loanledger provides the borrowing, returning and fine rules of a library
// lending system, independent of any storage technology or front-end.
//
// The Ledger keeps three things mutually consistent:
//   - the open/closed state of a Loan
//   - the availability flag of a Physical Book
//   - the fine owed on a Loan
//
// Key types:
//   - Ledger: the service front-ends call into
//   - Store / Tx: the transactional storage contract engines implement
//   - FinePolicy: the grace period and daily rate used to compute overdue fines
//   - Loan, Book, Patron, Payment, JournalEntry: typed records
//
// Common usage pattern:
//
//	store := memengine.NewStore()
//	ledger, err := loanledger.NewLedger(store, loanledger.WithLogger(slog.Default()))
//	if err != nil {
//		// handle error
//	}
//
//	loan, err := ledger.Borrow(ctx, loanledger.BuildBorrowCommand(patronID, bookID, "2024-01-01"))
//	if errors.Is(err, loanledger.ErrConflict) {
//		// book unavailable or already borrowed by this patron
//	}
//
//	closed, err := ledger.ReturnLoan(ctx, loanledger.BuildReturnCommand(loan.LoanID, "2024-01-20"))
//	fmt.Println(loanledger.FormatRM(closed.Fine)) // RM 6.00
package loanledger
