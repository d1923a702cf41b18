package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
	"github.com/AntonStoeckl/loan-ledger-go/loanledger/memengine"
)

const (
	demoPatronID   = int64(1001)
	demoOtherID    = int64(1002)
	demoPhysicalID = int64(501)
	demoEBookID    = int64(502)
)

// demo walks through borrowing and returning on an in-memory store and prints each step.
func demo(ctx context.Context, _ []string, out io.Writer) error {
	ledger, err := loanledger.NewLedger(memengine.NewStore())
	if err != nil {
		return err
	}

	p := func(format string, args ...any) {
		_, _ = fmt.Fprintf(out, format+"\n", args...)
	}

	for _, patron := range []loanledger.RegisterPatronCommand{
		{PatronID: demoPatronID, Name: "Nur Aisyah", Role: string(loanledger.RoleStudent), Email: "nur.aisyah@example.edu.my"},
		{PatronID: demoOtherID, Name: "Lim Wei Jie", Role: string(loanledger.RoleStudent), Email: "wei.jie@example.edu.my"},
	} {
		if _, err = ledger.RegisterPatron(ctx, patron); err != nil {
			return err
		}
	}

	for _, book := range []loanledger.AddBookCommand{
		{BookID: demoPhysicalID, Title: "Clean Architecture", Author: "Robert C. Martin", ISBN: "978-0-13-449416-6", PublishedYear: 2017, Genre: "Software", Kind: string(loanledger.KindPhysical)},
		{BookID: demoEBookID, Title: "The Go Programming Language", Author: "Donovan, Kernighan", ISBN: "978-0-13-419044-0", PublishedYear: 2015, Genre: "Software", Kind: string(loanledger.KindEBook)},
	} {
		if _, err = ledger.AddBook(ctx, book); err != nil {
			return err
		}
	}

	physical, err := ledger.Borrow(ctx, loanledger.BuildBorrowCommand(demoPatronID, demoPhysicalID, "2024-01-01"))
	if err != nil {
		return err
	}
	p("patron %d borrowed physical book %d on 2024-01-01 (loan %s)", demoPatronID, demoPhysicalID, physical.LoanID)

	_, err = ledger.Borrow(ctx, loanledger.BuildBorrowCommand(demoOtherID, demoPhysicalID, "2024-01-02"))
	p("patron %d tries the same physical book: %v", demoOtherID, err)
	if !errors.Is(err, loanledger.ErrBookUnavailable) {
		return fmt.Errorf("unexpected result: %w", err)
	}

	for _, patronID := range []int64{demoPatronID, demoOtherID} {
		if _, err = ledger.Borrow(ctx, loanledger.BuildBorrowCommand(patronID, demoEBookID, "2024-01-01")); err != nil {
			return err
		}
		p("patron %d borrowed e-book %d, it stays available", patronID, demoEBookID)
	}

	returned, err := ledger.ReturnLoan(ctx, loanledger.BuildReturnCommand(physical.LoanID, "2024-01-21"))
	if err != nil {
		return err
	}
	p("loan %s returned on 2024-01-21: 20 days, fine %s", returned.LoanID, loanledger.FormatRM(returned.Fine))

	_, err = ledger.ReturnLoan(ctx, loanledger.BuildReturnCommand(physical.LoanID, "2024-01-22"))
	p("returning it again: %v", err)

	outstanding, err := ledger.OutstandingFine(ctx, demoPatronID)
	if err != nil {
		return err
	}
	p("patron %d outstanding fine on open loans: %s", demoPatronID, loanledger.FormatRM(outstanding.TotalFine))

	entries, err := ledger.History(ctx, loanledger.BuildJournalFilter(demoPatronID))
	if err != nil {
		return err
	}

	p("journal of patron %d:", demoPatronID)
	for _, entry := range entries {
		p("  %d %s %s", entry.SequenceNumber, entry.EntryType, entry.PayloadJSON)
	}

	return nil
}
