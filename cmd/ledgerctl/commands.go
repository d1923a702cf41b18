package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

type command struct {
	summary string
	migrate bool
	online  func(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error
	offline func(ctx context.Context, args []string, out io.Writer) error
}

var commands = map[string]command{
	"migrate":     {summary: "create the ledger tables", migrate: true},
	"add-book":    {summary: "add or replace a catalogue item", online: addBook},
	"add-patron":  {summary: "register or replace a patron", online: addPatron},
	"borrow":      {summary: "lend a book to a patron", online: borrow},
	"return":      {summary: "return a loan and assess its fine", online: returnLoan},
	"estimate":    {summary: "show the fine a loan would have if returned today", online: estimate},
	"loans":       {summary: "list a patron's loans", online: loans},
	"outstanding": {summary: "show a patron's outstanding fine, or all patrons with fines", online: outstanding},
	"pay":         {summary: "record a payment", online: pay},
	"payments":    {summary: "list a patron's payments and the payment summary", online: payments},
	"history":     {summary: "list journal entries", online: history},
	"fine":        {summary: "compute a fine from two dates (no database)", offline: fine},
	"demo":        {summary: "run a borrow and return walkthrough in memory (no database)", offline: demo},
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// parseFlags reports flag errors as invalid input.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", loanledger.ErrInvalidInput, err)
	}

	return nil
}

func parseLoanID(s string) (uuid.UUID, error) {
	loanID, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: loan id: %w", loanledger.ErrInvalidInput, err)
	}

	return loanID, nil
}

func addBook(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("add-book")
	cmd := loanledger.AddBookCommand{}
	fs.Int64Var(&cmd.BookID, "id", 0, "book id")
	fs.StringVar(&cmd.Title, "title", "", "title")
	fs.StringVar(&cmd.Author, "author", "", "author")
	fs.StringVar(&cmd.ISBN, "isbn", "", "ISBN")
	fs.IntVar(&cmd.PublishedYear, "year", 0, "year of publication")
	fs.StringVar(&cmd.Genre, "genre", "", "genre")
	fs.StringVar(&cmd.Kind, "kind", string(loanledger.KindPhysical), "Physical, E-book, Audiobook or Reference")
	fs.StringVar(&cmd.CallNumber, "call-number", "", "call number")
	fs.StringVar(&cmd.ShelfLocation, "shelf", "", "shelf location")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	book, err := ledger.AddBook(ctx, cmd)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "book %d %q (%s) saved\n", book.BookID, book.Title, book.Kind)

	return err
}

func addPatron(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("add-patron")
	cmd := loanledger.RegisterPatronCommand{}
	fs.Int64Var(&cmd.PatronID, "id", 0, "patron id")
	fs.StringVar(&cmd.Name, "name", "", "name")
	fs.StringVar(&cmd.Role, "role", string(loanledger.RoleStudent), "Admin, Librarian, Student, Guest or Bank")
	fs.StringVar(&cmd.Email, "email", "", "email address")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	patron, err := ledger.RegisterPatron(ctx, cmd)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "patron %d %q (%s) saved\n", patron.PatronID, patron.Name, patron.Role)

	return err
}

func borrow(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("borrow")
	patronID := fs.Int64("patron", 0, "patron id")
	bookID := fs.Int64("book", 0, "book id")
	date := fs.String("date", "", "borrow date YYYY-MM-DD (default today)")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	loan, err := ledger.Borrow(ctx, loanledger.BuildBorrowCommand(*patronID, *bookID, *date))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "loan %s opened on %s\n", loan.LoanID, loanledger.FormatDate(loan.BorrowDate))

	return err
}

func returnLoan(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("return")
	loanIDFlag := fs.String("loan", "", "loan id")
	date := fs.String("date", "", "return date YYYY-MM-DD (default today)")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	loanID, err := parseLoanID(*loanIDFlag)
	if err != nil {
		return err
	}

	loan, err := ledger.ReturnLoan(ctx, loanledger.BuildReturnCommand(loanID, *date))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "loan %s returned on %s, fine %s\n",
		loan.LoanID, loanledger.FormatDate(*loan.ReturnDate), loanledger.FormatRM(loan.Fine))

	return err
}

func estimate(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("estimate")
	loanIDFlag := fs.String("loan", "", "loan id")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	loanID, err := parseLoanID(*loanIDFlag)
	if err != nil {
		return err
	}

	amount, err := ledger.EstimateFine(ctx, loanID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "calculated fine: %s\n", loanledger.FormatRM(amount))

	return err
}

func loans(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("loans")
	patronID := fs.Int64("patron", 0, "patron id")
	openOnly := fs.Bool("open", false, "only open loans")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	selection := loanledger.AllLoans
	if *openOnly {
		selection = loanledger.OpenLoansOnly
	}

	patronLoans, err := ledger.LoansOf(ctx, *patronID, selection)
	if err != nil {
		return err
	}

	for _, loan := range patronLoans {
		returned := "-"
		if loan.ReturnDate != nil {
			returned = loanledger.FormatDate(*loan.ReturnDate)
		}

		_, err = fmt.Fprintf(out, "%s  book %-8d %-10s borrowed %s  returned %-10s  %-6s %s\n",
			loan.LoanID, loan.BookID, loan.ItemKind, loanledger.FormatDate(loan.BorrowDate), returned,
			loan.State(), loanledger.FormatRM(loan.Fine))
		if err != nil {
			return err
		}
	}

	return nil
}

func outstanding(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("outstanding")
	patronID := fs.Int64("patron", 0, "patron id (omit for all patrons with fines)")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *patronID != 0 {
		result, err := ledger.OutstandingFine(ctx, *patronID)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(out, "patron %d owes %s on %d open loan(s)\n",
			result.PatronID, loanledger.FormatRM(result.TotalFine), result.OpenLoanCount)

		return err
	}

	report, err := ledger.PatronsWithOutstandingFines(ctx)
	if err != nil {
		return err
	}

	for _, row := range report {
		_, err = fmt.Fprintf(out, "%-8d %-30s %-10s %10s  %d open loan(s)\n",
			row.PatronID, row.Name, row.Role, loanledger.FormatRM(row.TotalFine), row.OpenLoanCount)
		if err != nil {
			return err
		}
	}

	return nil
}

func pay(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("pay")
	patronID := fs.Int64("patron", 0, "patron id")
	amount := fs.String("amount", "", "amount, e.g. 7.50")
	date := fs.String("date", "", "payment date YYYY-MM-DD (default today)")
	purpose := fs.String("purpose", "", "what the payment is for")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	payment, err := ledger.RecordPayment(ctx, loanledger.BuildRecordPaymentCommand(*patronID, *amount, *date, *purpose))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "payment %s of %s recorded\n", payment.PaymentID, loanledger.FormatRM(payment.Amount))

	return err
}

func payments(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("payments")
	patronID := fs.Int64("patron", 0, "patron id (omit for the summary only)")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *patronID != 0 {
		patronPayments, err := ledger.PaymentsOf(ctx, *patronID)
		if err != nil {
			return err
		}

		for _, payment := range patronPayments {
			_, err = fmt.Fprintf(out, "%s  %s  %10s  %s\n",
				payment.PaymentID, loanledger.FormatDate(payment.PaymentDate), loanledger.FormatRM(payment.Amount), payment.Purpose)
			if err != nil {
				return err
			}
		}
	}

	summary, err := ledger.PaymentSummary(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "payments: %d  total: %s  average: %s\n",
		summary.Count, loanledger.FormatRM(summary.Total), loanledger.FormatRM(summary.Average))

	return err
}

func history(ctx context.Context, ledger loanledger.Ledger, args []string, out io.Writer) error {
	fs := newFlagSet("history")
	patronID := fs.Int64("patron", 0, "patron id (0 = all)")
	bookID := fs.Int64("book", 0, "book id (0 = all)")
	types := fs.String("types", "", "comma separated entry types, e.g. LoanOpened,LoanClosed")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	filter := loanledger.BuildJournalFilter(*patronID).
		ForBook(*bookID).
		OfTypes(strings.Split(*types, ",")...)

	entries, err := ledger.History(ctx, filter)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		_, err = fmt.Fprintf(out, "%6d  %s  %-16s %s\n",
			entry.SequenceNumber, entry.OccurredAt.Format("2006-01-02 15:04:05"), entry.EntryType, entry.PayloadJSON)
		if err != nil {
			return err
		}
	}

	return nil
}

func fine(_ context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("fine")
	borrowDate := fs.String("borrow-date", "", "borrow date YYYY-MM-DD")
	referenceDate := fs.String("return-date", "", "return date YYYY-MM-DD")
	graceDays := fs.Int("grace-days", loanledger.DefaultFinePolicy().GracePeriodDays, "days without fine")
	dailyRate := fs.String("daily-rate", loanledger.DefaultFinePolicy().DailyRate.StringFixed(2), "fine per overdue day")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	rate, err := decimal.NewFromString(*dailyRate)
	if err != nil {
		return fmt.Errorf("%w: daily rate: %w", loanledger.ErrInvalidInput, err)
	}

	policy, err := loanledger.BuildFinePolicy(*graceDays, rate)
	if err != nil {
		return err
	}

	amount, err := policy.FineFromStrings(*borrowDate, *referenceDate, time.Now())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "calculated fine: %s\n", loanledger.FormatRM(amount))

	return err
}
