package helper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

var uniqueIDCounter atomic.Int64

func init() {
	uniqueIDCounter.Store(time.Now().UnixMicro())
}

// GivenUniqueID returns an id no other call in this test binary returns.
// Seeded from the clock, so ids do not collide with rows left in a shared database.
func GivenUniqueID(t testing.TB) int64 {
	t.Helper()

	return uniqueIDCounter.Add(1)
}

func GivenUniqueLoanID(t testing.TB) uuid.UUID {
	loanID, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return loanID
}

// FixedClock returns a clock that always reports the given YYYY-MM-DD date at noon UTC.
func FixedClock(t testing.TB, date string) func() time.Time {
	today, err := ParseDate(date)
	require.NoError(t, err, "error in arranging test data")

	return func() time.Time { return today.Add(12 * time.Hour) }
}

func Date(t testing.TB, date string) CalendarDate {
	d, err := ParseDate(date)
	require.NoError(t, err, "error in arranging test data")

	return d
}

func RM(t testing.TB, amount string) decimal.Decimal {
	d, err := decimal.NewFromString(amount)
	require.NoError(t, err, "error in arranging test data")

	return d
}

func FixturePatron(patronID int64) RegisterPatronCommand {
	return RegisterPatronCommand{
		PatronID: patronID,
		Name:     "Nur Aisyah",
		Role:     string(RoleStudent),
		Email:    "nur.aisyah@example.edu.my",
	}
}

func FixtureBook(bookID int64, kind BookKind) AddBookCommand {
	return AddBookCommand{
		BookID:        bookID,
		Title:         "Learning Domain-Driven Design",
		Author:        "Vlad Khononov",
		ISBN:          "978-1-098-10013-1",
		PublishedYear: 2021,
		Genre:         "Software",
		Kind:          string(kind),
		CallNumber:    "QA76.76.D47 K46 2021",
		ShelfLocation: "Level 2, Row C",
	}
}

func GivenPatronWasRegistered(t testing.TB, ctx context.Context, ledger Ledger, patronID int64) Patron {
	patron, err := ledger.RegisterPatron(ctx, FixturePatron(patronID))
	require.NoError(t, err, "error in arranging test data")

	return patron
}

func GivenBookWasAdded(t testing.TB, ctx context.Context, ledger Ledger, bookID int64, kind BookKind) Book {
	book, err := ledger.AddBook(ctx, FixtureBook(bookID, kind))
	require.NoError(t, err, "error in arranging test data")

	return book
}

func GivenBookWasBorrowed(t testing.TB, ctx context.Context, ledger Ledger, patronID int64, bookID int64, borrowDate string) Loan {
	loan, err := ledger.Borrow(ctx, BuildBorrowCommand(patronID, bookID, borrowDate))
	require.NoError(t, err, "error in arranging test data")

	return loan
}

func GivenLoanWasReturned(t testing.TB, ctx context.Context, ledger Ledger, loanID uuid.UUID, returnDate string) Loan {
	loan, err := ledger.ReturnLoan(ctx, BuildReturnCommand(loanID, returnDate))
	require.NoError(t, err, "error in arranging test data")

	return loan
}

// GivenLoanFineWasSet stores a provisional fine on an open loan, like an administrator would.
func GivenLoanFineWasSet(t testing.TB, ctx context.Context, ledger Ledger, loanID uuid.UUID, fine string) Loan {
	amount := RM(t, fine)
	loan, err := ledger.AdjustLoan(ctx, loanID, LoanPatch{Fine: &amount})
	require.NoError(t, err, "error in arranging test data")

	return loan
}
