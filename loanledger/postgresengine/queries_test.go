package postgresengine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

func Test_TableNames_WithPrefix(t *testing.T) {
	// act
	tables := tablesWithPrefix("test_")

	// assert
	assert.Equal(t, "test_loans", tables.loans)
	assert.Equal(t, "test_loan_journal", tables.journal)
	assert.Equal(t, "test_loans_one_open_per_patron_book", tables.openLoanIndex())
	assert.Equal(t, "test_loans_patron_fk", tables.loanPatronFK())
	assert.Equal(t, "test_loans_book_fk", tables.loanBookFK())
	assert.Equal(t, "test_payments_patron_fk", tables.paymentPatronFK())
}

func Test_TableNames_SchemaStatements_UseConstraintNames(t *testing.T) {
	// act
	statements := tablesWithPrefix("test_").schemaStatements()

	// assert
	joined := ""
	for _, statement := range statements {
		joined += statement + "\n"
	}

	assert.Contains(t, joined, "CREATE UNIQUE INDEX IF NOT EXISTS test_loans_one_open_per_patron_book ON test_loans (patron_id, book_id) WHERE return_date IS NULL")
	assert.Contains(t, joined, "CONSTRAINT test_loans_patron_fk REFERENCES test_patrons (patron_id)")
	assert.Contains(t, joined, "CONSTRAINT test_loans_book_fk REFERENCES test_books (book_id)")
	assert.Contains(t, joined, "CONSTRAINT test_payments_patron_fk REFERENCES test_patrons (patron_id)")
	assert.Contains(t, joined, "fine NUMERIC(10, 2) NOT NULL DEFAULT 0 CHECK (fine >= 0)")
	assert.Contains(t, joined, "amount NUMERIC(10, 2) NOT NULL CHECK (amount > 0)")
}

func Test_TableNames_SelectBook_LocksOnlyWhenAsked(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")

	// act
	plain, err := tables.selectBook(42, false)
	require.NoError(t, err)

	locked, err := tables.selectBook(42, true)
	require.NoError(t, err)

	// assert
	assert.Contains(t, plain.sql, `FROM "books"`)
	assert.Contains(t, plain.sql, `"book_id" = $1`)
	assert.NotContains(t, plain.sql, "FOR UPDATE")
	assert.Equal(t, []any{int64(42)}, plain.args)
	assert.Equal(t, actionFindBook, plain.action)

	assert.Contains(t, locked.sql, "FOR UPDATE")
	assert.Equal(t, actionLockBook, locked.action)
}

func Test_TableNames_SetBookAvailability_IsConditional(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")

	// act
	borrowed, err := tables.setBookAvailability(7, false)
	require.NoError(t, err)

	// assert
	assert.Contains(t, borrowed.sql, `UPDATE "books" SET "available"=$1`)
	assert.Contains(t, borrowed.sql, `"book_id" = $2`)
	assert.Contains(t, borrowed.sql, `"available" IS TRUE`)
	assert.Equal(t, actionMarkBookBorrowed, borrowed.action)
}

func Test_TableNames_CloseLoan_OnlyMatchesOpenLoans(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")
	borrowDate, err := loanledger.ParseDate("2024-01-01")
	require.NoError(t, err)
	returnDate, err := loanledger.ParseDate("2024-01-21")
	require.NoError(t, err)

	loan := loanledger.OpenLoan(uuid.New(), 1, loanledger.Book{BookID: 2, Kind: loanledger.KindPhysical}, borrowDate).
		Close(returnDate, decimal.NewFromInt(6))

	// act
	stmt, err := tables.closeLoan(loan)

	// assert
	require.NoError(t, err)
	assert.Contains(t, stmt.sql, `UPDATE "loans" SET`)
	assert.Contains(t, stmt.sql, `"return_date" IS NULL`)
	assert.Contains(t, stmt.args, returnDate)
	assert.Contains(t, stmt.args, loan.LoanID)
}

func Test_TableNames_InsertLoan_OpenLoanHasNullReturnDate(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")
	borrowDate, err := loanledger.ParseDate("2024-01-01")
	require.NoError(t, err)

	loan := loanledger.OpenLoan(uuid.New(), 1, loanledger.Book{BookID: 2, Kind: loanledger.KindEBook}, borrowDate)

	// act
	stmt, err := tables.insertLoan(loan)

	// assert
	require.NoError(t, err)
	assert.Contains(t, stmt.sql, `INSERT INTO "loans"`)
	assert.Contains(t, stmt.sql, "NULL")
	assert.Contains(t, stmt.args, string(loanledger.KindEBook))
}

func Test_TableNames_UpsertBook_KeepsAvailability(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")

	// act
	stmt, err := tables.upsertBook(loanledger.Book{BookID: 1, Title: "Dune", Kind: loanledger.KindPhysical, Available: true})

	// assert
	require.NoError(t, err)
	assert.Contains(t, stmt.sql, `ON CONFLICT (book_id) DO UPDATE SET`)
	assert.Contains(t, stmt.sql, `"title"=EXCLUDED.title`)
	assert.NotContains(t, stmt.sql, "EXCLUDED.available")
}

func Test_TableNames_UpdateBook_OnlySetsPatchedColumns(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")
	title := "Dune Messiah"
	kind := loanledger.KindAudiobook

	// act
	stmt, err := tables.updateBook(1, loanledger.BookPatch{Title: &title, Kind: &kind})

	// assert
	require.NoError(t, err)
	assert.Contains(t, stmt.sql, `"title"=`)
	assert.Contains(t, stmt.sql, `"kind"=`)
	assert.NotContains(t, stmt.sql, `"author"`)
	assert.NotContains(t, stmt.sql, `"available"`)
	assert.Contains(t, stmt.args, title)
	assert.Contains(t, stmt.args, string(kind))
}

func Test_TableNames_SelectAnyOpenLoanOf(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")

	// act
	stmt, err := tables.selectAnyOpenLoanOf(7)

	// assert
	require.NoError(t, err)
	assert.Contains(t, stmt.sql, `"book_id" = $1`)
	assert.Contains(t, stmt.sql, `"return_date" IS NULL`)
	assert.NotContains(t, stmt.sql, `"patron_id" =`)
	assert.Equal(t, []any{int64(7)}, stmt.args)
}

func Test_TableNames_SelectOutstandingFine(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")

	// act
	stmt, err := tables.selectOutstandingFine(9)

	// assert
	require.NoError(t, err)
	assert.Contains(t, stmt.sql, `COALESCE(SUM("fine"), 0)`)
	assert.Contains(t, stmt.sql, `COUNT(*)`)
	assert.Contains(t, stmt.sql, `"return_date" IS NULL`)
	assert.Contains(t, stmt.sql, `"fine" > 0`)
	assert.Equal(t, []any{int64(9)}, stmt.args)
}

func Test_TableNames_SelectPatronsWithOutstandingFines_OrdersByTotal(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")

	// act
	stmt, err := tables.selectPatronsWithOutstandingFines()

	// assert
	require.NoError(t, err)
	assert.Contains(t, stmt.sql, `INNER JOIN "patrons" AS "p"`)
	assert.Contains(t, stmt.sql, `GROUP BY`)
	assert.Contains(t, stmt.sql, `ORDER BY "total_fine" DESC, "p"."patron_id" ASC`)
}

func Test_TableNames_InsertJournalEntry_CastsPayloadToJsonb(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")
	entry, err := loanledger.BuildJournalEntry(loanledger.LoanOpenedEntryType, time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), 1, 2, struct{ A int }{A: 1})
	require.NoError(t, err)

	// act
	stmt, err := tables.insertJournalEntry(entry)

	// assert
	require.NoError(t, err)
	assert.Contains(t, stmt.sql, "::jsonb")
	assert.Contains(t, stmt.args, `{"A":1}`)
}

func Test_TableNames_SelectJournal_AppliesFilter(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")

	// act
	unfiltered, err := tables.selectJournal(loanledger.BuildJournalFilter(0))
	require.NoError(t, err)

	filtered, err := tables.selectJournal(loanledger.BuildJournalFilter(5).
		OfTypes(loanledger.LoanClosedEntryType, loanledger.LoanOpenedEntryType).
		ForBook(6))
	require.NoError(t, err)

	// assert
	assert.NotContains(t, unfiltered.sql, "WHERE")
	assert.Contains(t, unfiltered.sql, `ORDER BY "sequence_number" ASC`)

	assert.Contains(t, filtered.sql, `"entry_type" IN ($1, $2)`)
	assert.Equal(t, []any{loanledger.LoanClosedEntryType, loanledger.LoanOpenedEntryType, int64(5), int64(6)}, filtered.args)
}

func Test_TableNames_SelectLoansOf_OpenOnly(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")

	// act
	all, err := tables.selectLoansOf(3, loanledger.AllLoans)
	require.NoError(t, err)

	open, err := tables.selectLoansOf(3, loanledger.OpenLoansOnly)
	require.NoError(t, err)

	// assert
	assert.NotContains(t, all.sql, `"return_date" IS NULL`)
	assert.Contains(t, open.sql, `"return_date" IS NULL`)
	assert.Contains(t, open.sql, `ORDER BY "borrow_date" DESC, "loan_id" DESC`)
}
