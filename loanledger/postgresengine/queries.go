package postgresengine

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

const (
	dialectPostgres = "postgres"
	castJsonb       = "?::jsonb"
	literalZero     = "0"

	colPatronID       = "patron_id"
	colName           = "name"
	colRole           = "role"
	colEmail          = "email"
	colActive         = "active"
	colBookID         = "book_id"
	colTitle          = "title"
	colAuthor         = "author"
	colISBN           = "isbn"
	colPublishedYear  = "published_year"
	colGenre          = "genre"
	colKind           = "kind"
	colCallNumber     = "call_number"
	colShelfLocation  = "shelf_location"
	colAvailable      = "available"
	colLoanID         = "loan_id"
	colBorrowDate     = "borrow_date"
	colReturnDate     = "return_date"
	colFine           = "fine"
	colItemKind       = "item_kind"
	colPaymentID      = "payment_id"
	colAmount         = "amount"
	colPaymentDate    = "payment_date"
	colPurpose        = "purpose"
	colSequenceNumber = "sequence_number"
	colEntryType      = "entry_type"
	colOccurredAt     = "occurred_at"
	colPayload        = "payload"

	aliasLoans         = "l"
	aliasPatrons       = "p"
	aliasTotalFine     = "total_fine"
	aliasOpenLoanCount = "open_loan_count"
	aliasPaymentCount  = "payment_count"
	aliasPaymentTotal  = "payment_total"
)

var (
	patronColumns  = []any{colPatronID, colName, colRole, colEmail, colActive}
	bookColumns    = []any{colBookID, colTitle, colAuthor, colISBN, colPublishedYear, colGenre, colKind, colCallNumber, colShelfLocation, colAvailable}
	loanColumns    = []any{colLoanID, colPatronID, colBookID, colBorrowDate, colReturnDate, colFine, colItemKind}
	paymentColumns = []any{colPaymentID, colPatronID, colAmount, colPaymentDate, colPurpose}
	journalColumns = []any{colSequenceNumber, colEntryType, colOccurredAt, colPatronID, colBookID, colPayload}
)

var dialect = goqu.Dialect(dialectPostgres)

// statement is a SQL string with its positional arguments, labeled for logging.
type statement struct {
	action string
	sql    string
	args   []any
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func buildStatement(action string, builder sqlBuilder) (statement, error) {
	sqlQuery, args, err := builder.ToSQL()
	if err != nil {
		return statement{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	return statement{action: action, sql: sqlQuery, args: args}, nil
}

func (t tableNames) selectPatron(patronID int64) (statement, error) {
	return buildStatement(actionFindPatron, dialect.
		From(t.patrons).
		Prepared(true).
		Select(patronColumns...).
		Where(goqu.C(colPatronID).Eq(patronID)))
}

func (t tableNames) upsertPatron(patron loanledger.Patron) (statement, error) {
	return buildStatement(actionSavePatron, dialect.
		Insert(t.patrons).
		Prepared(true).
		Rows(goqu.Record{
			colPatronID: patron.PatronID,
			colName:     patron.Name,
			colRole:     string(patron.Role),
			colEmail:    patron.Email,
			colActive:   patron.Active,
		}).
		OnConflict(goqu.DoUpdate(colPatronID, excluded(colName, colRole, colEmail, colActive))))
}

// selectBook reads one book; forUpdate adds a row lock held until the transaction ends.
func (t tableNames) selectBook(bookID int64, forUpdate bool) (statement, error) {
	ds := dialect.
		From(t.books).
		Prepared(true).
		Select(bookColumns...).
		Where(goqu.C(colBookID).Eq(bookID))

	if forUpdate {
		return buildStatement(actionLockBook, ds.ForUpdate(exp.Wait))
	}

	return buildStatement(actionFindBook, ds)
}

// upsertBook inserts a book or replaces its catalogue data. The availability of an existing book is kept,
// it is owned by borrow and return.
func (t tableNames) upsertBook(book loanledger.Book) (statement, error) {
	return buildStatement(actionSaveBook, dialect.
		Insert(t.books).
		Prepared(true).
		Rows(goqu.Record{
			colBookID:        book.BookID,
			colTitle:         book.Title,
			colAuthor:        book.Author,
			colISBN:          book.ISBN,
			colPublishedYear: book.PublishedYear,
			colGenre:         book.Genre,
			colKind:          string(book.Kind),
			colCallNumber:    book.CallNumber,
			colShelfLocation: book.ShelfLocation,
			colAvailable:     book.Available,
		}).
		OnConflict(goqu.DoUpdate(colBookID, excluded(
			colTitle, colAuthor, colISBN, colPublishedYear, colGenre, colKind, colCallNumber, colShelfLocation,
		))))
}

func (t tableNames) updateBook(bookID int64, patch loanledger.BookPatch) (statement, error) {
	record := goqu.Record{}

	setIfPresent(record, colTitle, patch.Title)
	setIfPresent(record, colAuthor, patch.Author)
	setIfPresent(record, colGenre, patch.Genre)
	setIfPresent(record, colCallNumber, patch.CallNumber)
	setIfPresent(record, colShelfLocation, patch.ShelfLocation)

	if patch.Kind != nil {
		record[colKind] = string(*patch.Kind)
	}

	return buildStatement(actionUpdateBook, dialect.
		Update(t.books).
		Prepared(true).
		Set(record).
		Where(goqu.C(colBookID).Eq(bookID)))
}

// setBookAvailability flips available, but only if it currently has the opposite value.
func (t tableNames) setBookAvailability(bookID int64, available bool) (statement, error) {
	action := actionMarkBookReturned
	if !available {
		action = actionMarkBookBorrowed
	}

	return buildStatement(action, dialect.
		Update(t.books).
		Prepared(true).
		Set(goqu.Record{colAvailable: available}).
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colAvailable).Eq(!available),
		))
}

func (t tableNames) selectOpenLoan(patronID int64, bookID int64) (statement, error) {
	return buildStatement(actionFindOpenLoan, dialect.
		From(t.loans).
		Prepared(true).
		Select(loanColumns...).
		Where(
			goqu.C(colPatronID).Eq(patronID),
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colReturnDate).IsNull(),
		).
		Limit(1))
}

func (t tableNames) selectAnyOpenLoanOf(bookID int64) (statement, error) {
	return buildStatement(actionHasOpenLoans, dialect.
		From(t.loans).
		Prepared(true).
		Select(loanColumns...).
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colReturnDate).IsNull(),
		).
		Limit(1))
}

func (t tableNames) insertLoan(loan loanledger.Loan) (statement, error) {
	return buildStatement(actionInsertLoan, dialect.
		Insert(t.loans).
		Prepared(true).
		Rows(goqu.Record{
			colLoanID:     loan.LoanID,
			colPatronID:   loan.PatronID,
			colBookID:     loan.BookID,
			colBorrowDate: loan.BorrowDate,
			colReturnDate: nullableDate(loan.ReturnDate),
			colFine:       loan.Fine,
			colItemKind:   string(loan.ItemKind),
		}))
}

// selectLoan reads one loan; forUpdate adds a row lock held until the transaction ends.
func (t tableNames) selectLoan(loanID uuid.UUID, forUpdate bool) (statement, error) {
	ds := dialect.
		From(t.loans).
		Prepared(true).
		Select(loanColumns...).
		Where(goqu.C(colLoanID).Eq(loanID))

	if forUpdate {
		return buildStatement(actionLockLoan, ds.ForUpdate(exp.Wait))
	}

	return buildStatement(actionFindLoan, ds)
}

// closeLoan only matches a loan that is still open.
func (t tableNames) closeLoan(loan loanledger.Loan) (statement, error) {
	return buildStatement(actionCloseLoan, dialect.
		Update(t.loans).
		Prepared(true).
		Set(goqu.Record{
			colReturnDate: nullableDate(loan.ReturnDate),
			colFine:       loan.Fine,
		}).
		Where(
			goqu.C(colLoanID).Eq(loan.LoanID),
			goqu.C(colReturnDate).IsNull(),
		))
}

func (t tableNames) updateLoan(loanID uuid.UUID, patch loanledger.LoanPatch) (statement, error) {
	record := goqu.Record{}

	setIfPresent(record, colFine, patch.Fine)
	setIfPresent(record, colBorrowDate, patch.BorrowDate)

	return buildStatement(actionUpdateLoan, dialect.
		Update(t.loans).
		Prepared(true).
		Set(record).
		Where(goqu.C(colLoanID).Eq(loanID)))
}

func (t tableNames) selectLoansOf(patronID int64, selection loanledger.LoanSelection) (statement, error) {
	ds := dialect.
		From(t.loans).
		Prepared(true).
		Select(loanColumns...).
		Where(goqu.C(colPatronID).Eq(patronID)).
		Order(goqu.C(colBorrowDate).Desc(), goqu.C(colLoanID).Desc())

	if selection == loanledger.OpenLoansOnly {
		ds = ds.Where(goqu.C(colReturnDate).IsNull())
	}

	return buildStatement(actionLoansOf, ds)
}

// outstandingFineCondition selects open loans carrying a fine.
func outstandingFineCondition(qualifier string) exp.Expression {
	col := func(name string) exp.IdentifierExpression {
		if qualifier == "" {
			return goqu.C(name)
		}

		return goqu.T(qualifier).Col(name)
	}

	return goqu.And(
		col(colReturnDate).IsNull(),
		col(colFine).Gt(goqu.L(literalZero)),
	)
}

func (t tableNames) selectOutstandingFine(patronID int64) (statement, error) {
	return buildStatement(actionOutstandingFine, dialect.
		From(t.loans).
		Prepared(true).
		Select(
			goqu.COALESCE(goqu.SUM(colFine), goqu.L(literalZero)).As(aliasTotalFine),
			goqu.COUNT(goqu.Star()).As(aliasOpenLoanCount),
		).
		Where(
			goqu.C(colPatronID).Eq(patronID),
			outstandingFineCondition(""),
		))
}

func (t tableNames) selectPatronsWithOutstandingFines() (statement, error) {
	patronID := goqu.T(aliasPatrons).Col(colPatronID)

	return buildStatement(actionFinesReport, dialect.
		From(goqu.T(t.loans).As(aliasLoans)).
		Prepared(true).
		Join(
			goqu.T(t.patrons).As(aliasPatrons),
			goqu.On(patronID.Eq(goqu.T(aliasLoans).Col(colPatronID))),
		).
		Select(
			patronID,
			goqu.T(aliasPatrons).Col(colName),
			goqu.T(aliasPatrons).Col(colRole),
			goqu.SUM(goqu.T(aliasLoans).Col(colFine)).As(aliasTotalFine),
			goqu.COUNT(goqu.Star()).As(aliasOpenLoanCount),
		).
		Where(outstandingFineCondition(aliasLoans)).
		GroupBy(patronID, goqu.T(aliasPatrons).Col(colName), goqu.T(aliasPatrons).Col(colRole)).
		Order(goqu.I(aliasTotalFine).Desc(), patronID.Asc()))
}

func (t tableNames) insertPayment(payment loanledger.Payment) (statement, error) {
	return buildStatement(actionInsertPayment, dialect.
		Insert(t.payments).
		Prepared(true).
		Rows(goqu.Record{
			colPaymentID:   payment.PaymentID,
			colPatronID:    payment.PatronID,
			colAmount:      payment.Amount,
			colPaymentDate: payment.PaymentDate,
			colPurpose:     payment.Purpose,
		}))
}

func (t tableNames) selectPaymentsOf(patronID int64) (statement, error) {
	return buildStatement(actionPaymentsOf, dialect.
		From(t.payments).
		Prepared(true).
		Select(paymentColumns...).
		Where(goqu.C(colPatronID).Eq(patronID)).
		Order(goqu.C(colPaymentDate).Desc(), goqu.C(colPaymentID).Desc()))
}

func (t tableNames) selectPaymentSummary() (statement, error) {
	return buildStatement(actionPaymentSummary, dialect.
		From(t.payments).
		Prepared(true).
		Select(
			goqu.COUNT(goqu.Star()).As(aliasPaymentCount),
			goqu.COALESCE(goqu.SUM(colAmount), goqu.L(literalZero)).As(aliasPaymentTotal),
		))
}

func (t tableNames) insertJournalEntry(entry loanledger.JournalEntry) (statement, error) {
	return buildStatement(actionAppendJournal, dialect.
		Insert(t.journal).
		Prepared(true).
		Rows(goqu.Record{
			colEntryType:  entry.EntryType,
			colOccurredAt: entry.OccurredAt,
			colPatronID:   entry.PatronID,
			colBookID:     entry.BookID,
			colPayload:    goqu.L(castJsonb, string(entry.PayloadJSON)),
		}))
}

func (t tableNames) selectJournal(filter loanledger.JournalFilter) (statement, error) {
	ds := dialect.
		From(t.journal).
		Prepared(true).
		Select(journalColumns...).
		Order(goqu.C(colSequenceNumber).Asc())

	if entryTypes := filter.EntryTypes(); len(entryTypes) > 0 {
		ds = ds.Where(goqu.C(colEntryType).In(entryTypes))
	}

	if filter.PatronID() != 0 {
		ds = ds.Where(goqu.C(colPatronID).Eq(filter.PatronID()))
	}

	if filter.BookID() != 0 {
		ds = ds.Where(goqu.C(colBookID).Eq(filter.BookID()))
	}

	return buildStatement(actionJournal, ds)
}

// excluded builds the SET clause of an upsert, taking each column from the rejected row.
func excluded(columns ...string) goqu.Record {
	record := goqu.Record{}

	for _, column := range columns {
		record[column] = goqu.L("EXCLUDED." + column)
	}

	return record
}

func setIfPresent[T any](record goqu.Record, column string, value *T) {
	if value != nil {
		record[column] = *value
	}
}

func nullableDate(date *loanledger.CalendarDate) any {
	if date == nil {
		return nil
	}

	return *date
}
