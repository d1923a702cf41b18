package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
	"github.com/AntonStoeckl/loan-ledger-go/loanledger/postgresengine/internal/adapters"
)

// Store is a loanledger.Store backed by PostgreSQL.
type Store struct {
	db               adapters.DBAdapter
	tables           tableNames
	logger           loanledger.Logger
	contextualLogger loanledger.ContextualLogger
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (Store, error) {
	s := Store{
		db:     db,
		tables: tablesWithPrefix(defaultTablePrefix),
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

// WithinTx runs fn inside one database transaction. It commits if fn returns nil and rolls back otherwise.
func (s Store) WithinTx(ctx context.Context, fn loanledger.TxFunc) error {
	dbTx, err := s.db.BeginTx(ctx)
	if err != nil {
		return errors.Join(ErrBeginningTxFailed, err)
	}

	if err = fn(ctx, &tx{store: s, db: dbTx}); err != nil {
		// The rollback must run even if ctx is what made fn fail.
		if rollbackErr := dbTx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil {
			s.logWarn(ctx, logMsgRollbackFailed, logAttrError, rollbackErr.Error())
		}

		return err
	}

	if err = dbTx.Commit(ctx); err != nil {
		s.logFailure(ctx, logMsgCommitFailed, statement{action: actionCommit}, err)

		return s.tables.wrap(ErrCommittingTxFailed, err)
	}

	return nil
}

// FindBook returns a book by id.
func (s Store) FindBook(ctx context.Context, bookID int64) (loanledger.Book, error) {
	stmt, err := s.tables.selectBook(bookID, false)
	if err != nil {
		return loanledger.Book{}, s.buildFailed(ctx, err)
	}

	return queryOne(ctx, s, s.db, stmt, scanBook, loanledger.ErrBookNotFound)
}

// FindLoan returns a loan by id.
func (s Store) FindLoan(ctx context.Context, loanID uuid.UUID) (loanledger.Loan, error) {
	stmt, err := s.tables.selectLoan(loanID, false)
	if err != nil {
		return loanledger.Loan{}, s.buildFailed(ctx, err)
	}

	return queryOne(ctx, s, s.db, stmt, scanLoan, loanledger.ErrLoanNotFound)
}

// LoansOf returns a patron's loans, newest borrow date first.
func (s Store) LoansOf(
	ctx context.Context,
	patronID int64,
	selection loanledger.LoanSelection,
) ([]loanledger.Loan, error) {

	stmt, err := s.tables.selectLoansOf(patronID, selection)
	if err != nil {
		return nil, s.buildFailed(ctx, err)
	}

	return queryAll(ctx, s, s.db, stmt, scanLoan)
}

// OutstandingFine sums the fines of a patron's open loans with a fine greater than zero.
func (s Store) OutstandingFine(ctx context.Context, patronID int64) (loanledger.OutstandingFine, error) {
	stmt, err := s.tables.selectOutstandingFine(patronID)
	if err != nil {
		return loanledger.OutstandingFine{}, s.buildFailed(ctx, err)
	}

	scan := func(rows adapters.DBRows) (loanledger.OutstandingFine, error) {
		outstanding := loanledger.OutstandingFine{PatronID: patronID}
		if err := rows.Scan(&outstanding.TotalFine, &outstanding.OpenLoanCount); err != nil {
			return loanledger.OutstandingFine{}, err
		}

		outstanding.TotalFine = loanledger.RoundMoney(outstanding.TotalFine)

		return outstanding, nil
	}

	return queryOne(ctx, s, s.db, stmt, scan, ErrQueryingFailed)
}

// PatronsWithOutstandingFines returns one row per patron with an outstanding fine, largest total first.
func (s Store) PatronsWithOutstandingFines(ctx context.Context) ([]loanledger.PatronFine, error) {
	stmt, err := s.tables.selectPatronsWithOutstandingFines()
	if err != nil {
		return nil, s.buildFailed(ctx, err)
	}

	scan := func(rows adapters.DBRows) (loanledger.PatronFine, error) {
		var row loanledger.PatronFine
		var role string

		if err := rows.Scan(&row.PatronID, &row.Name, &role, &row.TotalFine, &row.OpenLoanCount); err != nil {
			return loanledger.PatronFine{}, err
		}

		row.Role = loanledger.PatronRole(role)
		row.TotalFine = loanledger.RoundMoney(row.TotalFine)

		return row, nil
	}

	return queryAll(ctx, s, s.db, stmt, scan)
}

// PaymentsOf returns a patron's payments, newest first.
func (s Store) PaymentsOf(ctx context.Context, patronID int64) ([]loanledger.Payment, error) {
	stmt, err := s.tables.selectPaymentsOf(patronID)
	if err != nil {
		return nil, s.buildFailed(ctx, err)
	}

	return queryAll(ctx, s, s.db, stmt, scanPayment)
}

// PaymentSummary aggregates all payments.
func (s Store) PaymentSummary(ctx context.Context) (loanledger.PaymentSummary, error) {
	stmt, err := s.tables.selectPaymentSummary()
	if err != nil {
		return loanledger.PaymentSummary{}, s.buildFailed(ctx, err)
	}

	scan := func(rows adapters.DBRows) (loanledger.PaymentSummary, error) {
		var count int
		var total decimal.Decimal

		if err := rows.Scan(&count, &total); err != nil {
			return loanledger.PaymentSummary{}, err
		}

		return loanledger.BuildPaymentSummary(count, total), nil
	}

	return queryOne(ctx, s, s.db, stmt, scan, ErrQueryingFailed)
}

// Journal returns the entries matching filter in append order.
func (s Store) Journal(ctx context.Context, filter loanledger.JournalFilter) ([]loanledger.JournalEntry, error) {
	stmt, err := s.tables.selectJournal(filter)
	if err != nil {
		return nil, s.buildFailed(ctx, err)
	}

	return queryAll(ctx, s, s.db, stmt, scanJournalEntry)
}

// buildFailed logs a failed statement build and returns err.
func (s Store) buildFailed(ctx context.Context, err error) error {
	s.logError(ctx, logMsgBuildQueryFailed, logAttrError, err.Error())

	return err
}

// exec executes a statement and returns the number of affected rows.
func (s Store) exec(ctx context.Context, q adapters.Querier, stmt statement) (int64, error) {
	start := time.Now()
	result, execErr := q.Exec(ctx, stmt.sql, stmt.args...)
	duration := time.Since(start)

	if execErr != nil {
		s.logSQL(ctx, stmt, duration)
		s.logFailure(ctx, logMsgDBExecFailed, stmt, execErr)

		return 0, s.tables.wrap(ErrExecutingFailed, execErr)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Join(ErrGettingRowsAffected, err)
	}

	s.logSQL(ctx, stmt, duration, logAttrRowsAffected, rowsAffected)

	return rowsAffected, nil
}

// queryAll runs a query and scans every row with scan.
func queryAll[T any](
	ctx context.Context,
	s Store,
	q adapters.Querier,
	stmt statement,
	scan func(rows adapters.DBRows) (T, error),
) ([]T, error) {

	start := time.Now()
	rows, queryErr := q.Query(ctx, stmt.sql, stmt.args...)
	s.logSQL(ctx, stmt, time.Since(start))

	if queryErr != nil {
		s.logFailure(ctx, logMsgDBQueryFailed, stmt, queryErr)
		return nil, s.tables.wrap(ErrQueryingFailed, queryErr)
	}
	defer s.closeRows(ctx, rows)

	items := make([]T, 0)

	for rows.Next() {
		item, scanErr := scan(rows)
		if scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error(), logAttrQuery, stmt.sql)
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		s.logFailure(ctx, logMsgDBQueryFailed, stmt, err)
		return nil, s.tables.wrap(ErrQueryingFailed, err)
	}

	return items, nil
}

// queryOne runs a query expected to return at most one row and returns notFound for no rows.
func queryOne[T any](
	ctx context.Context,
	s Store,
	q adapters.Querier,
	stmt statement,
	scan func(rows adapters.DBRows) (T, error),
	notFound error,
) (T, error) {

	var zero T

	items, err := queryAll(ctx, s, q, stmt, scan)
	if err != nil {
		return zero, err
	}

	if len(items) == 0 {
		return zero, notFound
	}

	return items[0], nil
}
