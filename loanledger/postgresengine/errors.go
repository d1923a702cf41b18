package postgresengine

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrInvalidTablePrefix    = errors.New("table prefix must only contain lowercase letters, digits and underscores")
	ErrBuildingQueryFailed   = errors.New("building query failed")
	ErrQueryingFailed        = errors.New("querying database failed")
	ErrExecutingFailed       = errors.New("executing statement failed")
	ErrScanningDBRowFailed   = errors.New("scanning db row failed")
	ErrGettingRowsAffected   = errors.New("getting rows affected failed")
	ErrBeginningTxFailed     = errors.New("beginning transaction failed")
	ErrCommittingTxFailed    = errors.New("committing transaction failed")
	ErrMigratingFailed       = errors.New("migrating schema failed")
)

// pgErrorDetails extracts SQLSTATE and constraint name from a pgx or lib/pq error.
func pgErrorDetails(err error) (code string, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}

	return "", "", false
}

// translate maps database errors that carry business meaning onto the loanledger errors.
// It returns nil for everything else.
func (t tableNames) translate(err error) error {
	code, constraint, ok := pgErrorDetails(err)
	if !ok {
		return nil
	}

	switch code {
	case pgerrcode.UniqueViolation:
		if constraint == t.openLoanIndex() {
			return loanledger.ErrAlreadyBorrowed
		}

	case pgerrcode.ForeignKeyViolation:
		switch constraint {
		case t.loanPatronFK(), t.paymentPatronFK():
			return loanledger.ErrPatronNotFound
		case t.loanBookFK():
			return loanledger.ErrBookNotFound
		}

	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return loanledger.ErrConcurrencyConflict
	}

	return nil
}

// wrap joins category with err, and with the translated loanledger error if there is one.
func (t tableNames) wrap(category error, err error) error {
	if translated := t.translate(err); translated != nil {
		return errors.Join(translated, err)
	}

	return errors.Join(category, err)
}
