package postgresengine

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

func Test_TableNames_Translate(t *testing.T) {
	tables := tablesWithPrefix("test_")

	testCases := []struct {
		description string
		err         error
		expected    error
	}{
		{
			description: "pgx unique violation on the open loan index",
			err:         &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "test_loans_one_open_per_patron_book"},
			expected:    loanledger.ErrAlreadyBorrowed,
		},
		{
			description: "lib/pq unique violation on the open loan index",
			err:         &pq.Error{Code: pgerrcode.UniqueViolation, Constraint: "test_loans_one_open_per_patron_book"},
			expected:    loanledger.ErrAlreadyBorrowed,
		},
		{
			description: "pgx foreign key violation on the loan's patron",
			err:         &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "test_loans_patron_fk"},
			expected:    loanledger.ErrPatronNotFound,
		},
		{
			description: "lib/pq foreign key violation on the payment's patron",
			err:         &pq.Error{Code: pgerrcode.ForeignKeyViolation, Constraint: "test_payments_patron_fk"},
			expected:    loanledger.ErrPatronNotFound,
		},
		{
			description: "foreign key violation on the loan's book",
			err:         &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "test_loans_book_fk"},
			expected:    loanledger.ErrBookNotFound,
		},
		{
			description: "serialization failure",
			err:         &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			expected:    loanledger.ErrConcurrencyConflict,
		},
		{
			description: "deadlock",
			err:         &pq.Error{Code: pgerrcode.DeadlockDetected},
			expected:    loanledger.ErrConcurrencyConflict,
		},
		{
			description: "unique violation on another constraint",
			err:         &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "test_loans_pkey"},
			expected:    nil,
		},
		{
			description: "constraint of another table prefix",
			err:         &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "loans_one_open_per_patron_book"},
			expected:    nil,
		},
		{
			description: "not a database error",
			err:         errors.New("connection reset"),
			expected:    nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// act
			translated := tables.translate(tc.err)

			// assert
			assert.Equal(t, tc.expected, translated)
		})
	}
}

func Test_TableNames_Wrap(t *testing.T) {
	// setup
	tables := tablesWithPrefix("")
	uniqueViolation := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "loans_one_open_per_patron_book"}
	other := errors.New("connection reset")

	// act
	translated := tables.wrap(ErrExecutingFailed, uniqueViolation)
	untranslated := tables.wrap(ErrExecutingFailed, other)

	// assert
	assert.ErrorIs(t, translated, loanledger.ErrAlreadyBorrowed)
	assert.ErrorIs(t, translated, loanledger.ErrConflict)
	assert.ErrorAs(t, translated, new(*pgconn.PgError))

	assert.ErrorIs(t, untranslated, ErrExecutingFailed)
	assert.ErrorIs(t, untranslated, other)
}
