package loanledger

import (
	"errors"
	"fmt"
)

// Error categories. Every failure reported by the Ledger matches exactly one of them via errors.Is.
var (
	// ErrNotFound is the category for a patron, book or loan that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is the category for business rule violations caused by the current state.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is the category for malformed commands and unparseable dates.
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrPatronNotFound = fmt.Errorf("patron %w", ErrNotFound)
	ErrBookNotFound   = fmt.Errorf("book %w", ErrNotFound)
	ErrLoanNotFound   = fmt.Errorf("loan %w", ErrNotFound)

	ErrBookUnavailable = fmt.Errorf("%w: book is not available for borrowing", ErrConflict)
	ErrAlreadyBorrowed = fmt.Errorf("%w: patron already has an open loan for this book", ErrConflict)
	ErrAlreadyReturned = fmt.Errorf("%w: loan is already returned", ErrConflict)
	ErrBookOnLoan      = fmt.Errorf("%w: book has open loans", ErrConflict)

	ErrInvalidDate     = fmt.Errorf("%w: date must be formatted as YYYY-MM-DD", ErrInvalidInput)
	ErrInvalidCommand  = fmt.Errorf("%w: command validation failed", ErrInvalidInput)
	ErrNegativeAmount  = fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	ErrZeroAmount      = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	ErrAmountTooLarge  = fmt.Errorf("%w: amount must not exceed 99999999.99", ErrInvalidInput)
	ErrEmptyPatch      = fmt.Errorf("%w: patch changes nothing", ErrInvalidInput)
	ErrInvalidBookKind = fmt.Errorf("%w: unknown book kind", ErrInvalidInput)
	ErrInvalidRole     = fmt.Errorf("%w: unknown patron role", ErrInvalidInput)
)

// ErrConcurrencyConflict is returned by a Store when a compare-and-swap lost against a concurrent writer.
// The Ledger retries it; it only surfaces once all attempts are used up.
var ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

// ErrNilStore is returned by NewLedger when no Store is supplied.
var ErrNilStore = errors.New("store must not be nil")
