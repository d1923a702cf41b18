package postgresengine

import (
	"regexp"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

var tablePrefixPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithTablePrefix prefixes all table, index and constraint names, e.g. "test_" gives "test_loans".
// Only lowercase letters, digits and underscores are accepted.
func WithTablePrefix(prefix string) Option {
	return func(s *Store) error {
		if !tablePrefixPattern.MatchString(prefix) {
			return ErrInvalidTablePrefix
		}

		s.tables = tablesWithPrefix(prefix)

		return nil
	}
}

// WithLogger sets the logger for the Store.
//
// Debug level: SQL statements with execution timing (development use)
// Warn level: Non-critical issues like rollback or cleanup failures
// Error level: Database failures that make an operation fail.
func WithLogger(logger loanledger.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store. It is preferred over the plain logger.
func WithContextualLogger(logger loanledger.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}
