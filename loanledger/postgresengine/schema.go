package postgresengine

import (
	"context"
	"errors"
	"fmt"
)

const defaultTablePrefix = ""

type tableNames struct {
	prefix   string
	patrons  string
	books    string
	loans    string
	payments string
	journal  string
}

func tablesWithPrefix(prefix string) tableNames {
	return tableNames{
		prefix:   prefix,
		patrons:  prefix + "patrons",
		books:    prefix + "books",
		loans:    prefix + "loans",
		payments: prefix + "payments",
		journal:  prefix + "loan_journal",
	}
}

func (t tableNames) openLoanIndex() string {
	return t.loans + "_one_open_per_patron_book"
}

func (t tableNames) loanPatronFK() string {
	return t.loans + "_patron_fk"
}

func (t tableNames) loanBookFK() string {
	return t.loans + "_book_fk"
}

func (t tableNames) paymentPatronFK() string {
	return t.payments + "_patron_fk"
}

// schemaStatements returns the idempotent DDL for all tables. Names are validated by WithTablePrefix.
func (t tableNames) schemaStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	patron_id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE
)`, t.patrons),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	book_id BIGINT PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	isbn TEXT NOT NULL DEFAULT '',
	published_year INTEGER NOT NULL DEFAULT 0,
	genre TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	call_number TEXT NOT NULL DEFAULT '',
	shelf_location TEXT NOT NULL DEFAULT '',
	available BOOLEAN NOT NULL DEFAULT TRUE
)`, t.books),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	loan_id UUID PRIMARY KEY,
	patron_id BIGINT NOT NULL CONSTRAINT %s REFERENCES %s (patron_id),
	book_id BIGINT NOT NULL CONSTRAINT %s REFERENCES %s (book_id),
	borrow_date DATE NOT NULL,
	return_date DATE,
	fine NUMERIC(10, 2) NOT NULL DEFAULT 0 CHECK (fine >= 0),
	item_kind TEXT NOT NULL
)`, t.loans, t.loanPatronFK(), t.patrons, t.loanBookFK(), t.books),

		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (patron_id, book_id) WHERE return_date IS NULL`,
			t.openLoanIndex(), t.loans),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_open_fines ON %s (patron_id) WHERE return_date IS NULL AND fine > 0`,
			t.loans, t.loans),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	payment_id UUID PRIMARY KEY,
	patron_id BIGINT NOT NULL CONSTRAINT %s REFERENCES %s (patron_id),
	amount NUMERIC(10, 2) NOT NULL CHECK (amount > 0),
	payment_date DATE NOT NULL,
	purpose TEXT NOT NULL DEFAULT ''
)`, t.payments, t.paymentPatronFK(), t.patrons),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_patron ON %s (patron_id, payment_date DESC)`, t.payments, t.payments),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	sequence_number BIGSERIAL PRIMARY KEY,
	entry_type TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	patron_id BIGINT NOT NULL,
	book_id BIGINT NOT NULL,
	payload JSONB NOT NULL
)`, t.journal),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_patron ON %s (patron_id, sequence_number)`, t.journal, t.journal),
	}
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s Store) Migrate(ctx context.Context) error {
	for _, ddl := range s.tables.schemaStatements() {
		if _, err := s.exec(ctx, s.db, statement{action: actionMigrate, sql: ddl}); err != nil {
			return errors.Join(ErrMigratingFailed, err)
		}
	}

	return nil
}
