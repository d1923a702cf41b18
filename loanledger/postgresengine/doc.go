// Package postgresengine provides a PostgreSQL implementation of loanledger.Store.
//
// The Store can be created from a pgxpool.Pool, a *sql.DB (lib/pq) or a *sqlx.DB.
// All three share the same goqu-built statements with positional arguments.
//
// Consistency under concurrent borrow and return requests comes from three layers:
//
//	SELECT ... FOR UPDATE on the book or loan row inside each transaction
//	conditional updates (available = TRUE, return_date IS NULL) that report zero affected rows as a conflict
//	a partial unique index allowing at most one open loan per patron and book
//
// Violations of the unique index and of the foreign keys are translated into the loanledger error values,
// serialization failures and deadlocks into loanledger.ErrConcurrencyConflict.
//
// Use Migrate to create the tables.
package postgresengine
