// Package postgreswrapper creates postgresengine Stores for integration tests, using the adapter
// named in ADAPTER_TYPE (pgx.pool, sql.db or sqlx.db; default pgx.pool).
//
// Tests using it are skipped unless LOANLEDGER_TEST_DSN points to a PostgreSQL database.
package postgreswrapper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/loan-ledger-go/config"
	. "github.com/AntonStoeckl/loan-ledger-go/loanledger/postgresengine"
)

const (
	envTestDSN      = "LOANLEDGER_TEST_DSN"
	envAdapterType  = "ADAPTER_TYPE"
	testTablePrefix = "test_"
)

// Wrapper gives tests the Store and the raw connection for arranging and inspecting rows.
type Wrapper struct {
	store   Store
	exec    func(ctx context.Context, query string) error
	closeDB func()
}

func (w *Wrapper) GetStore() Store {
	return w.store
}

func (w *Wrapper) Close() {
	w.closeDB()
}

// CreateWrapperWithTestConfig connects to the test database, migrates the schema and truncates all tables.
func CreateWrapperWithTestConfig(t testing.TB, options ...Option) *Wrapper {
	t.Helper()

	dsn := os.Getenv(envTestDSN)
	if dsn == "" {
		t.Skipf("%s is not set, skipping PostgreSQL integration test", envTestDSN)
	}

	ctx := context.Background()
	options = append(options, WithTablePrefix(testTablePrefix))
	adapterType := strings.ToLower(os.Getenv(envAdapterType))

	var wrapper Wrapper

	switch adapterType {
	case config.AdapterPGXPool, "":
		pool, err := config.ConnectPGXPool(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		store, err := NewStoreFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = Wrapper{
			store:   store,
			exec:    func(ctx context.Context, query string) error { _, err := pool.Exec(ctx, query); return err },
			closeDB: pool.Close,
		}

	case config.AdapterSQLDB:
		db, err := config.ConnectSQLDB(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")

		store, err := NewStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = Wrapper{
			store:   store,
			exec:    func(ctx context.Context, query string) error { _, err := db.ExecContext(ctx, query); return err },
			closeDB: func() { _ = db.Close() },
		}

	case config.AdapterSQLX:
		db, err := config.ConnectSQLX(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")

		store, err := NewStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = Wrapper{
			store:   store,
			exec:    func(ctx context.Context, query string) error { _, err := db.ExecContext(ctx, query); return err },
			closeDB: func() { _ = db.Close() },
		}

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}

	require.NoError(t, wrapper.store.Migrate(ctx), "error migrating schema in test setup")
	CleanUp(t, &wrapper)
	t.Cleanup(wrapper.Close)

	return &wrapper
}

// CleanUp empties all ledger tables.
func CleanUp(t testing.TB, wrapper *Wrapper) {
	t.Helper()

	query := fmt.Sprintf(
		"TRUNCATE TABLE %[1]sloan_journal, %[1]spayments, %[1]sloans, %[1]sbooks, %[1]spatrons RESTART IDENTITY",
		testTablePrefix,
	)

	require.NoError(t, wrapper.exec(context.Background(), query), "error cleaning up the ledger tables")
}
