package config

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger/postgresengine"
)

// OpenPostgresStore connects with the configured adapter and creates the Store on top of it.
// The returned close function releases the connection pool.
func OpenPostgresStore(
	ctx context.Context,
	cfg Config,
	options ...postgresengine.Option,
) (postgresengine.Store, func(), error) {

	if cfg.TablePrefix != "" {
		options = append(options, postgresengine.WithTablePrefix(cfg.TablePrefix))
	}

	switch cfg.DBAdapter {
	case AdapterPGXPool, "":
		pool, err := ConnectPGXPool(ctx, cfg.DSN)
		if err != nil {
			return postgresengine.Store{}, nil, err
		}

		store, err := postgresengine.NewStoreFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return postgresengine.Store{}, nil, err
		}

		return store, pool.Close, nil

	case AdapterSQLDB:
		db, err := ConnectSQLDB(ctx, cfg.DSN)
		if err != nil {
			return postgresengine.Store{}, nil, err
		}

		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return postgresengine.Store{}, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	case AdapterSQLX:
		db, err := ConnectSQLX(ctx, cfg.DSN)
		if err != nil {
			return postgresengine.Store{}, nil, err
		}

		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return postgresengine.Store{}, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	default:
		return postgresengine.Store{}, nil, fmt.Errorf("%w: unsupported db adapter %q", ErrInvalidConfig, cfg.DBAdapter)
	}
}
