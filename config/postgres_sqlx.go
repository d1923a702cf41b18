package config

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ConnectSQLX opens a *sqlx.DB using lib/pq and pings it.
func ConnectSQLX(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverPostgres, dsn)
	if err != nil {
		return nil, err
	}

	if err = configureSQLPool(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}
