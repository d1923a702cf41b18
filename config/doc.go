// Package config provides the environment configuration of the loan ledger and
// PostgreSQL connection factories for the supported adapters (pgx.Pool, sql.DB, sqlx.DB).
//
// Load reads a .env file from the working directory if there is one, then the process environment.
package config
