// Package main provides ledgerctl, a terminal front-end for the loan ledger.
//
// Usage:
//
//	ledgerctl <command> [flags]
//
// The database commands read their configuration from the environment or a .env file
// (see package config). The commands fine and demo work without a database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/AntonStoeckl/loan-ledger-go/config"
	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
	"github.com/AntonStoeckl/loan-ledger-go/loanledger/postgresengine"
)

const (
	exitFailure      = 1
	exitInvalidInput = 2
	exitNotFound     = 3
	exitConflict     = 4
)

var ErrUsage = fmt.Errorf("%w: unknown or missing command", loanledger.ErrInvalidInput)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return ErrUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return ErrUsage
	}

	if cmd.offline != nil {
		return cmd.offline(ctx, args[1:], stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	store, closeDB, err := config.OpenPostgresStore(ctx, cfg, postgresengine.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeDB()

	if cmd.migrate {
		if err = store.Migrate(ctx); err != nil {
			return err
		}

		_, err = fmt.Fprintln(stdout, "schema is up to date")

		return err
	}

	policy, err := cfg.FinePolicy()
	if err != nil {
		return err
	}

	ledger, err := loanledger.NewLedger(
		store,
		loanledger.WithFinePolicy(policy),
		loanledger.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	return cmd.online(ctx, ledger, args[1:], stdout)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, loanledger.ErrInvalidInput):
		return exitInvalidInput
	case errors.Is(err, loanledger.ErrNotFound):
		return exitNotFound
	case errors.Is(err, loanledger.ErrConflict):
		return exitConflict
	default:
		return exitFailure
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: ledgerctl <command> [flags]")
	_, _ = fmt.Fprintln(w, "commands:")

	for _, name := range slices.Sorted(maps.Keys(commands)) {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
}
