package postgresengine

import (
	"context"
	"time"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger/postgresengine/internal/adapters"
)

const (
	logMsgSQLExecuted       = "executed sql for: "
	logMsgDBQueryFailed     = "database query execution failed"
	logMsgDBExecFailed      = "database statement execution failed"
	logMsgScanRowFailed     = "failed to scan database row"
	logMsgCloseRowsFailed   = "failed to close database rows"
	logMsgRollbackFailed    = "failed to roll back transaction"
	logMsgCommitFailed      = "failed to commit transaction"
	logMsgBuildQueryFailed  = "failed to build query"
	logMsgStatementRejected = "database rejected statement: "
	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrDurationMS       = "duration_ms"
	logAttrRowsAffected     = "rows_affected"
)

const (
	actionMigrate          = "migrate"
	actionCommit           = "commit"
	actionFindPatron       = "find_patron"
	actionSavePatron       = "save_patron"
	actionFindBook         = "find_book"
	actionLockBook         = "lock_book"
	actionSaveBook         = "save_book"
	actionUpdateBook       = "update_book"
	actionMarkBookBorrowed = "mark_book_borrowed"
	actionMarkBookReturned = "mark_book_returned"
	actionFindOpenLoan     = "find_open_loan"
	actionHasOpenLoans     = "has_open_loans"
	actionInsertLoan       = "insert_loan"
	actionFindLoan         = "find_loan"
	actionLockLoan         = "lock_loan"
	actionCloseLoan        = "close_loan"
	actionUpdateLoan       = "update_loan"
	actionLoansOf          = "loans_of"
	actionOutstandingFine  = "outstanding_fine"
	actionFinesReport      = "fines_report"
	actionInsertPayment    = "insert_payment"
	actionPaymentsOf       = "payments_of"
	actionPaymentSummary   = "payment_summary"
	actionAppendJournal    = "append_journal"
	actionJournal          = "journal"
)

// logSQL logs an executed statement with its timing at debug level.
func (s Store) logSQL(ctx context.Context, stmt statement, duration time.Duration, args ...any) {
	args = append(args, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, stmt.sql)
	s.logDebug(ctx, logMsgSQLExecuted+stmt.action, args...)
}

// logFailure logs database failures at error level. Failures that map onto a business error
// (unique and foreign key violations, lock conflicts) are expected under concurrency and only logged at debug level.
func (s Store) logFailure(ctx context.Context, msg string, stmt statement, err error) {
	if s.tables.translate(err) != nil {
		s.logDebug(ctx, logMsgStatementRejected+stmt.action, logAttrError, err.Error())
		return
	}

	s.logError(ctx, msg, logAttrError, err.Error(), logAttrQuery, stmt.sql)
}

// closeRows safely closes database rows and logs any errors.
func (s Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func toMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func (s Store) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s Store) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s Store) logError(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
