package loanledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Metric names.
const (
	OperationDurationMetric = "loanledger_operation_duration_seconds"
	OperationCallsMetric    = "loanledger_operation_calls_total"
	FineAssessedMetric      = "loanledger_fine_assessed"
	RetryAttemptsMetric     = "loanledger_retry_attempts"
)

// Operation names used as the "operation" metric label.
const (
	operationBorrow          = "borrow"
	operationReturn          = "return"
	operationOutstandingFine = "outstanding_fine"
	operationEstimateFine    = "estimate_fine"
	operationAdjustLoan      = "adjust_loan"
	operationFinesReport     = "fines_report"
	operationLoansOf         = "loans_of"
	operationRecordPayment   = "record_payment"
	operationPaymentsOf      = "payments_of"
	operationPaymentSummary  = "payment_summary"
	operationHistory         = "history"
	operationRegisterPatron  = "register_patron"
	operationAddBook         = "add_book"
	operationUpdateBook      = "update_book"
	operationTransaction     = "transaction"
)

// Status label values.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

const (
	labelOperation = "operation"
	labelStatus    = "status"
	labelErrorType = "error_type"
)

const (
	logMsgOperation        = "loan ledger operation: "
	logMsgRejected         = "loan ledger operation rejected: "
	logMsgFailed           = "loan ledger operation failed: "
	logMsgRetried          = "loan ledger transaction retried"
	logMsgFineInputIgnored = "fine input could not be parsed, fine is 0.00"

	logAttrError      = "error"
	logAttrDurationMS = "duration_ms"
	logAttrPatronID   = "patron_id"
	logAttrBookID     = "book_id"
	logAttrLoanID     = "loan_id"
	logAttrFine       = "fine"
	logAttrAmount     = "amount"
	logAttrCount      = "count"
	logAttrAttempts   = "attempts"
	logAttrErrorType  = "error_type"
)

// statusOf classifies an operation outcome for logs and metrics.
// Business rule rejections are expected outcomes and are kept apart from storage failures.
func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidInput):
		return StatusRejected
	default:
		return StatusError
	}
}

// observe logs the outcome of an operation and records its duration and call count.
func (l Ledger) observe(ctx context.Context, operation string, start time.Time, err error, args ...any) {
	duration := time.Since(start)
	status := statusOf(err)

	allArgs := append([]any{logAttrDurationMS, toMilliseconds(duration)}, args...)

	switch status {
	case StatusSuccess:
		l.logInfo(ctx, logMsgOperation+operation, allArgs...)
	case StatusRejected:
		l.logWarn(ctx, logMsgRejected+operation, append(allArgs, logAttrError, err.Error())...)
	default:
		l.logError(ctx, logMsgFailed+operation, append(allArgs, logAttrError, err.Error())...)
	}

	labels := map[string]string{labelOperation: operation, labelStatus: status}
	l.recordDuration(ctx, OperationDurationMetric, duration, labels)
	l.incrementCounter(ctx, OperationCallsMetric, labels)
}

func (l Ledger) recordFineAssessed(ctx context.Context, fine decimal.Decimal) {
	l.recordValue(ctx, FineAssessedMetric, fine.InexactFloat64(), map[string]string{labelOperation: operationReturn})
}

// recordRetries reports transactions that needed more than one attempt.
func (l Ledger) recordRetries(ctx context.Context, retryMetrics RetryMetrics) {
	if retryMetrics.Attempts <= 1 {
		return
	}

	l.logWarn(ctx, logMsgRetried,
		logAttrAttempts, retryMetrics.Attempts,
		logAttrErrorType, retryMetrics.LastErrorType,
		logAttrDurationMS, toMilliseconds(retryMetrics.TotalDelay),
	)

	l.recordValue(ctx, RetryAttemptsMetric, float64(retryMetrics.Attempts), map[string]string{
		labelOperation: operationTransaction,
		labelErrorType: retryMetrics.LastErrorType,
	})
}

func toMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func (l Ledger) logDebug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l Ledger) logInfo(ctx context.Context, msg string, args ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

func (l Ledger) logWarn(ctx context.Context, msg string, args ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}

func (l Ledger) logError(ctx context.Context, msg string, args ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if l.logger != nil {
		l.logger.Error(msg, args...)
	}
}

func (l Ledger) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if l.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := l.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	l.metricsCollector.RecordDuration(metric, duration, labels)
}

func (l Ledger) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if l.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := l.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	l.metricsCollector.IncrementCounter(metric, labels)
}

func (l Ledger) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if l.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := l.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	l.metricsCollector.RecordValue(metric, value, labels)
}
