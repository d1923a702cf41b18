package loanledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const defaultGracePeriodDays = 14

var (
	// ErrNegativeGracePeriod is returned when a FinePolicy is built with a negative grace period.
	ErrNegativeGracePeriod = errors.New("grace period must not be negative")

	// ErrNegativeDailyRate is returned when a FinePolicy is built with a negative daily rate.
	ErrNegativeDailyRate = errors.New("daily rate must not be negative")
)

// FinePolicy decides how much an overdue loan costs.
// Each calendar day beyond GracePeriodDays costs DailyRate.
type FinePolicy struct {
	GracePeriodDays int
	DailyRate       decimal.Decimal
}

// DefaultFinePolicy is 14 days of grace, then RM 1.00 per overdue day.
func DefaultFinePolicy() FinePolicy {
	return FinePolicy{
		GracePeriodDays: defaultGracePeriodDays,
		DailyRate:       decimal.NewFromInt(1),
	}
}

// BuildFinePolicy is a factory method for FinePolicy.
func BuildFinePolicy(gracePeriodDays int, dailyRate decimal.Decimal) (FinePolicy, error) {
	if gracePeriodDays < 0 {
		return FinePolicy{}, ErrNegativeGracePeriod
	}

	if dailyRate.IsNegative() {
		return FinePolicy{}, ErrNegativeDailyRate
	}

	return FinePolicy{GracePeriodDays: gracePeriodDays, DailyRate: RoundMoney(dailyRate)}, nil
}

// OverdueDays returns the number of days beyond the grace period between borrowDate and referenceDate.
// Inverted dates count as zero elapsed days.
func (p FinePolicy) OverdueDays(borrowDate, referenceDate time.Time) int {
	elapsed := DaysBetween(borrowDate, referenceDate)
	if elapsed < 0 {
		elapsed = 0
	}

	return max(0, elapsed-p.GracePeriodDays)
}

// Fine computes the fine for a loan borrowed on borrowDate, measured at referenceDate.
// It is a pure function of its inputs and never decreases as referenceDate advances.
func (p FinePolicy) Fine(borrowDate, referenceDate time.Time) decimal.Decimal {
	overdue := decimal.NewFromInt(int64(p.OverdueDays(borrowDate, referenceDate)))

	return RoundMoney(p.DailyRate.Mul(overdue))
}

// FineFromStrings is Fine for YYYY-MM-DD inputs. An empty referenceDate means today.
// It returns ErrInvalidDate if either date does not parse.
func (p FinePolicy) FineFromStrings(borrowDate, referenceDate string, today time.Time) (decimal.Decimal, error) {
	borrowed, err := ParseDate(borrowDate)
	if err != nil {
		return decimal.Zero, err
	}

	reference, err := parseDateOrToday(referenceDate, today)
	if err != nil {
		return decimal.Zero, err
	}

	return p.Fine(borrowed, reference), nil
}

// ComputeFine applies the DefaultFinePolicy.
func ComputeFine(borrowDate, referenceDate time.Time) decimal.Decimal {
	return DefaultFinePolicy().Fine(borrowDate, referenceDate)
}
