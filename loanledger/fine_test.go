package loanledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
)

func Test_FinePolicy_Fine(t *testing.T) {
	policy := loanledger.DefaultFinePolicy()
	borrowDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		referenceDate time.Time
		expectedFine  string
	}{
		{name: "same_day", referenceDate: borrowDate, expectedFine: "0.00"},
		{name: "last_day_of_grace", referenceDate: borrowDate.AddDate(0, 0, 14), expectedFine: "0.00"},
		{name: "first_overdue_day", referenceDate: borrowDate.AddDate(0, 0, 15), expectedFine: "1.00"},
		{name: "nineteen_days", referenceDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), expectedFine: "5.00"},
		{name: "twenty_days", referenceDate: time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), expectedFine: "6.00"},
		{name: "across_leap_day", referenceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), expectedFine: "46.00"},
		{name: "reference_before_borrow", referenceDate: borrowDate.AddDate(0, 0, -30), expectedFine: "0.00"},
		{name: "time_of_day_is_ignored", referenceDate: borrowDate.AddDate(0, 0, 15).Add(23 * time.Hour), expectedFine: "1.00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fine := policy.Fine(borrowDate, tc.referenceDate)

			assert.Equal(t, tc.expectedFine, fine.StringFixed(2))
		})
	}
}

func Test_FinePolicy_Fine_IsMonotonicInReferenceDate(t *testing.T) {
	policy := loanledger.DefaultFinePolicy()
	borrowDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	previous := decimal.Zero

	for day := 0; day <= 60; day++ {
		fine := policy.Fine(borrowDate, borrowDate.AddDate(0, 0, day))

		assert.False(t, fine.LessThan(previous), "fine decreased on day %d", day)
		assert.False(t, fine.IsNegative())
		previous = fine
	}
}

func Test_FinePolicy_Fine_CustomPolicy(t *testing.T) {
	policy, err := loanledger.BuildFinePolicy(7, decimal.RequireFromString("0.50"))
	require.NoError(t, err)

	borrowDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "1.50", policy.Fine(borrowDate, borrowDate.AddDate(0, 0, 10)).StringFixed(2))
	assert.Equal(t, 3, policy.OverdueDays(borrowDate, borrowDate.AddDate(0, 0, 10)))
}

func Test_BuildFinePolicy_RejectsNegativeValues(t *testing.T) {
	_, err := loanledger.BuildFinePolicy(-1, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, loanledger.ErrNegativeGracePeriod)

	_, err = loanledger.BuildFinePolicy(14, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, loanledger.ErrNegativeDailyRate)
}

func Test_FinePolicy_FineFromStrings(t *testing.T) {
	policy := loanledger.DefaultFinePolicy()
	today := time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)

	fine, err := policy.FineFromStrings("2024-01-01", "2024-01-21", today)
	require.NoError(t, err)
	assert.Equal(t, "6.00", fine.StringFixed(2))

	fine, err = policy.FineFromStrings("2024-01-01", "", today)
	require.NoError(t, err)
	assert.Equal(t, "16.00", fine.StringFixed(2), "an empty reference date means today")

	_, err = policy.FineFromStrings("01/01/2024", "2024-01-21", today)
	assert.ErrorIs(t, err, loanledger.ErrInvalidDate)
	assert.ErrorIs(t, err, loanledger.ErrInvalidInput)

	_, err = policy.FineFromStrings("2024-01-01", "2024-02-30", today)
	assert.ErrorIs(t, err, loanledger.ErrInvalidDate)
}

func Test_ComputeFine_UsesDefaultPolicy(t *testing.T) {
	borrowDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "RM 6.00", loanledger.FormatRM(loanledger.ComputeFine(borrowDate, borrowDate.AddDate(0, 0, 20))))
}

func Test_DaysBetween(t *testing.T) {
	from := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 1, loanledger.DaysBetween(from, to))
	assert.Equal(t, -1, loanledger.DaysBetween(to, from))
	assert.Equal(t, 0, loanledger.DaysBetween(from, from))
}

func Test_DaysBetween_SpansLongerThanADuration(t *testing.T) {
	testCases := []struct {
		name string
		from time.Time
		to   time.Time
		days int
	}{
		{
			name: "three centuries",
			from: time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			days: 118338,
		},
		{
			name: "whole calendar range",
			from: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
			to:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
			days: 3652058,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.days, loanledger.DaysBetween(tc.from, tc.to))
			assert.Equal(t, -tc.days, loanledger.DaysBetween(tc.to, tc.from))
		})
	}
}

func Test_ComputeFine_OverCenturies(t *testing.T) {
	fine := loanledger.ComputeFine(
		time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	)

	assert.Equal(t, "118324.00", fine.StringFixed(2))
}

func Test_ParseAmount(t *testing.T) {
	amount, err := loanledger.ParseAmount(" 7.505 ")
	require.NoError(t, err)
	assert.Equal(t, "7.51", amount.StringFixed(2))

	_, err = loanledger.ParseAmount("-1")
	assert.ErrorIs(t, err, loanledger.ErrNegativeAmount)

	_, err = loanledger.ParseAmount("seven")
	assert.ErrorIs(t, err, loanledger.ErrInvalidInput)

	largest, err := loanledger.ParseAmount("99999999.99")
	require.NoError(t, err)
	assert.True(t, largest.Equal(loanledger.MaxAmount))

	_, err = loanledger.ParseAmount("100000000.00")
	assert.ErrorIs(t, err, loanledger.ErrAmountTooLarge)
	assert.ErrorIs(t, err, loanledger.ErrInvalidInput)

	_, err = loanledger.ParseAmount("99999999.995")
	assert.ErrorIs(t, err, loanledger.ErrAmountTooLarge, "the bound applies after rounding")
}
