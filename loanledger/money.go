package loanledger

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyUnit is the denomination fines and payments are expressed in.
const CurrencyUnit = "RM"

const moneyScale = 2

// MaxAmount is the largest fine or payment the Ledger stores.
var MaxAmount = decimal.RequireFromString("99999999.99")

// RoundMoney rounds an amount to the two decimal places the Ledger works with.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(moneyScale)
}

// FormatRM renders an amount like "RM 6.00".
func FormatRM(amount decimal.Decimal) string {
	return CurrencyUnit + " " + amount.StringFixed(moneyScale)
}

// ParseAmount parses a non-negative decimal amount of at most MaxAmount, e.g. "7.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.Join(ErrInvalidInput, err)
	}

	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}

	amount = RoundMoney(amount)
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrAmountTooLarge
	}

	return amount, nil
}
