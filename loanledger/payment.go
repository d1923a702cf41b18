package loanledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is money received from a patron. It is an independent record;
// the Ledger never reconciles payments against fines.
type Payment struct {
	PaymentID   uuid.UUID
	PatronID    int64
	Amount      decimal.Decimal
	PaymentDate CalendarDate
	Purpose     string
}

// PaymentSummary aggregates all recorded payments.
type PaymentSummary struct {
	Count   int
	Total   decimal.Decimal
	Average decimal.Decimal
}

// BuildPaymentSummary derives the average from count and total.
func BuildPaymentSummary(count int, total decimal.Decimal) PaymentSummary {
	summary := PaymentSummary{
		Count:   count,
		Total:   RoundMoney(total),
		Average: decimal.Zero,
	}

	if count > 0 {
		summary.Average = RoundMoney(total.Div(decimal.NewFromInt(int64(count))))
	}

	return summary
}
