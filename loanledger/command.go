package loanledger

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const validatorTagDatetime = "datetime"

var validate = validator.New(validator.WithRequiredStructEnabled())

// BorrowCommand represents the intent of a patron to borrow a book.
// An empty BorrowDate means today.
type BorrowCommand struct {
	PatronID   int64  `validate:"gt=0"`
	BookID     int64  `validate:"gt=0"`
	BorrowDate string `validate:"omitempty,datetime=2006-01-02"`
}

// BuildBorrowCommand creates a new BorrowCommand with the provided parameters.
func BuildBorrowCommand(patronID int64, bookID int64, borrowDate string) BorrowCommand {
	return BorrowCommand{
		PatronID:   patronID,
		BookID:     bookID,
		BorrowDate: borrowDate,
	}
}

// ReturnCommand represents the intent to close an open loan.
// An empty ReturnDate means today.
type ReturnCommand struct {
	LoanID     uuid.UUID `validate:"required"`
	ReturnDate string    `validate:"omitempty,datetime=2006-01-02"`
}

// BuildReturnCommand creates a new ReturnCommand with the provided parameters.
func BuildReturnCommand(loanID uuid.UUID, returnDate string) ReturnCommand {
	return ReturnCommand{
		LoanID:     loanID,
		ReturnDate: returnDate,
	}
}

// RecordPaymentCommand represents money received from a patron.
// Amount is a decimal string like "7.50"; an empty PaymentDate means today.
type RecordPaymentCommand struct {
	PatronID    int64  `validate:"gt=0"`
	Amount      string `validate:"required"`
	PaymentDate string `validate:"omitempty,datetime=2006-01-02"`
	Purpose     string `validate:"max=200"`
}

// BuildRecordPaymentCommand creates a new RecordPaymentCommand with the provided parameters.
func BuildRecordPaymentCommand(patronID int64, amount string, paymentDate string, purpose string) RecordPaymentCommand {
	return RecordPaymentCommand{
		PatronID:    patronID,
		Amount:      amount,
		PaymentDate: paymentDate,
		Purpose:     purpose,
	}
}

// AddBookCommand carries a new catalogue item.
type AddBookCommand struct {
	BookID        int64  `validate:"gt=0"`
	Title         string `validate:"required"`
	Author        string `validate:"required"`
	ISBN          string `validate:"required"`
	PublishedYear int    `validate:"gte=0"`
	Genre         string `validate:"required"`
	Kind          string `validate:"oneof=Physical E-book Audiobook Reference"`
	CallNumber    string
	ShelfLocation string
}

// RegisterPatronCommand carries a new patron.
type RegisterPatronCommand struct {
	PatronID int64  `validate:"gt=0"`
	Name     string `validate:"required"`
	Role     string `validate:"oneof=Admin Librarian Student Guest Bank"`
	Email    string `validate:"required,email"`
}

// validateCommand runs the struct tags of cmd. Date format violations are reported as ErrInvalidDate,
// everything else as ErrInvalidCommand; both are InvalidInput.
func validateCommand(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			if fieldErr.Tag() == validatorTagDatetime {
				return errors.Join(ErrInvalidDate, err)
			}
		}
	}

	return errors.Join(ErrInvalidCommand, err)
}
