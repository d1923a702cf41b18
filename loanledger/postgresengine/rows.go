package postgresengine

import (
	"database/sql"

	"github.com/AntonStoeckl/loan-ledger-go/loanledger"
	"github.com/AntonStoeckl/loan-ledger-go/loanledger/postgresengine/internal/adapters"
)

// The scan functions read the columns in the order of the matching *Columns slice.

func scanPatron(rows adapters.DBRows) (loanledger.Patron, error) {
	var patron loanledger.Patron
	var role string

	if err := rows.Scan(&patron.PatronID, &patron.Name, &role, &patron.Email, &patron.Active); err != nil {
		return loanledger.Patron{}, err
	}

	patron.Role = loanledger.PatronRole(role)

	return patron, nil
}

func scanBook(rows adapters.DBRows) (loanledger.Book, error) {
	var book loanledger.Book
	var kind string

	err := rows.Scan(
		&book.BookID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.PublishedYear,
		&book.Genre,
		&kind,
		&book.CallNumber,
		&book.ShelfLocation,
		&book.Available,
	)
	if err != nil {
		return loanledger.Book{}, err
	}

	if book.Kind, err = loanledger.ParseBookKind(kind); err != nil {
		return loanledger.Book{}, err
	}

	return book, nil
}

func scanLoan(rows adapters.DBRows) (loanledger.Loan, error) {
	var loan loanledger.Loan
	var returnDate sql.NullTime
	var itemKind string

	err := rows.Scan(
		&loan.LoanID,
		&loan.PatronID,
		&loan.BookID,
		&loan.BorrowDate,
		&returnDate,
		&loan.Fine,
		&itemKind,
	)
	if err != nil {
		return loanledger.Loan{}, err
	}

	loan.BorrowDate = loanledger.ToCalendarDate(loan.BorrowDate)
	loan.ItemKind = loanledger.BookKind(itemKind)

	if returnDate.Valid {
		returned := loanledger.ToCalendarDate(returnDate.Time)
		loan.ReturnDate = &returned
	}

	return loan, nil
}

func scanPayment(rows adapters.DBRows) (loanledger.Payment, error) {
	var payment loanledger.Payment

	err := rows.Scan(&payment.PaymentID, &payment.PatronID, &payment.Amount, &payment.PaymentDate, &payment.Purpose)
	if err != nil {
		return loanledger.Payment{}, err
	}

	payment.PaymentDate = loanledger.ToCalendarDate(payment.PaymentDate)

	return payment, nil
}

func scanJournalEntry(rows adapters.DBRows) (loanledger.JournalEntry, error) {
	var entry loanledger.JournalEntry
	var sequenceNumber int64

	err := rows.Scan(&sequenceNumber, &entry.EntryType, &entry.OccurredAt, &entry.PatronID, &entry.BookID, &entry.PayloadJSON)
	if err != nil {
		return loanledger.JournalEntry{}, err
	}

	entry.SequenceNumber = uint(sequenceNumber)
	entry.OccurredAt = entry.OccurredAt.UTC()

	return entry, nil
}
