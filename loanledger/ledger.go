package loanledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger owns the rules for borrowing, returning, and fine accrual.
// It holds no state beyond its injected dependencies; all data lives in the Store.
type Ledger struct {
	store            Store
	finePolicy       FinePolicy
	clock            func() time.Time
	newID            func() (uuid.UUID, error)
	retryOptions     []RetryOption
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
}

// Option defines a functional option for configuring a Ledger.
type Option func(*Ledger) error

// WithFinePolicy replaces the DefaultFinePolicy.
func WithFinePolicy(policy FinePolicy) Option {
	return func(l *Ledger) error {
		validated, err := BuildFinePolicy(policy.GracePeriodDays, policy.DailyRate)
		if err != nil {
			return err
		}

		l.finePolicy = validated

		return nil
	}
}

// WithClock sets the source of "today" used when a command carries no date.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) error {
		l.clock = clock
		return nil
	}
}

// WithRetryOptions sets a custom retry configuration for concurrency conflicts.
func WithRetryOptions(opts ...RetryOption) Option {
	return func(l *Ledger) error {
		l.retryOptions = opts
		return nil
	}
}

// WithLogger sets the logger for the Ledger.
//
// Info level: completed operations with loan ids, fines and durations
// Warn level: operations rejected by a business rule
// Error level: storage failures.
func WithLogger(logger Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Ledger.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(l *Ledger) error {
		l.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Ledger.
func WithMetrics(collector MetricsCollector) Option {
	return func(l *Ledger) error {
		l.metricsCollector = collector
		return nil
	}
}

// NewLedger creates a Ledger on top of the given Store.
func NewLedger(store Store, options ...Option) (Ledger, error) {
	if store == nil {
		return Ledger{}, ErrNilStore
	}

	l := Ledger{
		store:      store,
		finePolicy: DefaultFinePolicy(),
		clock:      time.Now,
		newID:      uuid.NewV7,
	}

	for _, option := range options {
		if err := option(&l); err != nil {
			return Ledger{}, err
		}
	}

	return l, nil
}

// FinePolicy returns the policy the Ledger computes fines with.
func (l Ledger) FinePolicy() FinePolicy {
	return l.finePolicy
}

func (l Ledger) today() CalendarDate {
	return ToCalendarDate(l.clock())
}

// ComputeFine returns the fine for a loan borrowed on borrowDate, measured at referenceDate.
// An empty referenceDate means today.
//
// It is fail-soft: if either date does not parse, the fine is 0.00.
// Use ComputeFineStrict to tell "no fine" apart from "bad input".
func (l Ledger) ComputeFine(borrowDate, referenceDate string) decimal.Decimal {
	fine, err := l.finePolicy.FineFromStrings(borrowDate, referenceDate, l.clock())
	if err != nil {
		l.logDebug(logMsgFineInputIgnored, logAttrError, err.Error())
		return decimal.Zero
	}

	return fine
}

// ComputeFineStrict is ComputeFine with an error channel: it returns ErrInvalidDate for unparseable input.
func (l Ledger) ComputeFineStrict(borrowDate, referenceDate string) (decimal.Decimal, error) {
	return l.finePolicy.FineFromStrings(borrowDate, referenceDate, l.clock())
}

// Borrow opens a loan for a patron and a book.
//
// Business Rules:
//
//	GIVEN: an existing patron and an existing book
//	WHEN: the patron borrows the book
//	THEN: an open loan with fine 0.00 is created; a Physical book becomes unavailable
//	ERROR: ErrPatronNotFound, ErrBookNotFound
//	ERROR: ErrBookUnavailable if the book is Physical and currently lent
//	ERROR: ErrAlreadyBorrowed if the patron already has an open loan for this book
//	ERROR: ErrInvalidDate, ErrInvalidCommand for malformed input
//
// All checks and writes happen in one transaction; on failure nothing changes.
func (l Ledger) Borrow(ctx context.Context, command BorrowCommand) (Loan, error) {
	start := time.Now()

	loan, err := l.borrow(ctx, command)

	l.observe(ctx, operationBorrow, start, err,
		logAttrPatronID, command.PatronID,
		logAttrBookID, command.BookID,
		logAttrLoanID, loan.LoanID.String(),
	)

	return loan, err
}

func (l Ledger) borrow(ctx context.Context, command BorrowCommand) (Loan, error) {
	if err := validateCommand(command); err != nil {
		return Loan{}, err
	}

	borrowDate, err := parseDateOrToday(command.BorrowDate, l.clock())
	if err != nil {
		return Loan{}, err
	}

	var loan Loan

	err = l.withinTxRetrying(ctx, func(ctx context.Context, tx Tx) error {
		var txErr error
		loan, txErr = l.openLoan(ctx, tx, command, borrowDate)

		return txErr
	})
	if err != nil {
		return Loan{}, err
	}

	return loan, nil
}

func (l Ledger) openLoan(ctx context.Context, tx Tx, command BorrowCommand, borrowDate CalendarDate) (Loan, error) {
	if _, err := tx.FindPatron(ctx, command.PatronID); err != nil {
		return Loan{}, err
	}

	book, err := tx.LockBook(ctx, command.BookID)
	if err != nil {
		return Loan{}, err
	}

	if !book.CanBeBorrowed() {
		return Loan{}, ErrBookUnavailable
	}

	_, alreadyOpen, err := tx.FindOpenLoan(ctx, command.PatronID, command.BookID)
	if err != nil {
		return Loan{}, err
	}

	if alreadyOpen {
		return Loan{}, ErrAlreadyBorrowed
	}

	loanID, err := l.newID()
	if err != nil {
		return Loan{}, err
	}

	loan := OpenLoan(loanID, command.PatronID, book, borrowDate)

	if err = tx.InsertLoan(ctx, loan); err != nil {
		return Loan{}, err
	}

	if book.Kind.IsExclusive() {
		if err = tx.MarkBookBorrowed(ctx, book.BookID); err != nil {
			return Loan{}, err
		}
	}

	entry, err := BuildJournalEntry(LoanOpenedEntryType, l.clock(), loan.PatronID, loan.BookID, LoanOpenedPayload{
		LoanID:     loan.LoanID.String(),
		PatronID:   loan.PatronID,
		BookID:     loan.BookID,
		ItemKind:   string(loan.ItemKind),
		BorrowDate: FormatDate(loan.BorrowDate),
	})
	if err != nil {
		return Loan{}, err
	}

	if err = tx.AppendJournal(ctx, entry); err != nil {
		return Loan{}, err
	}

	return loan, nil
}

// ReturnLoan closes an open loan.
//
// Business Rules:
//
//	GIVEN: an open loan
//	WHEN: the loan is returned on ReturnDate (default: today)
//	THEN: the loan is closed with fine = FinePolicy.Fine(BorrowDate, ReturnDate),
//	      overwriting any provisional fine; a Physical book becomes available again
//	ERROR: ErrLoanNotFound
//	ERROR: ErrAlreadyReturned if the loan is closed
//	ERROR: ErrInvalidDate, ErrInvalidCommand for malformed input
func (l Ledger) ReturnLoan(ctx context.Context, command ReturnCommand) (Loan, error) {
	start := time.Now()

	loan, err := l.returnLoan(ctx, command)

	l.observe(ctx, operationReturn, start, err,
		logAttrLoanID, command.LoanID.String(),
		logAttrFine, loan.Fine.StringFixed(moneyScale),
	)

	if err == nil {
		l.recordFineAssessed(ctx, loan.Fine)
	}

	return loan, err
}

func (l Ledger) returnLoan(ctx context.Context, command ReturnCommand) (Loan, error) {
	if err := validateCommand(command); err != nil {
		return Loan{}, err
	}

	returnDate, err := parseDateOrToday(command.ReturnDate, l.clock())
	if err != nil {
		return Loan{}, err
	}

	var closed Loan

	err = l.withinTxRetrying(ctx, func(ctx context.Context, tx Tx) error {
		var txErr error
		closed, txErr = l.closeLoan(ctx, tx, command.LoanID, returnDate)

		return txErr
	})
	if err != nil {
		return Loan{}, err
	}

	return closed, nil
}

func (l Ledger) closeLoan(ctx context.Context, tx Tx, loanID uuid.UUID, returnDate CalendarDate) (Loan, error) {
	loan, err := tx.LockLoan(ctx, loanID)
	if err != nil {
		return Loan{}, err
	}

	if !loan.IsOpen() {
		return Loan{}, ErrAlreadyReturned
	}

	closed := loan.Close(returnDate, l.finePolicy.Fine(loan.BorrowDate, returnDate))

	if err = tx.CloseLoan(ctx, closed); err != nil {
		return Loan{}, err
	}

	if closed.ItemKind.IsExclusive() {
		if err = tx.MarkBookReturned(ctx, closed.BookID); err != nil {
			return Loan{}, err
		}
	}

	entry, err := BuildJournalEntry(LoanClosedEntryType, l.clock(), closed.PatronID, closed.BookID, LoanClosedPayload{
		LoanID:      closed.LoanID.String(),
		PatronID:    closed.PatronID,
		BookID:      closed.BookID,
		ItemKind:    string(closed.ItemKind),
		BorrowDate:  FormatDate(closed.BorrowDate),
		ReturnDate:  FormatDate(*closed.ReturnDate),
		OverdueDays: l.finePolicy.OverdueDays(closed.BorrowDate, *closed.ReturnDate),
		Fine:        closed.Fine.StringFixed(moneyScale),
	})
	if err != nil {
		return Loan{}, err
	}

	if err = tx.AppendJournal(ctx, entry); err != nil {
		return Loan{}, err
	}

	return closed, nil
}

// OutstandingFine sums the fines of a patron's open loans that carry a fine greater than zero.
//
// Fines on open loans are provisional: they are zero unless an administrator set them.
// The authoritative fine is only known once the loan is returned.
// An unknown patron yields a zero result, not an error.
func (l Ledger) OutstandingFine(ctx context.Context, patronID int64) (OutstandingFine, error) {
	start := time.Now()

	outstanding, err := l.store.OutstandingFine(ctx, patronID)

	l.observe(ctx, operationOutstandingFine, start, err,
		logAttrPatronID, patronID,
		logAttrFine, outstanding.TotalFine.StringFixed(moneyScale),
	)

	if err != nil {
		return OutstandingFine{PatronID: patronID, TotalFine: decimal.Zero}, err
	}

	return outstanding, nil
}

// Book returns a catalogue item with its current availability.
func (l Ledger) Book(ctx context.Context, bookID int64) (Book, error) {
	return l.store.FindBook(ctx, bookID)
}

// Loan returns a loan by id.
func (l Ledger) Loan(ctx context.Context, loanID uuid.UUID) (Loan, error) {
	return l.store.FindLoan(ctx, loanID)
}

// EstimateFine returns what a loan would cost if it were returned today.
// For a closed loan it returns the final fine.
func (l Ledger) EstimateFine(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error) {
	start := time.Now()

	loan, err := l.store.FindLoan(ctx, loanID)

	l.observe(ctx, operationEstimateFine, start, err, logAttrLoanID, loanID.String())

	if err != nil {
		return decimal.Zero, err
	}

	if !loan.IsOpen() {
		return loan.Fine, nil
	}

	return l.finePolicy.Fine(loan.BorrowDate, l.today()), nil
}

// AdjustLoan is an administrative override of a loan's stored fine and/or borrow date.
// It never reopens a closed loan and never touches book availability.
func (l Ledger) AdjustLoan(ctx context.Context, loanID uuid.UUID, patch LoanPatch) (Loan, error) {
	start := time.Now()

	loan, err := l.adjustLoan(ctx, loanID, patch)

	l.observe(ctx, operationAdjustLoan, start, err, logAttrLoanID, loanID.String())

	return loan, err
}

func (l Ledger) adjustLoan(ctx context.Context, loanID uuid.UUID, patch LoanPatch) (Loan, error) {
	if patch.IsEmpty() {
		return Loan{}, ErrEmptyPatch
	}

	if patch.Fine != nil {
		if patch.Fine.IsNegative() {
			return Loan{}, ErrNegativeAmount
		}

		if RoundMoney(*patch.Fine).GreaterThan(MaxAmount) {
			return Loan{}, ErrAmountTooLarge
		}
	}

	var adjusted Loan

	err := l.withinTxRetrying(ctx, func(ctx context.Context, tx Tx) error {
		loan, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}

		adjusted = patch.ApplyTo(loan)

		if err = tx.UpdateLoan(ctx, loanID, patch); err != nil {
			return err
		}

		payload := LoanAdjustedPayload{LoanID: loanID.String()}
		if patch.Fine != nil {
			payload.Fine = adjusted.Fine.StringFixed(moneyScale)
		}

		if patch.BorrowDate != nil {
			payload.BorrowDate = FormatDate(adjusted.BorrowDate)
		}

		entry, err := BuildJournalEntry(LoanAdjustedEntryType, l.clock(), adjusted.PatronID, adjusted.BookID, payload)
		if err != nil {
			return err
		}

		return tx.AppendJournal(ctx, entry)
	})
	if err != nil {
		return Loan{}, err
	}

	return adjusted, nil
}

// PatronsWithOutstandingFines lists every patron with a fine on an open loan, largest total first.
func (l Ledger) PatronsWithOutstandingFines(ctx context.Context) ([]PatronFine, error) {
	start := time.Now()

	report, err := l.store.PatronsWithOutstandingFines(ctx)

	l.observe(ctx, operationFinesReport, start, err, logAttrCount, len(report))

	return report, err
}

// LoansOf lists a patron's loans, newest borrow date first.
func (l Ledger) LoansOf(ctx context.Context, patronID int64, selection LoanSelection) ([]Loan, error) {
	start := time.Now()

	loans, err := l.store.LoansOf(ctx, patronID, selection)

	l.observe(ctx, operationLoansOf, start, err, logAttrPatronID, patronID, logAttrCount, len(loans))

	return loans, err
}

// RecordPayment stores money received from a patron. It does not settle any fine.
func (l Ledger) RecordPayment(ctx context.Context, command RecordPaymentCommand) (Payment, error) {
	start := time.Now()

	payment, err := l.recordPayment(ctx, command)

	l.observe(ctx, operationRecordPayment, start, err,
		logAttrPatronID, command.PatronID,
		logAttrAmount, payment.Amount.StringFixed(moneyScale),
	)

	return payment, err
}

func (l Ledger) recordPayment(ctx context.Context, command RecordPaymentCommand) (Payment, error) {
	if err := validateCommand(command); err != nil {
		return Payment{}, err
	}

	amount, err := ParseAmount(command.Amount)
	if err != nil {
		return Payment{}, err
	}

	if amount.IsZero() {
		return Payment{}, ErrZeroAmount
	}

	paymentDate, err := parseDateOrToday(command.PaymentDate, l.clock())
	if err != nil {
		return Payment{}, err
	}

	paymentID, err := l.newID()
	if err != nil {
		return Payment{}, err
	}

	payment := Payment{
		PaymentID:   paymentID,
		PatronID:    command.PatronID,
		Amount:      amount,
		PaymentDate: paymentDate,
		Purpose:     command.Purpose,
	}

	err = l.withinTxRetrying(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.FindPatron(ctx, payment.PatronID); err != nil {
			return err
		}

		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		entry, err := BuildJournalEntry(PaymentRecordedEntryType, l.clock(), payment.PatronID, 0, PaymentRecordedPayload{
			PaymentID:   payment.PaymentID.String(),
			PatronID:    payment.PatronID,
			Amount:      payment.Amount.StringFixed(moneyScale),
			PaymentDate: FormatDate(payment.PaymentDate),
			Purpose:     payment.Purpose,
		})
		if err != nil {
			return err
		}

		return tx.AppendJournal(ctx, entry)
	})
	if err != nil {
		return Payment{}, err
	}

	return payment, nil
}

// PaymentsOf lists a patron's payments, newest first.
func (l Ledger) PaymentsOf(ctx context.Context, patronID int64) ([]Payment, error) {
	start := time.Now()

	payments, err := l.store.PaymentsOf(ctx, patronID)

	l.observe(ctx, operationPaymentsOf, start, err, logAttrPatronID, patronID, logAttrCount, len(payments))

	return payments, err
}

// PaymentSummary returns count, total and average of all payments.
func (l Ledger) PaymentSummary(ctx context.Context) (PaymentSummary, error) {
	start := time.Now()

	summary, err := l.store.PaymentSummary(ctx)

	l.observe(ctx, operationPaymentSummary, start, err, logAttrCount, summary.Count)

	return summary, err
}

// History returns the journal entries matching filter in the order they were appended.
func (l Ledger) History(ctx context.Context, filter JournalFilter) ([]JournalEntry, error) {
	start := time.Now()

	entries, err := l.store.Journal(ctx, filter)

	l.observe(ctx, operationHistory, start, err, logAttrPatronID, filter.PatronID(), logAttrCount, len(entries))

	return entries, err
}

// RegisterPatron adds a patron, or replaces the one with the same id.
func (l Ledger) RegisterPatron(ctx context.Context, command RegisterPatronCommand) (Patron, error) {
	start := time.Now()

	patron, err := l.registerPatron(ctx, command)

	l.observe(ctx, operationRegisterPatron, start, err, logAttrPatronID, command.PatronID)

	return patron, err
}

func (l Ledger) registerPatron(ctx context.Context, command RegisterPatronCommand) (Patron, error) {
	if err := validateCommand(command); err != nil {
		return Patron{}, err
	}

	role, err := ParsePatronRole(command.Role)
	if err != nil {
		return Patron{}, err
	}

	patron := Patron{
		PatronID: command.PatronID,
		Name:     command.Name,
		Role:     role,
		Email:    command.Email,
		Active:   true,
	}

	err = l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.SavePatron(ctx, patron)
	})
	if err != nil {
		return Patron{}, err
	}

	return patron, nil
}

// AddBook adds a catalogue item, or replaces the catalogue data of the one with the same id.
// New books are available; a replaced book keeps its availability.
func (l Ledger) AddBook(ctx context.Context, command AddBookCommand) (Book, error) {
	start := time.Now()

	book, err := l.addBook(ctx, command)

	l.observe(ctx, operationAddBook, start, err, logAttrBookID, command.BookID)

	return book, err
}

func (l Ledger) addBook(ctx context.Context, command AddBookCommand) (Book, error) {
	if err := validateCommand(command); err != nil {
		return Book{}, err
	}

	kind, err := ParseBookKind(command.Kind)
	if err != nil {
		return Book{}, err
	}

	book := Book{
		BookID:        command.BookID,
		Title:         command.Title,
		Author:        command.Author,
		ISBN:          command.ISBN,
		PublishedYear: command.PublishedYear,
		Genre:         command.Genre,
		Kind:          kind,
		CallNumber:    command.CallNumber,
		ShelfLocation: command.ShelfLocation,
		Available:     true,
	}

	var saved Book

	err = l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.SaveBook(ctx, book); err != nil {
			return err
		}

		var txErr error
		saved, txErr = tx.LockBook(ctx, book.BookID)

		return txErr
	})
	if err != nil {
		return Book{}, err
	}

	return saved, nil
}

// UpdateBook applies a catalogue patch to an existing book in a single statement.
func (l Ledger) UpdateBook(ctx context.Context, bookID int64, patch BookPatch) (Book, error) {
	start := time.Now()

	book, err := l.updateBook(ctx, bookID, patch)

	l.observe(ctx, operationUpdateBook, start, err, logAttrBookID, bookID)

	return book, err
}

func (l Ledger) updateBook(ctx context.Context, bookID int64, patch BookPatch) (Book, error) {
	if patch.IsEmpty() {
		return Book{}, ErrEmptyPatch
	}

	if patch.Kind != nil {
		if _, err := ParseBookKind(string(*patch.Kind)); err != nil {
			return Book{}, err
		}
	}

	var updated Book

	err := l.withinTxRetrying(ctx, func(ctx context.Context, tx Tx) error {
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return err
		}

		if patch.Kind != nil && *patch.Kind != book.Kind {
			onLoan, err := tx.HasOpenLoans(ctx, bookID)
			if err != nil {
				return err
			}

			if onLoan {
				return ErrBookOnLoan
			}
		}

		updated = patch.ApplyTo(book)

		return tx.UpdateBook(ctx, bookID, patch)
	})
	if err != nil {
		return Book{}, err
	}

	return updated, nil
}

// withinTxRetrying runs fn in a Store transaction and retries it on ErrConcurrencyConflict.
func (l Ledger) withinTxRetrying(ctx context.Context, fn TxFunc) error {
	retryMetrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return l.store.WithinTx(retryCtx, fn)
	}, l.retryOptions...)

	l.recordRetries(ctx, retryMetrics)

	return err
}
