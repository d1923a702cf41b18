package loanledger

import (
	"errors"
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	LoanOpenedEntryType      = "LoanOpened"
	LoanClosedEntryType      = "LoanClosed"
	LoanAdjustedEntryType    = "LoanAdjusted"
	PaymentRecordedEntryType = "PaymentRecorded"
)

var (
	// ErrInvalidPayloadJSON is returned when a journal payload is not valid JSON.
	ErrInvalidPayloadJSON = errors.New("payload json is not valid")

	// ErrEmptyEntryType is returned when a journal entry is built without a type.
	ErrEmptyEntryType = errors.New("journal entry type must not be empty")

	// ErrMarshalingPayloadFailed is returned when a payload cannot be encoded.
	ErrMarshalingPayloadFailed = errors.New("marshaling journal payload failed")

	// ErrUnmarshalingPayloadFailed is returned when a payload cannot be decoded.
	ErrUnmarshalingPayloadFailed = errors.New("unmarshaling journal payload failed")
)

// JournalEntry records one state change made by the Ledger.
// Entries are appended in the same transaction as the change they describe.
//
// While its properties are exported, it should only be constructed with BuildJournalEntry.
type JournalEntry struct {
	SequenceNumber uint
	EntryType      string
	OccurredAt     time.Time
	PatronID       int64
	BookID         int64
	PayloadJSON    []byte
}

// BuildJournalEntry is a factory method for JournalEntry. The payload is encoded as JSON.
// BookID is 0 for entries that do not concern a book.
func BuildJournalEntry(entryType string, occurredAt time.Time, patronID int64, bookID int64, payload any) (JournalEntry, error) {
	if entryType == "" {
		return JournalEntry{}, ErrEmptyEntryType
	}

	payloadJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(payload)
	if err != nil {
		return JournalEntry{}, errors.Join(ErrMarshalingPayloadFailed, err)
	}

	return JournalEntry{
		EntryType:   entryType,
		OccurredAt:  occurredAt.UTC().Truncate(time.Microsecond),
		PatronID:    patronID,
		BookID:      bookID,
		PayloadJSON: payloadJSON,
	}, nil
}

// DecodePayload decodes the entry's payload into T.
func DecodePayload[T any](entry JournalEntry) (T, error) {
	var payload T

	if !jsoniter.ConfigFastest.Valid(entry.PayloadJSON) {
		return payload, ErrInvalidPayloadJSON
	}

	if err := jsoniter.ConfigFastest.Unmarshal(entry.PayloadJSON, &payload); err != nil {
		return payload, errors.Join(ErrUnmarshalingPayloadFailed, err)
	}

	return payload, nil
}

// LoanOpenedPayload is the payload of a LoanOpened entry.
type LoanOpenedPayload struct {
	LoanID     string
	PatronID   int64
	BookID     int64
	ItemKind   string
	BorrowDate string
}

// LoanClosedPayload is the payload of a LoanClosed entry.
type LoanClosedPayload struct {
	LoanID      string
	PatronID    int64
	BookID      int64
	ItemKind    string
	BorrowDate  string
	ReturnDate  string
	OverdueDays int
	Fine        string
}

// LoanAdjustedPayload is the payload of a LoanAdjusted entry. Only changed fields are set.
type LoanAdjustedPayload struct {
	LoanID     string
	Fine       string `json:",omitempty"`
	BorrowDate string `json:",omitempty"`
}

// PaymentRecordedPayload is the payload of a PaymentRecorded entry.
type PaymentRecordedPayload struct {
	PaymentID   string
	PatronID    int64
	Amount      string
	PaymentDate string
	Purpose     string
}

// JournalFilter selects journal entries. Zero values match everything.
type JournalFilter struct {
	entryTypes []string
	patronID   int64
	bookID     int64
}

// BuildJournalFilter creates a filter for the given patron (0 = any patron).
func BuildJournalFilter(patronID int64) JournalFilter {
	return JournalFilter{patronID: patronID}
}

// OfTypes restricts the filter to the given entry types.
//
// It sanitizes the input:
//   - removing empty entry types ("")
//   - sorting the entry types
//   - removing duplicate entry types
func (f JournalFilter) OfTypes(entryTypes ...string) JournalFilter {
	sanitized := slices.DeleteFunc(slices.Clone(entryTypes), func(t string) bool { return t == "" })
	slices.Sort(sanitized)
	f.entryTypes = slices.Compact(sanitized)

	return f
}

// ForBook restricts the filter to one book.
func (f JournalFilter) ForBook(bookID int64) JournalFilter {
	f.bookID = bookID

	return f
}

func (f JournalFilter) EntryTypes() []string {
	return f.entryTypes
}

func (f JournalFilter) PatronID() int64 {
	return f.patronID
}

func (f JournalFilter) BookID() int64 {
	return f.bookID
}

// Matches reports whether entry satisfies the filter.
func (f JournalFilter) Matches(entry JournalEntry) bool {
	if len(f.entryTypes) > 0 && !slices.Contains(f.entryTypes, entry.EntryType) {
		return false
	}

	if f.patronID != 0 && entry.PatronID != f.patronID {
		return false
	}

	if f.bookID != 0 && entry.BookID != f.bookID {
		return false
	}

	return true
}
