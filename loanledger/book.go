package loanledger

// BookKind is the format of a catalogue item.
type BookKind string

const (
	KindPhysical  BookKind = "Physical"
	KindEBook     BookKind = "E-book"
	KindAudiobook BookKind = "Audiobook"
	KindReference BookKind = "Reference"
)

// ParseBookKind maps a stored or user-supplied kind to a BookKind.
func ParseBookKind(s string) (BookKind, error) {
	switch kind := BookKind(s); kind {
	case KindPhysical, KindEBook, KindAudiobook, KindReference:
		return kind, nil
	default:
		return "", ErrInvalidBookKind
	}
}

// IsExclusive reports whether borrowing an item of this kind takes it off the shelf.
// Only Physical copies are exclusive; digital and audio copies can be lent any number of times.
func (k BookKind) IsExclusive() bool {
	return k == KindPhysical
}

// Book is a catalogue item. Available only carries meaning for Physical books.
type Book struct {
	BookID        int64
	Title         string
	Author        string
	ISBN          string
	PublishedYear int
	Genre         string
	Kind          BookKind
	CallNumber    string
	ShelfLocation string
	Available     bool
}

// CanBeBorrowed reports whether a new loan may be opened for this book.
func (b Book) CanBeBorrowed() bool {
	return !b.Kind.IsExclusive() || b.Available
}

// BookPatch lists the catalogue fields an update may change. Nil fields stay untouched.
// Availability is not part of it: only Borrow and ReturnLoan change it.
type BookPatch struct {
	Title         *string
	Author        *string
	Genre         *string
	Kind          *BookKind
	CallNumber    *string
	ShelfLocation *string
}

// IsEmpty reports whether the patch changes nothing.
func (p BookPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Author == nil &&
		p.Genre == nil &&
		p.Kind == nil &&
		p.CallNumber == nil &&
		p.ShelfLocation == nil
}

// ApplyTo returns a copy of b with the patch applied.
func (p BookPatch) ApplyTo(b Book) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}

	if p.Author != nil {
		b.Author = *p.Author
	}

	if p.Genre != nil {
		b.Genre = *p.Genre
	}

	if p.Kind != nil {
		b.Kind = *p.Kind
	}

	if p.CallNumber != nil {
		b.CallNumber = *p.CallNumber
	}

	if p.ShelfLocation != nil {
		b.ShelfLocation = *p.ShelfLocation
	}

	return b
}
