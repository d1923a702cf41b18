package loanledger

// PatronRole is the role a patron logs in with.
type PatronRole string

const (
	RoleAdmin     PatronRole = "Admin"
	RoleLibrarian PatronRole = "Librarian"
	RoleStudent   PatronRole = "Student"
	RoleGuest     PatronRole = "Guest"
	RoleBank      PatronRole = "Bank"
)

// ParsePatronRole maps a stored or user-supplied role to a PatronRole.
func ParsePatronRole(s string) (PatronRole, error) {
	switch role := PatronRole(s); role {
	case RoleAdmin, RoleLibrarian, RoleStudent, RoleGuest, RoleBank:
		return role, nil
	default:
		return "", ErrInvalidRole
	}
}

// Patron is a registered library user. The Ledger only checks that patrons exist.
type Patron struct {
	PatronID int64
	Name     string
	Role     PatronRole
	Email    string
	Active   bool
}
