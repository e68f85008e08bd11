package domain

import "strings"

// User is an account of the point-of-sale application.
// Products and invoices belong to a user via Username.
type User struct {
	// ID is the row identifier assigned by the store.
	ID int64

	// Username is unique across all users.
	Username string

	// Password is stored as provided; hashing is the caller's concern.
	Password string

	// LoggedIn reports whether the user is currently signed in.
	LoggedIn bool

	// InvoiceNumber is the last invoice number issued to this user.
	InvoiceNumber int64
}

// Validate checks the fields required to persist a user.
func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" || u.Password == "" {
		return ErrInvalidInput
	}
	return nil
}
