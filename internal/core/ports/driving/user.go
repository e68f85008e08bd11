package driving

import (
	"context"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
)

// UserService manages application accounts.
type UserService interface {
	// Register creates a user with an empty invoice counter.
	// Returns domain.ErrAlreadyExists if the username is taken.
	Register(ctx context.Context, username, password string) (*domain.User, error)

	// Authenticate returns the user whose username and password both match.
	// Returns domain.ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// SetLoggedIn records whether the user is signed in.
	SetLoggedIn(ctx context.Context, username string, loggedIn bool) error

	// Get returns a user by username.
	Get(ctx context.Context, username string) (*domain.User, error)
}
