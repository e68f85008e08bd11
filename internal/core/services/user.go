package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driven"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driving"
)

// Ensure UserService implements the interface.
var _ driving.UserService = (*UserService)(nil)

const userColumns = "id, username, password, login_status, invoice_number"

// UserService manages users on top of the generic store.
type UserService struct {
	store driven.Store
}

// NewUserService creates a new user service.
func NewUserService(store driven.Store) *UserService {
	return &UserService{store: store}
}

// Register creates a new user.
func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	user := domain.User{Username: username, Password: password}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	id, err := s.store.SaveRecord(ctx, "users", map[string]any{
		"username":       user.Username,
		"password":       user.Password,
		"login_status":   user.LoggedIn,
		"invoice_number": user.InvoiceNumber,
	})
	if err != nil {
		var se *domain.StatementError
		if errors.As(err, &se) && se.Constraint() {
			return nil, fmt.Errorf("%w: user %q", domain.ErrAlreadyExists, username)
		}
		return nil, fmt.Errorf("registering user: %w", err)
	}
	user.ID = id
	return &user, nil
}

// Authenticate returns the user matching both username and password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	rows, err := s.store.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? AND password = ?",
		username, password)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrInvalidCredentials
	}
	return userFromRow(rows[0])
}

// SetLoggedIn records the login state of a user.
func (s *UserService) SetLoggedIn(ctx context.Context, username string, loggedIn bool) error {
	n, err := s.store.Update(ctx,
		"UPDATE users SET login_status = ? WHERE username = ?", loggedIn, username)
	if err != nil {
		return fmt.Errorf("updating login status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	return nil
}

// Get returns a user by username.
func (s *UserService) Get(ctx context.Context, username string) (*domain.User, error) {
	rows, err := s.store.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	return userFromRow(rows[0])
}

func userFromRow(row domain.Row) (*domain.User, error) {
	id, err := row.Int64("id")
	if err != nil {
		return nil, err
	}
	loggedIn, err := row.Bool("login_status")
	if err != nil {
		return nil, err
	}
	number, err := row.Int64("invoice_number")
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:            id,
		Username:      row.String("username"),
		Password:      row.String("password"),
		LoggedIn:      loggedIn,
		InvoiceNumber: number,
	}, nil
}
