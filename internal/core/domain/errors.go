package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials indicates a username and password that do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Store Errors.

	// ErrStoreUnavailable indicates the database file cannot be opened or created.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSchemaDowngrade indicates the requested schema version is below the recorded one.
	ErrSchemaDowngrade = errors.New("schema downgrade not supported")

	// ErrMigrationFailed indicates a migration step could not be applied.
	// The store stays at its last recorded version.
	ErrMigrationFailed = errors.New("migration failed")

	// ErrStatement indicates the engine rejected a delegated statement.
	ErrStatement = errors.New("statement rejected")

	// Sequence Errors.

	// ErrUnknownOwner indicates a sequence was requested for an owner with no row.
	ErrUnknownOwner = errors.New("unknown sequence owner")

	// ErrAllocationConflict indicates the counter write did not affect exactly one row.
	ErrAllocationConflict = errors.New("sequence allocation conflict")
)

// DowngradeError reports an attempt to open a store at a version below the
// one it records.
type DowngradeError struct {
	Recorded int
	Target   int
}

func (e *DowngradeError) Error() string {
	return fmt.Sprintf("%s: store is at version %d, target is %d", ErrSchemaDowngrade, e.Recorded, e.Target)
}

// Is matches ErrSchemaDowngrade.
func (e *DowngradeError) Is(target error) bool {
	return target == ErrSchemaDowngrade
}

// MigrationError reports a failed migration step.
type MigrationError struct {
	From int
	To   int
	Step string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("%s: v%d->v%d (%s): %v", ErrMigrationFailed, e.From, e.To, e.Step, e.Err)
}

// Is matches ErrMigrationFailed.
func (e *MigrationError) Is(target error) bool {
	return target == ErrMigrationFailed
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// StatementError wraps an engine rejection of a delegated statement.
// Code is the engine's extended result code, or 0 if unknown.
type StatementError struct {
	Op        string
	Statement string
	Code      int
	Err       error
}

// Primary result codes of the embedded engine that StatementError inspects.
const (
	codeConstraint = 19
)

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStatement, e.Err)
}

// Is matches ErrStatement.
func (e *StatementError) Is(target error) bool {
	return target == ErrStatement
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Constraint reports whether the statement broke a unique, not-null,
// check or foreign-key constraint.
func (e *StatementError) Constraint() bool {
	return e.Code&0xff == codeConstraint
}
