package driven

import (
	"context"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
)

// Executor runs opaque statements against the store.
// Values must be passed as bound parameters, never concatenated into the
// statement. Engine rejections are returned as *domain.StatementError.
type Executor interface {
	// Query returns the matching rows. The result is empty, never nil, when
	// nothing matches.
	Query(ctx context.Context, stmt string, args ...any) ([]domain.Row, error)

	// Insert returns the id of the inserted row, or -1 if no row was inserted.
	Insert(ctx context.Context, stmt string, args ...any) (int64, error)

	// Update returns the number of affected rows.
	Update(ctx context.Context, stmt string, args ...any) (int64, error)

	// Delete returns the number of affected rows.
	Delete(ctx context.Context, stmt string, args ...any) (int64, error)

	// SaveRecord inserts fields into table and returns the new row id.
	SaveRecord(ctx context.Context, table string, fields map[string]any) (int64, error)
}

// Store is an Executor that can also run a group of statements as one
// atomic unit.
type Store interface {
	Executor

	// WithTx runs fn inside a transaction. The transaction commits if fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Executor) error) error
}

// SequenceAllocator issues strictly increasing numbers per owner.
type SequenceAllocator interface {
	// Next allocates the next number for owner in its own atomic unit.
	Next(ctx context.Context, owner string) (int64, error)

	// NextWith allocates the next number inside a transaction the caller
	// already holds, so the number commits or rolls back with it.
	NextWith(ctx context.Context, tx Executor, owner string) (int64, error)
}

// StoreLifecycle exposes maintenance operations on the store file.
type StoreLifecycle interface {
	// Status reports the recorded schema version and per-table row counts.
	Status(ctx context.Context) (*domain.SchemaStatus, error)

	// Reset deletes the store file and recreates it at the latest version.
	Reset(ctx context.Context) error
}
