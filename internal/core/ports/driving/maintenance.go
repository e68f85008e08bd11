package driving

import (
	"context"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
)

// MaintenanceService operates on the store as a whole.
type MaintenanceService interface {
	// Status opens the store, migrating it if needed, and reports its
	// schema version and row counts.
	Status(ctx context.Context) (*domain.SchemaStatus, error)

	// Reset destroys the store and recreates it empty at the latest version.
	Reset(ctx context.Context) error
}
