package driving

import (
	"context"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
)

// InvoiceService issues and lists invoices.
type InvoiceService interface {
	// NextNumber allocates the next invoice number of a user.
	NextNumber(ctx context.Context, username string) (int64, error)

	// Create allocates the invoice number and stores the invoice as one
	// atomic unit. On success inv.ID and inv.Number are set.
	Create(ctx context.Context, inv *domain.Invoice) error

	// List returns the invoices of a user ordered by number.
	List(ctx context.Context, username string) ([]domain.Invoice, error)
}
