package driving

import (
	"context"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
)

// ProductService manages a user's product catalogue.
type ProductService interface {
	// Add stores a product and sets its ID.
	Add(ctx context.Context, p *domain.Product) error

	// List returns the products of a user ordered by name.
	List(ctx context.Context, username string) ([]domain.Product, error)

	// Delete removes a product owned by username.
	// Returns domain.ErrNotFound if there is no such product.
	Delete(ctx context.Context, username string, id int64) error
}
