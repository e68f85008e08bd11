package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driven"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driving"
)

// Ensure ProductService implements the interface.
var _ driving.ProductService = (*ProductService)(nil)

// ProductService manages the product catalogue.
type ProductService struct {
	store driven.Store
}

// NewProductService creates a new product service.
func NewProductService(store driven.Store) *ProductService {
	return &ProductService{store: store}
}

// Add stores a product. The owner must exist.
func (s *ProductService) Add(ctx context.Context, p *domain.Product) error {
	if p == nil {
		return domain.ErrInvalidInput
	}
	if err := p.Validate(); err != nil {
		return err
	}

	id, err := s.store.SaveRecord(ctx, "products", map[string]any{
		"name":         p.Name,
		"price_small":  p.PriceSmall,
		"price_medium": p.PriceMedium,
		"price_large":  p.PriceLarge,
		"image":        p.Image,
		"username":     p.Username,
	})
	if err != nil {
		var se *domain.StatementError
		if errors.As(err, &se) && se.Constraint() {
			return fmt.Errorf("%w: user %q", domain.ErrNotFound, p.Username)
		}
		return fmt.Errorf("adding product: %w", err)
	}
	p.ID = id
	return nil
}

// List returns the products of a user.
func (s *ProductService) List(ctx context.Context, username string) ([]domain.Product, error) {
	rows, err := s.store.Query(ctx, `
		SELECT id, name, price_small, price_medium, price_large, image, username
		FROM products WHERE username = ? ORDER BY name, id
	`, username)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := productFromRow(row)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, username string, id int64) error {
	n, err := s.store.Delete(ctx,
		"DELETE FROM products WHERE id = ? AND username = ?", id, username)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return nil
}

func productFromRow(row domain.Row) (domain.Product, error) {
	var p domain.Product
	var err error
	if p.ID, err = row.Int64("id"); err != nil {
		return p, err
	}
	if p.PriceSmall, err = row.Float64("price_small"); err != nil {
		return p, err
	}
	if p.PriceMedium, err = row.Float64("price_medium"); err != nil {
		return p, err
	}
	if p.PriceLarge, err = row.Float64("price_large"); err != nil {
		return p, err
	}
	p.Name = row.String("name")
	p.Image = row.String("image")
	p.Username = row.String("username")
	return p, nil
}
