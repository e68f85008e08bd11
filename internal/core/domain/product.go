package domain

import "strings"

// Size selects one of a product's price tiers.
type Size string

// Available sizes.
const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Product is an item a user sells, priced per size.
type Product struct {
	ID          int64
	Name        string
	PriceSmall  float64
	PriceMedium float64
	PriceLarge  float64

	// Image is a reference (path or URI) to the product picture.
	Image string

	// Username is the owning user.
	Username string
}

// Price returns the price for the given size.
func (p Product) Price(size Size) (float64, bool) {
	switch size {
	case SizeSmall:
		return p.PriceSmall, true
	case SizeMedium:
		return p.PriceMedium, true
	case SizeLarge:
		return p.PriceLarge, true
	default:
		return 0, false
	}
}

// Validate checks the fields required to persist a product.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" || p.Username == "" || p.Image == "" {
		return ErrInvalidInput
	}
	if p.PriceSmall < 0 || p.PriceMedium < 0 || p.PriceLarge < 0 {
		return ErrInvalidInput
	}
	return nil
}
