package domain

import (
	"strings"
	"time"
)

// Date and time layouts used for the invoice date and time columns.
const (
	InvoiceDateLayout = "2006-01-02"
	InvoiceTimeLayout = "15:04:05"
)

// InvoiceItem is a single line of an invoice.
type InvoiceItem struct {
	Name     string  `json:"name"`
	Size     Size    `json:"size"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Subtotal returns price multiplied by quantity.
func (i InvoiceItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Invoice is a completed sale.
type Invoice struct {
	ID int64

	// Number is the per-user invoice number, allocated from the
	// user's invoice counter when the invoice is created.
	Number int64

	CustomerName string

	// Date and Time are stored as text using InvoiceDateLayout and
	// InvoiceTimeLayout.
	Date string
	Time string

	TotalAmount float64
	Discount    float64
	Items       []InvoiceItem

	// Username is the owning user.
	Username string
}

// Stamp sets Date and Time from t.
func (inv *Invoice) Stamp(t time.Time) {
	inv.Date = t.Format(InvoiceDateLayout)
	inv.Time = t.Format(InvoiceTimeLayout)
}

// ComputeTotal sums item subtotals and subtracts the discount.
// The total never goes below zero.
func (inv *Invoice) ComputeTotal() float64 {
	var sum float64
	for _, item := range inv.Items {
		sum += item.Subtotal()
	}
	sum -= inv.Discount
	if sum < 0 {
		return 0
	}
	return sum
}

// Validate checks the fields required to persist an invoice.
func (inv *Invoice) Validate() error {
	if inv == nil {
		return ErrInvalidInput
	}
	if strings.TrimSpace(inv.CustomerName) == "" || inv.Username == "" {
		return ErrInvalidInput
	}
	if inv.Date == "" || inv.Time == "" {
		return ErrInvalidInput
	}
	if inv.TotalAmount < 0 || inv.Discount < 0 {
		return ErrInvalidInput
	}
	return nil
}
