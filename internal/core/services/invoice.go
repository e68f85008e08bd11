package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/juju/clock"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driven"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driving"
)

// Ensure InvoiceService implements the interface.
var _ driving.InvoiceService = (*InvoiceService)(nil)

// InvoiceService issues invoices numbered from each user's counter.
type InvoiceService struct {
	store     driven.Store
	allocator driven.SequenceAllocator
	clock     clock.Clock
}

// NewInvoiceService creates a new invoice service. A nil clock means the
// wall clock.
func NewInvoiceService(store driven.Store, allocator driven.SequenceAllocator, clk clock.Clock) *InvoiceService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &InvoiceService{
		store:     store,
		allocator: allocator,
		clock:     clk,
	}
}

// NextNumber allocates a number without creating an invoice.
func (s *InvoiceService) NextNumber(ctx context.Context, username string) (int64, error) {
	return s.allocator.Next(ctx, username)
}

// Create numbers and stores an invoice. Missing date and time are stamped
// from the clock and a zero total is computed from the items. If the insert
// fails the allocated number is rolled back with it.
func (s *InvoiceService) Create(ctx context.Context, inv *domain.Invoice) error {
	if inv == nil {
		return domain.ErrInvalidInput
	}
	if inv.Date == "" || inv.Time == "" {
		inv.Stamp(s.clock.Now())
	}
	if inv.TotalAmount == 0 {
		inv.TotalAmount = inv.ComputeTotal()
	}
	if err := inv.Validate(); err != nil {
		return err
	}

	items, err := json.Marshal(itemsOrEmpty(inv.Items))
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}

	var number, id int64
	err = s.store.WithTx(ctx, func(tx driven.Executor) error {
		n, err := s.allocator.NextWith(ctx, tx, inv.Username)
		if err != nil {
			return err
		}
		rowID, err := tx.SaveRecord(ctx, "invoices", map[string]any{
			"invoice_number": n,
			"customer_name":  inv.CustomerName,
			"date":           inv.Date,
			"time":           inv.Time,
			"total_amount":   inv.TotalAmount,
			"discount":       inv.Discount,
			"items":          string(items),
			"username":       inv.Username,
		})
		if err != nil {
			return fmt.Errorf("storing invoice: %w", err)
		}
		number, id = n, rowID
		return nil
	})
	if err != nil {
		return err
	}

	inv.Number = number
	inv.ID = id
	return nil
}

// List returns a user's invoices.
func (s *InvoiceService) List(ctx context.Context, username string) ([]domain.Invoice, error) {
	rows, err := s.store.Query(ctx, `
		SELECT id, invoice_number, customer_name, date, time, total_amount, discount, items, username
		FROM invoices WHERE username = ? ORDER BY invoice_number, id
	`, username)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	invoices := make([]domain.Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := invoiceFromRow(row)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func itemsOrEmpty(items []domain.InvoiceItem) []domain.InvoiceItem {
	if items == nil {
		return []domain.InvoiceItem{}
	}
	return items
}

func invoiceFromRow(row domain.Row) (domain.Invoice, error) {
	var inv domain.Invoice
	var err error
	if inv.ID, err = row.Int64("id"); err != nil {
		return inv, err
	}
	if inv.Number, err = row.Int64("invoice_number"); err != nil {
		return inv, err
	}
	if inv.TotalAmount, err = row.Float64("total_amount"); err != nil {
		return inv, err
	}
	if inv.Discount, err = row.Float64("discount"); err != nil {
		return inv, err
	}
	inv.CustomerName = row.String("customer_name")
	inv.Date = row.String("date")
	inv.Time = row.String("time")
	inv.Username = row.String("username")

	if raw := row.String("items"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &inv.Items); err != nil {
			return inv, fmt.Errorf("decoding items of invoice %d: %w", inv.ID, err)
		}
	}
	return inv, nil
}
