package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driven"
	"github.com/custodia-labs/invoicedb/internal/schema"
)

// SequenceSpec locates a counter: one integer column per owner row.
type SequenceSpec struct {
	Table         string
	KeyColumn     string
	CounterColumn string
}

// InvoiceSequence is the per-user invoice number counter.
var InvoiceSequence = SequenceSpec{
	Table:         schema.TableUsers,
	KeyColumn:     "username",
	CounterColumn: "invoice_number",
}

// Allocator hands out the next number of a counter. Allocation reads the
// counter, increments it and writes it back inside one transaction, so two
// callers never receive the same number for an owner.
type Allocator struct {
	store     driven.Store
	counter   string
	selectSQL string
	updateSQL string
}

var _ driven.SequenceAllocator = (*Allocator)(nil)

// NewAllocator creates an allocator for seq over store.
func NewAllocator(store driven.Store, seq SequenceSpec) *Allocator {
	table := schema.QuoteIdent(seq.Table)
	key := schema.QuoteIdent(seq.KeyColumn)
	counter := schema.QuoteIdent(seq.CounterColumn)

	return &Allocator{
		store:   store,
		counter: seq.CounterColumn,
		selectSQL: fmt.Sprintf("SELECT COALESCE(%s, 0) AS %s FROM %s WHERE %s = ?",
			counter, counter, table, key),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ? AND COALESCE(%s, 0) = ?",
			table, counter, key, counter),
	}
}

// Next allocates the next number for owner in its own transaction.
func (a *Allocator) Next(ctx context.Context, owner string) (int64, error) {
	var next int64
	err := a.store.WithTx(ctx, func(tx driven.Executor) error {
		n, err := a.NextWith(ctx, tx, owner)
		if err != nil {
			return err
		}
		next = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// NextWith allocates the next number for owner using tx, which must be a
// transaction executor. Nothing is written when the owner does not exist.
func (a *Allocator) NextWith(ctx context.Context, tx driven.Executor, owner string) (int64, error) {
	rows, err := tx.Query(ctx, a.selectSQL, owner)
	if err != nil {
		return 0, fmt.Errorf("reading counter: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownOwner, owner)
	}

	current, err := rows[0].Int64(a.counter)
	if err != nil {
		return 0, fmt.Errorf("reading counter: %w", err)
	}
	next := current + 1

	n, err := tx.Update(ctx, a.updateSQL, next, owner, current)
	if err != nil {
		return 0, fmt.Errorf("writing counter: %w", err)
	}
	if n != 1 {
		return 0, fmt.Errorf("%w: %q: %d rows updated", domain.ErrAllocationConflict, owner, n)
	}
	return next, nil
}
