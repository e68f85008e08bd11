package sqlite

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driven"
)

// HandleState is the lifecycle state of a Handle.
type HandleState int

// Handle states.
const (
	StateUninitialized HandleState = iota
	StateOpen
	StateDestroyed
)

func (s HandleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("HandleState(%d)", int(s))
	}
}

// Handle owns the single open Store of a database file. The store is opened
// and migrated on first use; concurrent first callers wait for one
// OpenOrCreate instead of racing. A failed open is not remembered, so the
// next call tries again.
//
// Handle implements driven.Store by delegating to the open store, so it can
// be injected wherever a store is needed.
type Handle struct {
	opts Options

	mu    sync.Mutex
	state HandleState
	store *Store
}

var (
	_ driven.Store          = (*Handle)(nil)
	_ driven.StoreLifecycle = (*Handle)(nil)
)

// NewHandle returns an uninitialized handle. Nothing is opened until the
// first call that needs the store.
func NewHandle(opts Options) *Handle {
	return &Handle{opts: opts.withDefaults()}
}

// Path returns the database file path.
func (h *Handle) Path() string {
	return h.opts.Path
}

// State returns the current lifecycle state.
func (h *Handle) State() HandleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Store returns the open store, opening and migrating it if needed.
func (h *Handle) Store(ctx context.Context) (*Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.openLocked(ctx)
}

func (h *Handle) openLocked(ctx context.Context) (*Store, error) {
	if h.store != nil {
		return h.store, nil
	}
	s, err := OpenOrCreate(ctx, h.opts)
	if err != nil {
		return nil, err
	}
	h.store = s
	h.state = StateOpen
	return s, nil
}

// DestroyAndRecreate closes the store, deletes its file and opens a fresh
// one at the target version. It is unconditional: every row is lost.
func (h *Handle) DestroyAndRecreate(ctx context.Context) (*Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store != nil {
		if err := h.store.Close(); err != nil {
			return nil, fmt.Errorf("closing store: %w", err)
		}
		h.store = nil
	}
	if err := Destroy(h.opts.Path); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	h.state = StateDestroyed

	return h.openLocked(ctx)
}

// Close closes the store if it is open. A later call reopens it.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store == nil {
		return nil
	}
	err := h.store.Close()
	h.store = nil
	h.state = StateUninitialized
	return err
}

// Query implements driven.Executor.
func (h *Handle) Query(ctx context.Context, stmt string, args ...any) ([]domain.Row, error) {
	s, err := h.Store(ctx)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, stmt, args...)
}

// Insert implements driven.Executor.
func (h *Handle) Insert(ctx context.Context, stmt string, args ...any) (int64, error) {
	s, err := h.Store(ctx)
	if err != nil {
		return -1, err
	}
	return s.Insert(ctx, stmt, args...)
}

// Update implements driven.Executor.
func (h *Handle) Update(ctx context.Context, stmt string, args ...any) (int64, error) {
	s, err := h.Store(ctx)
	if err != nil {
		return 0, err
	}
	return s.Update(ctx, stmt, args...)
}

// Delete implements driven.Executor.
func (h *Handle) Delete(ctx context.Context, stmt string, args ...any) (int64, error) {
	s, err := h.Store(ctx)
	if err != nil {
		return 0, err
	}
	return s.Delete(ctx, stmt, args...)
}

// SaveRecord implements driven.Executor.
func (h *Handle) SaveRecord(ctx context.Context, table string, fields map[string]any) (int64, error) {
	s, err := h.Store(ctx)
	if err != nil {
		return -1, err
	}
	return s.SaveRecord(ctx, table, fields)
}

// WithTx implements driven.Store.
func (h *Handle) WithTx(ctx context.Context, fn func(tx driven.Executor) error) error {
	s, err := h.Store(ctx)
	if err != nil {
		return err
	}
	return s.WithTx(ctx, fn)
}

// Status reports the recorded version and the row count of every table the
// registry defines at that version.
func (h *Handle) Status(ctx context.Context) (*domain.SchemaStatus, error) {
	s, err := h.Store(ctx)
	if err != nil {
		return nil, err
	}

	version, err := s.Version(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := s.Registry().DefinitionAt(version)
	if err != nil {
		return nil, err
	}

	status := &domain.SchemaStatus{
		Path:      s.Path(),
		Version:   version,
		Latest:    s.Registry().Latest(),
		RowCounts: make(map[string]int64, len(tables)),
	}
	for _, t := range tables {
		n, err := s.CountRows(ctx, t.Name)
		if err != nil {
			return nil, err
		}
		status.RowCounts[t.Name] = n
	}
	return status, nil
}

// Reset implements driven.StoreLifecycle.
func (h *Handle) Reset(ctx context.Context) error {
	_, err := h.DestroyAndRecreate(ctx)
	return err
}
