package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sqlitedriver "modernc.org/sqlite"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
)

// DatabaseName is the fixed file name of the store inside its databases directory.
const DatabaseName = "invoice.db"

// DefaultPath returns the store location under dataDir. If dataDir is empty,
// defaults to ~/.invoicedb.
func DefaultPath(dataDir string) (string, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".invoicedb")
	}
	return filepath.Join(dataDir, "databases", DatabaseName), nil
}

// openDB opens the database file, creating its directory if needed, and
// verifies that the file is a usable database.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: creating databases directory: %w", domain.ErrStoreUnavailable, err)
	}

	// Foreign keys, WAL and the busy timeout apply to every connection
	db, err := sql.Open("sqlite", path+
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStoreUnavailable, err)
	}

	// One connection serializes every transaction of this store
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStoreUnavailable, err)
	}
	return db, nil
}

// pathLocks serializes migration and destruction of the same file within
// the process. SQLite's own file locking covers other processes.
var pathLocks sync.Map

func lockPath(path string) func() {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	v, _ := pathLocks.LoadOrStore(key, new(sync.Mutex))
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// statementError converts an engine error into a *domain.StatementError.
// Context errors pass through unchanged.
func statementError(op, stmt string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	se := &domain.StatementError{Op: op, Statement: stmt, Err: err}
	var engineErr *sqlitedriver.Error
	if errors.As(err, &engineErr) {
		se.Code = engineErr.Code()
	}
	return se
}
