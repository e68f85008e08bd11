package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driven"
	"github.com/custodia-labs/invoicedb/internal/schema"
)

// queryer is implemented by *sql.DB, *sql.Tx and *sql.Conn.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// facade implements driven.Executor on top of a queryer.
type facade struct {
	q queryer
}

// Query runs stmt and returns every row keyed by column name.
func (f facade) Query(ctx context.Context, stmt string, args ...any) ([]domain.Row, error) {
	rows, err := f.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, statementError("query", stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, statementError("query", stmt, err)
	}

	result := make([]domain.Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, statementError("query", stmt, err)
		}

		row := make(domain.Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, statementError("query", stmt, err)
	}
	return result, nil
}

// Insert runs stmt and returns the new row id, or -1 if nothing was inserted.
func (f facade) Insert(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := f.q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return -1, statementError("insert", stmt, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, statementError("insert", stmt, err)
	}
	if n == 0 {
		return -1, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return -1, statementError("insert", stmt, err)
	}
	return id, nil
}

// Update runs stmt and returns the number of affected rows.
func (f facade) Update(ctx context.Context, stmt string, args ...any) (int64, error) {
	return f.exec(ctx, "update", stmt, args...)
}

// Delete runs stmt and returns the number of affected rows.
func (f facade) Delete(ctx context.Context, stmt string, args ...any) (int64, error) {
	return f.exec(ctx, "delete", stmt, args...)
}

func (f facade) exec(ctx context.Context, op, stmt string, args ...any) (int64, error) {
	res, err := f.q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, statementError(op, stmt, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, statementError(op, stmt, err)
	}
	return n, nil
}

// SaveRecord inserts fields into table with bound parameters. Columns are
// written in name order.
func (f facade) SaveRecord(ctx context.Context, table string, fields map[string]any) (int64, error) {
	if table == "" || len(fields) == 0 {
		return -1, domain.ErrInvalidInput
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if col == "" {
			return -1, domain.ErrInvalidInput
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = schema.QuoteIdent(col)
		args[i] = fields[col]
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.QuoteIdent(table), strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	return f.Insert(ctx, stmt, args...)
}

// Tx is the executor handed to a WithTx callback.
type Tx struct {
	facade
}

var _ driven.Executor = (*Tx)(nil)

// Store is an open, migrated database.
type Store struct {
	facade
	db       *sql.DB
	path     string
	registry *schema.Registry
}

var _ driven.Store = (*Store)(nil)

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Registry returns the schema registry the store was opened with.
func (s *Store) Registry() *schema.Registry {
	return s.registry
}

// WithTx runs fn as one atomic unit.
func (s *Store) WithTx(ctx context.Context, fn func(tx driven.Executor) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&Tx{facade{q: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Version returns the schema version recorded in the database header.
func (s *Store) Version(ctx context.Context) (int, error) {
	return userVersion(ctx, s.db)
}

// AppliedMigration is one entry of the migration history.
type AppliedMigration struct {
	Version   int
	Name      string
	Kind      string
	Checksum  string
	RunID     string
	AppliedAt time.Time
}

// History returns the migration history ordered by version.
func (s *Store) History(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, name, kind, checksum, run_id, applied_at
		FROM schema_migrations ORDER BY version
	`)
	if err != nil {
		return nil, fmt.Errorf("querying schema_migrations: %w", err)
	}
	defer rows.Close()

	var history []AppliedMigration //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m AppliedMigration
		var appliedAt string
		if err := rows.Scan(&m.Version, &m.Name, &m.Kind, &m.Checksum, &m.RunID, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning migration: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, appliedAt); err == nil {
			m.AppliedAt = t
		}
		history = append(history, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema_migrations: %w", err)
	}
	return history, nil
}

// CountRows returns the number of rows in table.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	stmt := "SELECT COUNT(*) FROM " + schema.QuoteIdent(table)
	if err := s.db.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, statementError("query", stmt, err)
	}
	return n, nil
}
