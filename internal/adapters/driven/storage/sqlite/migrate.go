package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/logger"
	"github.com/custodia-labs/invoicedb/internal/schema"
)

// Options configures OpenOrCreate and Handle.
type Options struct {
	// Path is the database file.
	Path string

	// Registry describes the schema. Defaults to schema.Application().
	Registry *schema.Registry

	// TargetVersion is the version to open the store at.
	// Defaults to the registry's latest version.
	TargetVersion int

	// Logger receives migration progress. Defaults to logger.Slog().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = schema.Application()
	}
	if o.TargetVersion == 0 {
		o.TargetVersion = o.Registry.Latest()
	}
	if o.Logger == nil {
		o.Logger = logger.Slog()
	}
	return o
}

const historyTableSQL = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		checksum TEXT NOT NULL,
		run_id TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)
`

// kindCreate marks a creation pass in the migration history.
const kindCreate = "create"

// OpenOrCreate opens the store at opts.Path and brings its schema to
// opts.TargetVersion.
//
// A fresh file is created from the registry's definition of the target version
// in a single transaction. An older store is upgraded one step at a time, each
// step in its own transaction that also records the new version; if a step
// fails the store stays at the last version that committed. A store recorded
// at a higher version than the target is rejected with a DowngradeError and
// left untouched.
func OpenOrCreate(ctx context.Context, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: empty database path", domain.ErrInvalidInput)
	}
	reg := opts.Registry
	if opts.TargetVersion < reg.Baseline() || opts.TargetVersion > reg.Latest() {
		return nil, fmt.Errorf("%w: target version %d outside v%d..v%d",
			domain.ErrInvalidInput, opts.TargetVersion, reg.Baseline(), reg.Latest())
	}

	unlock := lockPath(opts.Path)
	defer unlock()

	db, err := openDB(ctx, opts.Path)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	m := &migrator{
		db:       db,
		registry: reg,
		runID:    runID,
		log:      opts.Logger.With("path", opts.Path, "run_id", runID),
	}
	if err := m.run(ctx, opts.TargetVersion); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		facade:   facade{q: db},
		db:       db,
		path:     opts.Path,
		registry: reg,
	}, nil
}

// Destroy deletes the store file at path together with its WAL, shared
// memory and journal siblings. Missing files are ignored. The store must not
// be open.
func Destroy(path string) error {
	unlock := lockPath(path)
	defer unlock()

	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}

// migrator applies the registry to one database.
type migrator struct {
	db       *sql.DB
	registry *schema.Registry
	runID    string
	log      *slog.Logger
}

func (m *migrator) run(ctx context.Context, target int) error {
	current, err := userVersion(ctx, m.db)
	if err != nil {
		return fmt.Errorf("%w: reading schema version: %w", domain.ErrStoreUnavailable, err)
	}

	switch {
	case current == target:
		m.log.Debug("schema up to date", "version", current)
		return nil
	case current > target:
		return &domain.DowngradeError{Recorded: current, Target: target}
	case current == 0:
		return m.create(ctx, target)
	}

	steps, err := m.registry.MigrationsFrom(current, target)
	if err != nil {
		return &domain.MigrationError{From: current, To: target, Step: "plan", Err: err}
	}

	if _, err := m.db.ExecContext(ctx, historyTableSQL); err != nil {
		return &domain.MigrationError{From: current, To: target, Step: "history table", Err: err}
	}

	for _, step := range steps {
		m.log.Info("applying migration",
			"from", step.From,
			"to", step.To,
			"kind", step.Action.Kind(),
			"step", step.Label())

		if err := m.apply(ctx, step); err != nil {
			return &domain.MigrationError{From: step.From, To: step.To, Step: step.Label(), Err: err}
		}
	}

	m.log.Info("schema migrated", "from", current, "to", target)
	return nil
}

// create builds a fresh store at version target in one transaction.
func (m *migrator) create(ctx context.Context, target int) error {
	fail := func(err error) error {
		return &domain.MigrationError{From: 0, To: target, Step: "create schema", Err: err}
	}

	tables, err := m.registry.DefinitionAt(target)
	if err != nil {
		return fail(err)
	}

	m.log.Info("creating schema", "version", target, "tables", len(tables))

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := userVersion(ctx, tx)
	if err != nil {
		return fail(err)
	}
	if current != 0 {
		return fail(fmt.Errorf("store initialised concurrently at v%d", current))
	}

	if _, err := tx.ExecContext(ctx, historyTableSQL); err != nil {
		return fail(fmt.Errorf("creating schema_migrations table: %w", err))
	}

	ddl := make([]string, 0, len(tables))
	for _, table := range tables {
		stmt := table.CreateSQL()
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fail(fmt.Errorf("creating table %s: %w", table.Name, err))
		}
		ddl = append(ddl, stmt)
	}

	if err := setUserVersion(ctx, tx, target); err != nil {
		return fail(err)
	}
	if err := m.record(ctx, tx, target, "create schema", kindCreate, strings.Join(ddl, ";\n")); err != nil {
		return fail(err)
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// apply runs one step on a pinned connection with foreign key enforcement
// suspended, so tables referenced by others can be rebuilt. Integrity is
// checked before the step commits.
func (m *migrator) apply(ctx context.Context, step schema.MigrationStep) (err error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys: %w", err)
	}
	defer func() {
		if _, ferr := conn.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); ferr != nil && err == nil {
			err = fmt.Errorf("enabling foreign keys: %w", ferr)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := userVersion(ctx, tx)
	if err != nil {
		return err
	}
	if current != step.From {
		return fmt.Errorf("store moved to v%d concurrently", current)
	}

	tables, err := m.registry.DefinitionAt(step.To)
	if err != nil {
		return err
	}

	switch a := step.Action.(type) {
	case schema.RawDDL:
		for _, stmt := range a.Statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("executing %q: %w", stmt, err)
			}
		}
	case schema.AddColumnWithDefault:
		if a.Plain() {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", schema.QuoteIdent(a.Table), a.Column.Definition())
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("adding column %s.%s: %w", a.Table, a.Column.Name, err)
			}
			break
		}
		m.log.Debug("column cannot be added in place, rebuilding", "table", a.Table, "column", a.Column.Name)
		def, _ := schema.Lookup(tables, a.Table)
		if err := rebuildTable(ctx, tx, def, nil); err != nil {
			return err
		}
	case schema.RebuildTable:
		def, _ := schema.Lookup(tables, a.Table)
		if err := rebuildTable(ctx, tx, def, a.Expressions); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported action %T", step.Action)
	}

	if err := checkForeignKeys(ctx, tx); err != nil {
		return err
	}
	if err := setUserVersion(ctx, tx, step.To); err != nil {
		return err
	}
	if err := m.record(ctx, tx, step.To, step.Label(), string(step.Action.Kind()), step.Action.Describe()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// record appends an entry to the migration history.
func (m *migrator) record(ctx context.Context, q queryer, version int, name, kind, body string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, name, kind, checksum, run_id, applied_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, version, name, kind, checksum(body), m.runID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording v%d: %w", version, err)
	}
	return nil
}

// checksum returns a short sha256 digest of a step body.
func checksum(body string) string {
	h := sha256.Sum256([]byte(body))
	return fmt.Sprintf("%x", h[:8])
}

// rebuildTable replaces a table with def: the replacement is created under a
// temporary name, rows are copied across, the old table is dropped and the
// replacement takes its name. Columns in both tables are copied by name,
// expressions override the copy, and other new columns take their default.
func rebuildTable(ctx context.Context, tx *sql.Tx, def schema.TableDefinition, expressions map[string]string) error {
	oldCols, err := tableColumns(ctx, tx, def.Name)
	if err != nil {
		return err
	}
	if len(oldCols) == 0 {
		return fmt.Errorf("table %s does not exist", def.Name)
	}

	tmp := def.Name + "__rebuild"
	if _, err := tx.ExecContext(ctx, def.CreateSQLAs(tmp)); err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	var targets, sources []string
	for _, col := range def.Columns {
		if expr, ok := expressions[col.Name]; ok {
			targets = append(targets, schema.QuoteIdent(col.Name))
			sources = append(sources, expr)
			continue
		}
		if oldCols[col.Name] {
			targets = append(targets, schema.QuoteIdent(col.Name))
			sources = append(sources, schema.QuoteIdent(col.Name))
		}
	}

	if len(targets) > 0 {
		stmt := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			schema.QuoteIdent(tmp), strings.Join(targets, ", "),
			strings.Join(sources, ", "), schema.QuoteIdent(def.Name))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("copying rows into %s: %w", tmp, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE "+schema.QuoteIdent(def.Name)); err != nil {
		return fmt.Errorf("dropping %s: %w", def.Name, err)
	}
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", schema.QuoteIdent(tmp), schema.QuoteIdent(def.Name))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

// tableColumns returns the set of column names of an existing table.
func tableColumns(ctx context.Context, q queryer, table string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// checkForeignKeys fails if any row breaks a foreign key constraint.
func checkForeignKeys(ctx context.Context, q queryer) error {
	rows, err := q.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("checking foreign keys: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var table string
		var rowid sql.NullInt64
		var parent string
		var fkid int
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("scanning foreign key violation: %w", err)
		}
		return fmt.Errorf("foreign key violation: %s row %d references missing %s", table, rowid.Int64, parent)
	}
	return rows.Err()
}

func userVersion(ctx context.Context, q queryer) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading user_version: %w", err)
	}
	return v, nil
}

// setUserVersion records v in the database header. PRAGMA takes no bound
// parameters; v is an integer.
func setUserVersion(ctx context.Context, q queryer, v int) error {
	if _, err := q.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("writing user_version: %w", err)
	}
	return nil
}
