package sqlite

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/schema"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger(buf io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "databases", DatabaseName)
}

func openAt(t *testing.T, path string, reg *schema.Registry, target int) *Store {
	t.Helper()
	store, err := OpenOrCreate(context.Background(), Options{
		Path:          path,
		Registry:      reg,
		TargetVersion: target,
		Logger:        discardLogger(),
	})
	require.NoError(t, err)
	return store
}

// settingsTable is added at v3 of extendedRegistry.
var settingsTable = schema.TableDefinition{
	Name: "settings",
	Columns: []schema.Column{
		{Name: "key", Type: schema.Text, PrimaryKey: true},
		{Name: "value", Type: schema.Text},
	},
}

// extendedRegistry is the application schema plus a v3 that adds a table.
func extendedRegistry(t *testing.T, v3 schema.Action) *schema.Registry {
	t.Helper()
	v1, err := schema.Application().DefinitionAt(1)
	require.NoError(t, err)
	v2, err := schema.Application().DefinitionAt(2)
	require.NoError(t, err)

	steps := append(schema.Application().Steps(), schema.MigrationStep{From: 2, To: 3, Name: "add settings", Action: v3})
	reg, err := schema.NewRegistry(
		[]schema.Snapshot{
			{Version: 1, Tables: v1},
			{Version: 2, Tables: v2},
			{Version: 3, Tables: append(append([]schema.TableDefinition(nil), v2...), settingsTable)},
		},
		steps,
	)
	require.NoError(t, err)
	return reg
}

// ==================== Creation Tests ====================

func TestOpenOrCreate_FreshStore(t *testing.T) {
	path := tempPath(t)
	store := openAt(t, path, nil, 0)
	defer store.Close()
	ctx := context.Background()

	assert.FileExists(t, path)
	assert.Equal(t, path, store.Path())

	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.LatestVersion, version)

	for _, table := range []string{schema.TableUsers, schema.TableProducts, schema.TableInvoices} {
		n, err := store.CountRows(ctx, table)
		require.NoError(t, err, table)
		assert.Zero(t, n, table)
	}

	history, err := store.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, schema.LatestVersion, history[0].Version)
	assert.Equal(t, kindCreate, history[0].Kind)
	assert.NotEmpty(t, history[0].Checksum)
	assert.NotEmpty(t, history[0].RunID)
	assert.False(t, history[0].AppliedAt.IsZero())

	// Created directly at v2: the discount column exists
	cols, err := tableColumns(ctx, store.db, schema.TableInvoices)
	require.NoError(t, err)
	assert.True(t, cols["discount"])
}

func TestOpenOrCreate_ReopenIsNoOp(t *testing.T) {
	path := tempPath(t)
	store := openAt(t, path, nil, 0)
	createTestUser(t, store, "a")
	require.NoError(t, store.Close())

	store = openAt(t, path, nil, 0)
	defer store.Close()

	history, err := store.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 1)

	n, err := store.CountRows(context.Background(), schema.TableUsers)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpenOrCreate_InvalidOptions(t *testing.T) {
	ctx := context.Background()

	_, err := OpenOrCreate(ctx, Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = OpenOrCreate(ctx, Options{Path: tempPath(t), TargetVersion: 99})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = OpenOrCreate(ctx, Options{Path: tempPath(t), TargetVersion: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpenOrCreate_StoreUnavailable(t *testing.T) {
	ctx := context.Background()

	_, err := OpenOrCreate(ctx, Options{Path: "/invalid\x00path/invoice.db", Logger: discardLogger()})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	// A regular file where the databases directory should be
	dir := t.TempDir()
	blocker := filepath.Join(dir, "databases")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))
	_, err = OpenOrCreate(ctx, Options{Path: filepath.Join(blocker, DatabaseName), Logger: discardLogger()})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestOpenOrCreate_NotADatabase(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	garbage := bytes.Repeat([]byte("definitely not a database file "), 64)
	require.NoError(t, os.WriteFile(path, garbage, 0600))

	_, err := OpenOrCreate(context.Background(), Options{Path: path, Logger: discardLogger()})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

// ==================== Upgrade Tests ====================

func TestOpenOrCreate_MigratesInvoicesToV2(t *testing.T) {
	path := tempPath(t)
	ctx := context.Background()

	store := openAt(t, path, nil, 1)
	cols, err := tableColumns(ctx, store.db, schema.TableInvoices)
	require.NoError(t, err)
	require.False(t, cols["discount"])

	createTestUser(t, store, "a")
	invoiceID, err := store.Insert(ctx, `
		INSERT INTO invoices (invoice_number, customer_name, date, time, total_amount, items, username)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, 1, "Bob", "2024-01-02", "10:30:00", 100.0, `[{"name":"Latte"}]`, "a")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store = openAt(t, path, nil, 0)
	defer store.Close()

	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	rows, err := store.Query(ctx, "SELECT * FROM invoices")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, invoiceID, row["id"])
	assert.Equal(t, int64(1), row["invoice_number"])
	assert.Equal(t, "Bob", row.String("customer_name"))
	assert.Equal(t, "2024-01-02", row.String("date"))
	assert.Equal(t, "10:30:00", row.String("time"))
	assert.Equal(t, `[{"name":"Latte"}]`, row.String("items"))
	assert.Equal(t, "a", row.String("username"))

	total, err := row.Float64("total_amount")
	require.NoError(t, err)
	assert.Equal(t, 100.0, total)

	require.Contains(t, row, "discount")
	discount, err := row.Float64("discount")
	require.NoError(t, err)
	assert.Equal(t, 0.0, discount)

	history, err := store.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, 2, history[1].Version)
	assert.Equal(t, string(schema.KindRebuildTable), history[1].Kind)
	assert.Equal(t, "add invoice discount", history[1].Name)

	// The rebuilt table keeps its foreign key and autoincrement
	_, err = store.SaveRecord(ctx, schema.TableInvoices, map[string]any{
		"invoice_number": 2, "customer_name": "Eve", "date": "d", "time": "t",
		"total_amount": 1.0, "username": "ghost",
	})
	assert.ErrorIs(t, err, domain.ErrStatement)

	nextID, err := store.SaveRecord(ctx, schema.TableInvoices, map[string]any{
		"invoice_number": 2, "customer_name": "Eve", "date": "d", "time": "t",
		"total_amount": 1.0, "username": "a",
	})
	require.NoError(t, err)
	assert.Greater(t, nextID, invoiceID)
}

func TestOpenOrCreate_Downgrade(t *testing.T) {
	path := tempPath(t)
	ctx := context.Background()
	reg := extendedRegistry(t, schema.RawDDL{Statements: []string{settingsTable.CreateSQL()}})

	store := openAt(t, path, reg, 3)
	require.NoError(t, store.Close())

	_, err := OpenOrCreate(ctx, Options{Path: path, TargetVersion: 2, Logger: discardLogger()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaDowngrade)

	var de *domain.DowngradeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 3, de.Recorded)
	assert.Equal(t, 2, de.Target)

	store = openAt(t, path, reg, 3)
	defer store.Close()
	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, version)

	history, err := store.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestOpenOrCreate_StepsAppliedInOrder(t *testing.T) {
	path := tempPath(t)
	ctx := context.Background()
	reg := extendedRegistry(t, schema.RawDDL{Statements: []string{
		settingsTable.CreateSQL(),
		`INSERT INTO settings (key, value) VALUES ('currency', 'EUR')`,
	}})

	store := openAt(t, path, reg, 1)
	require.NoError(t, store.Close())

	store = openAt(t, path, reg, 3)
	defer store.Close()

	history, err := store.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{history[0].Version, history[1].Version, history[2].Version})

	rows, err := store.Query(ctx, "SELECT value FROM settings WHERE key = ?", "currency")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "EUR", rows[0].String("value"))
}

func TestOpenOrCreate_FailedStepKeepsLastVersion(t *testing.T) {
	path := tempPath(t)
	ctx := context.Background()
	reg := extendedRegistry(t, schema.RawDDL{Statements: []string{
		settingsTable.CreateSQL(),
		"INSERT INTO no_such_table VALUES (1)",
	}})

	store := openAt(t, path, reg, 1)
	require.NoError(t, store.Close())

	_, err := OpenOrCreate(ctx, Options{Path: path, Registry: reg, TargetVersion: 3, Logger: discardLogger()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMigrationFailed)

	var me *domain.MigrationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 2, me.From)
	assert.Equal(t, 3, me.To)
	assert.Equal(t, "add settings", me.Step)

	// v1->v2 committed, v2->v3 rolled back entirely
	store = openAt(t, path, reg, 2)
	defer store.Close()

	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	cols, err := tableColumns(ctx, store.db, "settings")
	require.NoError(t, err)
	assert.Empty(t, cols)

	history, err := store.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestOpenOrCreate_AddColumnInPlace(t *testing.T) {
	path := tempPath(t)
	ctx := context.Background()

	v1 := []schema.TableDefinition{{Name: "notes", Columns: []schema.Column{
		schema.IDColumn(),
		{Name: "body", Type: schema.Text, NotNull: true},
	}}}
	pinned := schema.Column{Name: "pinned", Type: schema.Boolean, NotNull: true, Default: "0"}
	v2 := []schema.TableDefinition{{Name: "notes", Columns: append(append([]schema.Column(nil), v1[0].Columns...), pinned)}}

	reg := schema.MustRegistry(
		[]schema.Snapshot{{Version: 1, Tables: v1}, {Version: 2, Tables: v2}},
		[]schema.MigrationStep{{From: 1, To: 2, Action: schema.AddColumnWithDefault{Table: "notes", Column: pinned}}},
	)

	store := openAt(t, path, reg, 1)
	_, err := store.Insert(ctx, "INSERT INTO notes (body) VALUES (?)", "hello")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store = openAt(t, path, reg, 2)
	defer store.Close()

	rows, err := store.Query(ctx, "SELECT body, pinned FROM notes")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hello", rows[0].String("body"))
	on, err := rows[0].Bool("pinned")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestOpenOrCreate_AddUniqueColumnRebuilds(t *testing.T) {
	path := tempPath(t)
	ctx := context.Background()

	v1 := []schema.TableDefinition{{Name: "notes", Columns: []schema.Column{
		schema.IDColumn(),
		{Name: "body", Type: schema.Text, NotNull: true},
	}}}
	slug := schema.Column{Name: "slug", Type: schema.Text, Unique: true}
	v2 := []schema.TableDefinition{{Name: "notes", Columns: append(append([]schema.Column(nil), v1[0].Columns...), slug)}}

	buf := new(syncBuffer)
	reg := schema.MustRegistry(
		[]schema.Snapshot{{Version: 1, Tables: v1}, {Version: 2, Tables: v2}},
		[]schema.MigrationStep{{From: 1, To: 2, Action: schema.AddColumnWithDefault{Table: "notes", Column: slug}}},
	)

	store := openAt(t, path, reg, 1)
	_, err := store.Insert(ctx, "INSERT INTO notes (body) VALUES (?), (?)", "one", "two")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenOrCreate(ctx, Options{Path: path, Registry: reg, Logger: bufferLogger(buf)})
	require.NoError(t, err)
	defer store.Close()

	assert.Contains(t, buf.String(), "rebuilding")

	_, err = store.Update(ctx, "UPDATE notes SET slug = 'same'")
	assert.ErrorIs(t, err, domain.ErrStatement, "slug must be unique after the rebuild")

	n, err := store.CountRows(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestOpenOrCreate_RebuildWithExpressions(t *testing.T) {
	path := tempPath(t)
	ctx := context.Background()

	v1 := []schema.TableDefinition{{Name: "prices", Columns: []schema.Column{
		schema.IDColumn(),
		{Name: "cents", Type: schema.Integer, NotNull: true},
	}}}
	v2 := []schema.TableDefinition{{Name: "prices", Columns: []schema.Column{
		schema.IDColumn(),
		{Name: "cents", Type: schema.Integer, NotNull: true},
		{Name: "amount", Type: schema.Real, NotNull: true},
	}}}

	reg := schema.MustRegistry(
		[]schema.Snapshot{{Version: 1, Tables: v1}, {Version: 2, Tables: v2}},
		[]schema.MigrationStep{{From: 1, To: 2, Action: schema.RebuildTable{
			Table:       "prices",
			Expressions: map[string]string{"amount": `"cents" / 100.0`},
		}}},
	)

	store := openAt(t, path, reg, 1)
	_, err := store.Insert(ctx, "INSERT INTO prices (cents) VALUES (?)", 250)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store = openAt(t, path, reg, 2)
	defer store.Close()

	rows, err := store.Query(ctx, "SELECT cents, amount FROM prices")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	amount, err := rows[0].Float64("amount")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, amount, 0.0001)
}

func TestOpenOrCreate_RebuildReferencedTable(t *testing.T) {
	path := tempPath(t)
	ctx := context.Background()

	v1, err := schema.Application().DefinitionAt(2)
	require.NoError(t, err)

	var v2 []schema.TableDefinition
	for _, table := range v1 {
		if table.Name == schema.TableUsers {
			table.Columns = append(append([]schema.Column(nil), table.Columns...),
				schema.Column{Name: "email", Type: schema.Text, Unique: true})
		}
		v2 = append(v2, table)
	}

	reg := schema.MustRegistry(
		[]schema.Snapshot{{Version: 1, Tables: v1}, {Version: 2, Tables: v2}},
		[]schema.MigrationStep{{From: 1, To: 2, Action: schema.RebuildTable{Table: schema.TableUsers}}},
	)

	store := openAt(t, path, reg, 1)
	createTestUser(t, store, "a")
	_, err = store.SaveRecord(ctx, schema.TableProducts, map[string]any{
		"name": "Tea", "price_small": 1.0, "price_medium": 1.5, "price_large": 2.0,
		"image": "tea.png", "username": "a",
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store = openAt(t, path, reg, 2)
	defer store.Close()

	rows, err := store.Query(ctx, "SELECT * FROM products JOIN users USING (username)")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], "email")

	// Foreign keys are enforced again once the step committed
	_, err = store.Delete(ctx, "DELETE FROM users WHERE username = ?", "a")
	assert.ErrorIs(t, err, domain.ErrStatement)
}

// ==================== Concurrency Tests ====================

func TestOpenOrCreate_ConcurrentUpgradeRunsEachStepOnce(t *testing.T) {
	path := tempPath(t)
	store := openAt(t, path, nil, 1)
	require.NoError(t, store.Close())

	const callers = 8
	buf := new(syncBuffer)
	stores := make([]*Store, callers)

	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			s, err := OpenOrCreate(context.Background(), Options{Path: path, Logger: bufferLogger(buf)})
			stores[i] = s
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, s := range stores {
		require.NotNil(t, s)
		version, err := s.Version(context.Background())
		require.NoError(t, err)
		assert.Equal(t, schema.LatestVersion, version)
	}

	history, err := stores[0].History(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, 1, strings.Count(buf.String(), "msg=\"applying migration\""))

	for _, s := range stores {
		assert.NoError(t, s.Close())
	}
}

func TestOpenOrCreate_ConcurrentCreateRunsOnce(t *testing.T) {
	path := tempPath(t)

	const callers = 8
	buf := new(syncBuffer)
	stores := make([]*Store, callers)

	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			s, err := OpenOrCreate(context.Background(), Options{Path: path, Logger: bufferLogger(buf)})
			stores[i] = s
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, strings.Count(buf.String(), "msg=\"creating schema\""))

	history, err := stores[0].History(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 1)

	for _, s := range stores {
		assert.NoError(t, s.Close())
	}
}

// ==================== Destroy Tests ====================

func TestDestroy(t *testing.T) {
	path := tempPath(t)
	store := openAt(t, path, nil, 0)
	createTestUser(t, store, "a")
	require.NoError(t, store.Close())

	require.NoError(t, Destroy(path))
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+"-wal")
	assert.NoFileExists(t, path+"-shm")

	// Missing files are fine
	require.NoError(t, Destroy(path))

	store = openAt(t, path, nil, 0)
	defer store.Close()
	n, err := store.CountRows(context.Background(), schema.TableUsers)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath("/data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "databases", DatabaseName), path)

	path, err = DefaultPath("")
	require.NoError(t, err)
	assert.Contains(t, path, ".invoicedb")
	assert.True(t, strings.HasSuffix(path, filepath.Join("databases", DatabaseName)))
}
