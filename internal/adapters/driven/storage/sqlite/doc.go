// Package sqlite provides the embedded store of invoicedb.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It contains:
//
//   - OpenOrCreate / Destroy: the migration engine, which creates a fresh store
//     from a schema snapshot or upgrades an existing one step by step
//   - Handle: a lazily opened, injectable handle that runs OpenOrCreate at most
//     once at a time and owns the connection
//   - Store / Tx: the generic access facade (query, insert, update, delete,
//     save record) and its atomic unit
//   - Allocator: the read-increment-write sequence allocator
//
// # Schema
//
// Tables and migration steps are described by a schema.Registry. The current
// version lives in the database header (PRAGMA user_version) and every creation
// pass or applied step is appended to the schema_migrations table.
//
// # Data Location
//
// By default, the database is stored at ~/.invoicedb/databases/invoice.db
//
// # Thread Safety
//
// All operations are thread-safe. Each Store holds a single connection, so
// transactions from concurrent callers are serialized in-process. Access from
// other processes is coordinated by SQLite in WAL mode with a busy timeout.
// A WithTx callback must only use the executor it is given.
package sqlite
