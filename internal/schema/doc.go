// Package schema is the declarative description of the store's tables and
// of the versioned steps that migrate one schema version to the next.
//
// A Registry holds a snapshot of the table definitions for each version that
// introduced a change, plus an ordered chain of MigrationStep values. The
// registry is pure data: it renders DDL and answers two questions, "which
// tables exist at version v" (DefinitionAt) and "which steps move a store from
// version a to version b" (MigrationsFrom). Executing steps is the job of the
// storage adapter.
//
// # Step kinds
//
//   - RawDDL: opaque statements executed in order
//   - AddColumnWithDefault: a new column, added in place when ALTER TABLE can
//     express it and by rebuilding the table otherwise
//   - RebuildTable: create-copy-drop-rename of a table into its shape at the
//     step's target version
//
// Application returns the registry of the invoicedb schema.
package schema
