package domain

// SchemaStatus describes the schema state of an open store.
type SchemaStatus struct {
	// Path is the database file.
	Path string

	// Version is the schema version recorded in the store.
	Version int

	// Latest is the highest version the registry knows.
	Latest int

	// RowCounts maps each table at Version to its row count.
	RowCounts map[string]int64
}

// UpToDate reports whether the store is at the latest version.
func (s SchemaStatus) UpToDate() bool {
	return s.Version == s.Latest
}
