package schema

import (
	"fmt"
	"strings"
)

// Type is the semantic type of a column.
type Type int

// Column types.
const (
	Integer Type = iota + 1
	Real
	Text
	Boolean
	Blob
)

// SQL returns the storage type used in DDL. Booleans are stored as integers.
func (t Type) SQL() string {
	switch t {
	case Integer, Boolean:
		return "INTEGER"
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	default:
		return ""
	}
}

// String returns the semantic type name.
func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	case Boolean:
		return "boolean"
	case Blob:
		return "blob"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ForeignKey references a column of another table.
type ForeignKey struct {
	Table  string
	Column string
}

// Column describes one column of a table.
type Column struct {
	Name          string
	Type          Type
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Unique        bool

	// Default is a SQL literal used as the column default.
	// Empty means the column has no default.
	Default string

	References *ForeignKey
}

// IDColumn returns an auto-incrementing integer primary key named id.
func IDColumn() Column {
	return Column{Name: "id", Type: Integer, PrimaryKey: true, AutoIncrement: true}
}

// Definition renders the column as it appears inside CREATE TABLE or
// ALTER TABLE ADD COLUMN.
func (c Column) Definition() string {
	var b strings.Builder
	b.WriteString(QuoteIdent(c.Name))
	b.WriteByte(' ')
	b.WriteString(c.Type.SQL())
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if c.References != nil {
		fmt.Fprintf(&b, " REFERENCES %s (%s)", QuoteIdent(c.References.Table), QuoteIdent(c.References.Column))
	}
	return b.String()
}

// TableDefinition describes a table at one schema version.
type TableDefinition struct {
	Name    string
	Columns []Column
}

// Column returns the named column.
func (t TableDefinition) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (t TableDefinition) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateSQL renders the CREATE TABLE statement for the table under its own name.
func (t TableDefinition) CreateSQL() string {
	return t.CreateSQLAs(t.Name)
}

// CreateSQLAs renders the CREATE TABLE statement under another name, used
// when a table is rebuilt next to the one it replaces.
func (t TableDefinition) CreateSQLAs(name string) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = "\t" + c.Definition()
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", QuoteIdent(name), strings.Join(defs, ",\n"))
}

// Lookup returns the named table from tables.
func Lookup(tables []TableDefinition, name string) (TableDefinition, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDefinition{}, false
}

// QuoteIdent quotes an identifier for use in a statement.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// validateTables checks that table and column names are unique and that every
// foreign key targets a primary key or unique column in the same set.
func validateTables(tables []TableDefinition) error {
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if t.Name == "" {
			return fmt.Errorf("%w: table with empty name", ErrInvalidRegistry)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate table %q", ErrInvalidRegistry, t.Name)
		}
		seen[t.Name] = true

		if len(t.Columns) == 0 {
			return fmt.Errorf("%w: table %q has no columns", ErrInvalidRegistry, t.Name)
		}
		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			if c.Name == "" || c.Type.SQL() == "" {
				return fmt.Errorf("%w: table %q has an invalid column", ErrInvalidRegistry, t.Name)
			}
			if cols[c.Name] {
				return fmt.Errorf("%w: duplicate column %s.%s", ErrInvalidRegistry, t.Name, c.Name)
			}
			cols[c.Name] = true
			if c.AutoIncrement && (!c.PrimaryKey || c.Type != Integer) {
				return fmt.Errorf("%w: %s.%s: autoincrement requires an integer primary key", ErrInvalidRegistry, t.Name, c.Name)
			}
		}
	}

	for _, t := range tables {
		for _, c := range t.Columns {
			if c.References == nil {
				continue
			}
			target, ok := Lookup(tables, c.References.Table)
			if !ok {
				return fmt.Errorf("%w: %s.%s references unknown table %q",
					ErrInvalidRegistry, t.Name, c.Name, c.References.Table)
			}
			ref, ok := target.Column(c.References.Column)
			if !ok {
				return fmt.Errorf("%w: %s.%s references unknown column %s.%s",
					ErrInvalidRegistry, t.Name, c.Name, c.References.Table, c.References.Column)
			}
			if !ref.PrimaryKey && !ref.Unique {
				return fmt.Errorf("%w: %s.%s references %s.%s which is neither primary nor unique",
					ErrInvalidRegistry, t.Name, c.Name, c.References.Table, c.References.Column)
			}
		}
	}
	return nil
}
