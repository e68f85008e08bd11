package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags the variant of a migration action.
type Kind string

// Action kinds.
const (
	KindRawDDL       Kind = "raw_ddl"
	KindAddColumn    Kind = "add_column"
	KindRebuildTable Kind = "rebuild_table"
)

// Action is the forward action of a migration step. The concrete types are
// RawDDL, AddColumnWithDefault and RebuildTable.
type Action interface {
	Kind() Kind

	// Describe returns a stable, human-readable description. It feeds the
	// checksum recorded in the migration history.
	Describe() string
}

// RawDDL executes opaque statements in order.
type RawDDL struct {
	Statements []string
}

func (RawDDL) Kind() Kind { return KindRawDDL }

func (a RawDDL) Describe() string {
	return "raw ddl: " + strings.Join(a.Statements, "; ")
}

// AddColumnWithDefault adds a column to an existing table. Rows present before
// the step take the column default.
type AddColumnWithDefault struct {
	Table  string
	Column Column
}

func (AddColumnWithDefault) Kind() Kind { return KindAddColumn }

func (a AddColumnWithDefault) Describe() string {
	return fmt.Sprintf("add column %s.%s", a.Table, a.Column.Definition())
}

// Plain reports whether ALTER TABLE ADD COLUMN can express the change. When it
// cannot, the table has to be rebuilt.
func (a AddColumnWithDefault) Plain() bool {
	c := a.Column
	if c.PrimaryKey || c.Unique {
		return false
	}
	def := strings.ToUpper(strings.TrimSpace(c.Default))
	nullDefault := def == "" || def == "NULL"
	if c.NotNull && nullDefault {
		return false
	}
	if strings.HasPrefix(def, "(") || strings.HasPrefix(def, "CURRENT_") {
		return false
	}
	if c.References != nil && !nullDefault {
		return false
	}
	return true
}

// RebuildTable recreates a table in its shape at the step's target version.
// Columns present in both the old and the new table are copied by name;
// Expressions maps a new column to a SQL expression over the old row and
// overrides the copy. New columns without an expression take their default.
type RebuildTable struct {
	Table       string
	Expressions map[string]string
}

func (RebuildTable) Kind() Kind { return KindRebuildTable }

func (a RebuildTable) Describe() string {
	if len(a.Expressions) == 0 {
		return "rebuild table " + a.Table
	}
	cols := make([]string, 0, len(a.Expressions))
	for col := range a.Expressions {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + "=" + a.Expressions[col]
	}
	return fmt.Sprintf("rebuild table %s (%s)", a.Table, strings.Join(parts, ", "))
}

// MigrationStep moves a store from version From (exclusive) to version To
// (inclusive).
type MigrationStep struct {
	From   int
	To     int
	Name   string
	Action Action
}

// Label names the step for logs and errors.
func (s MigrationStep) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Action == nil {
		return fmt.Sprintf("v%d->v%d", s.From, s.To)
	}
	return s.Action.Describe()
}
