package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumn_Definition(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		want string
	}{
		{"id", IDColumn(), `"id" INTEGER PRIMARY KEY AUTOINCREMENT`},
		{"unique text", Column{Name: "username", Type: Text, NotNull: true, Unique: true}, `"username" TEXT NOT NULL UNIQUE`},
		{"boolean default", Column{Name: "login_status", Type: Boolean, NotNull: true, Default: "0"}, `"login_status" INTEGER NOT NULL DEFAULT 0`},
		{
			"foreign key",
			Column{Name: "username", Type: Text, NotNull: true, References: &ForeignKey{Table: "users", Column: "username"}},
			`"username" TEXT NOT NULL REFERENCES "users" ("username")`,
		},
		{"quoted name", Column{Name: `we"ird`, Type: Blob}, `"we""ird" BLOB`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.col.Definition())
		})
	}
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "boolean", Boolean.String())
	assert.Equal(t, "INTEGER", Boolean.SQL())
	assert.Equal(t, "", Type(0).SQL())
	assert.Equal(t, "type(0)", Type(0).String())
}

func TestTableDefinition_CreateSQL(t *testing.T) {
	table := TableDefinition{
		Name: "items",
		Columns: []Column{
			IDColumn(),
			{Name: "label", Type: Text, NotNull: true},
		},
	}

	assert.Equal(t, "CREATE TABLE \"items\" (\n\t\"id\" INTEGER PRIMARY KEY AUTOINCREMENT,\n\t\"label\" TEXT NOT NULL\n)",
		table.CreateSQL())
	assert.Contains(t, table.CreateSQLAs("items__rebuild"), `CREATE TABLE "items__rebuild"`)
	assert.Equal(t, []string{"id", "label"}, table.ColumnNames())

	col, ok := table.Column("label")
	require.True(t, ok)
	assert.True(t, col.NotNull)

	_, ok = table.Column("missing")
	assert.False(t, ok)
}

func TestValidateTables(t *testing.T) {
	owners := TableDefinition{Name: "owners", Columns: []Column{
		IDColumn(),
		{Name: "name", Type: Text, Unique: true},
		{Name: "nickname", Type: Text},
	}}

	tests := []struct {
		name    string
		tables  []TableDefinition
		wantErr bool
	}{
		{"valid", []TableDefinition{owners}, false},
		{"duplicate table", []TableDefinition{owners, owners}, true},
		{"no columns", []TableDefinition{{Name: "empty"}}, true},
		{"duplicate column", []TableDefinition{{Name: "t", Columns: []Column{IDColumn(), IDColumn()}}}, true},
		{"bad autoincrement", []TableDefinition{{Name: "t", Columns: []Column{{Name: "x", Type: Text, AutoIncrement: true}}}}, true},
		{"fk to unique", []TableDefinition{owners, {Name: "pets", Columns: []Column{
			{Name: "owner", Type: Text, References: &ForeignKey{Table: "owners", Column: "name"}},
		}}}, false},
		{"fk to primary", []TableDefinition{owners, {Name: "pets", Columns: []Column{
			{Name: "owner_id", Type: Integer, References: &ForeignKey{Table: "owners", Column: "id"}},
		}}}, false},
		{"fk to plain column", []TableDefinition{owners, {Name: "pets", Columns: []Column{
			{Name: "owner", Type: Text, References: &ForeignKey{Table: "owners", Column: "nickname"}},
		}}}, true},
		{"fk to unknown table", []TableDefinition{{Name: "pets", Columns: []Column{
			{Name: "owner", Type: Text, References: &ForeignKey{Table: "owners", Column: "name"}},
		}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTables(tt.tables)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRegistry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
