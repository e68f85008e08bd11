package schema

// Table names of the application schema.
const (
	TableUsers    = "users"
	TableProducts = "products"
	TableInvoices = "invoices"
)

// LatestVersion is the current version of the application schema.
const LatestVersion = 2

var ownerRef = &ForeignKey{Table: TableUsers, Column: "username"}

var usersTable = TableDefinition{
	Name: TableUsers,
	Columns: []Column{
		IDColumn(),
		{Name: "username", Type: Text, NotNull: true, Unique: true},
		{Name: "password", Type: Text, NotNull: true},
		{Name: "login_status", Type: Boolean, NotNull: true, Default: "0"},
		{Name: "invoice_number", Type: Integer, Default: "0"},
	},
}

var productsTable = TableDefinition{
	Name: TableProducts,
	Columns: []Column{
		IDColumn(),
		{Name: "name", Type: Text, NotNull: true},
		{Name: "price_small", Type: Real, NotNull: true},
		{Name: "price_medium", Type: Real, NotNull: true},
		{Name: "price_large", Type: Real, NotNull: true},
		{Name: "image", Type: Text, NotNull: true},
		{Name: "username", Type: Text, NotNull: true, References: ownerRef},
	},
}

func invoicesTable(withDiscount bool) TableDefinition {
	cols := []Column{
		IDColumn(),
		{Name: "invoice_number", Type: Integer, NotNull: true},
		{Name: "customer_name", Type: Text, NotNull: true},
		{Name: "date", Type: Text, NotNull: true},
		{Name: "time", Type: Text, NotNull: true},
		{Name: "total_amount", Type: Real, NotNull: true},
	}
	if withDiscount {
		cols = append(cols, Column{Name: "discount", Type: Real, Default: "0"})
	}
	cols = append(cols,
		Column{Name: "items", Type: Text},
		Column{Name: "username", Type: Text, NotNull: true, References: ownerRef},
	)
	return TableDefinition{Name: TableInvoices, Columns: cols}
}

var application = MustRegistry(
	[]Snapshot{
		{Version: 1, Tables: []TableDefinition{usersTable, productsTable, invoicesTable(false)}},
		{Version: 2, Tables: []TableDefinition{usersTable, productsTable, invoicesTable(true)}},
	},
	[]MigrationStep{
		{
			From:   1,
			To:     2,
			Name:   "add invoice discount",
			Action: RebuildTable{Table: TableInvoices},
		},
	},
)

// Application returns the registry of the application schema.
func Application() *Registry {
	return application
}
