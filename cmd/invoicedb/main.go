// Command invoicedb maintains the embedded invoice store.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/invoicedb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/invoicedb/internal/adapters/driving/cli"
	"github.com/custodia-labs/invoicedb/internal/core/services"
	"github.com/custodia-labs/invoicedb/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetFactory(newServices)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newServices wires the core services onto one lazily opened store.
func newServices(settings cli.Settings) (*cli.Services, error) {
	path, err := sqlite.DefaultPath(settings.DataDir)
	if err != nil {
		return nil, err
	}
	if settings.DBName != "" {
		path = filepath.Join(filepath.Dir(path), settings.DBName)
	}

	handle := sqlite.NewHandle(sqlite.Options{
		Path:   path,
		Logger: logger.Slog(),
	})
	allocator := sqlite.NewAllocator(handle, sqlite.InvoiceSequence)

	return &cli.Services{
		Users:       services.NewUserService(handle),
		Invoices:    services.NewInvoiceService(handle, allocator, nil),
		Products:    services.NewProductService(handle),
		Maintenance: services.NewMaintenanceService(handle),
		Store:       handle,
		Close:       handle.Close,
	}, nil
}
