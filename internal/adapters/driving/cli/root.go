package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/invoicedb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driven"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driving"
	"github.com/custodia-labs/invoicedb/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Settings locate the store. Empty fields mean the defaults.
type Settings struct {
	DataDir string
	DBName  string
}

// Services are the core services the commands call.
type Services struct {
	Users       driving.UserService
	Invoices    driving.InvoiceService
	Products    driving.ProductService
	Maintenance driving.MaintenanceService

	// Store runs the statements of the query and exec commands.
	Store driven.Executor

	// Close releases the store. May be nil.
	Close func() error
}

// Factory builds the services for a store location.
type Factory func(settings Settings) (*Services, error)

var (
	factory  Factory
	loaded   *Services
	settings Settings
)

// SetFactory sets how commands obtain their services.
func SetFactory(f Factory) {
	factory = f
}

var (
	verboseFlag   bool
	dataDirFlag   string
	configDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "invoicedb",
	Short: "Maintain the local invoice store",
	Long: `invoicedb operates the embedded invoice store of the point-of-sale
application: it migrates the schema, reports its state, hands out invoice
numbers and runs statements against it.

The store lives in <data-dir>/databases/invoice.db. The data directory
defaults to ~/.invoicedb and can be set in ~/.invoicedb/config.toml:

  [storage]
  data_dir = "/var/lib/invoicedb"`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and releases the store afterwards.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := teardown(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default ~/.invoicedb)")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Directory of config.toml (default ~/.invoicedb)")
}

// setup applies configuration. Flags take precedence over config.toml.
func setup(_ *cobra.Command, _ []string) error {
	cfg, err := file.NewConfigStore(configDirFlag)
	if err != nil {
		return err
	}

	logger.SetVerbose(verboseFlag || cfg.GetBool(file.KeyVerbose))

	settings = Settings{
		DataDir: cfg.GetString(file.KeyDataDir),
		DBName:  cfg.GetString(file.KeyDBName),
	}
	if dataDirFlag != "" {
		settings.DataDir = dataDirFlag
	}
	logger.Debug("resolved settings", "data_dir", settings.DataDir, "db_name", settings.DBName, "config", cfg.Path())
	return nil
}

func teardown() error {
	if loaded == nil {
		return nil
	}
	s := loaded
	loaded = nil
	if s.Close != nil {
		return s.Close()
	}
	return nil
}

// loadServices builds the services on first use in a command.
func loadServices() (*Services, error) {
	if loaded != nil {
		return loaded, nil
	}
	if factory == nil {
		return nil, errors.New("services not configured")
	}
	s, err := factory(settings)
	if err != nil {
		return nil, err
	}
	loaded = s
	return s, nil
}
