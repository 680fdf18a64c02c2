package cli

import (
	"os"

	"github.com/spf13/viper"

	"github.com/arkmint/arkmint/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from the --data-dir flag,
// ARKMINT_DATA_DIR env var, or ~/.arkmint as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("ARKMINT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.arkmint"
}

// openStore opens the store configured via arkmint.yaml / environment:
// embedded SQLite by default, Postgres when storage.driver says so.
func openStore() (*store.Store, error) {
	opts := store.Options{
		Driver:  viper.GetString("storage.driver"),
		DSN:     viper.GetString("storage.dsn"),
		DataDir: viper.GetString("storage.data_dir"),
	}
	if (opts.Driver == "" || opts.Driver == store.DriverSQLite) && opts.DataDir == "" {
		opts.DataDir = resolveDataDir()
	}
	return store.Open(opts)
}
