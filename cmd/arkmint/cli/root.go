package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arkmint",
		Short: "Mint and resolve ARK persistent identifiers",
		Long: `Arkmint mints, updates, and resolves ARK (Archival Resource Key) persistent
identifiers on behalf of registered naming authorities (NAANs).

It serves a small authenticated HTTP API for minting and updating arks, a
public resolver endpoint with a three-tier fallback chain, and a CLI for
provisioning naans, shoulders, and API keys.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./arkmint.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite store (default: ~/.arkmint)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newNaanCmd())
	cmd.AddCommand(newShoulderCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arkmint")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.arkmint")
	}

	viper.SetEnvPrefix("ARKMINT")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
