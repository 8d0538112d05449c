package cli

import (
	"fmt"

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
		Use:   "keen",
		Short: "Initialize and verify the keen application database",
		Long: `Keen: startup orchestration for a multi-tenant PostgreSQL application.

Keen connects to the application database, applies the schema and seed data,
verifies the administrator account, and reports database health. Use "init"
to prepare a deployment and "test" for a full connect/verify/report cycle.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			return fmt.Errorf("a command is required: init or test")
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./keen.yaml)")
	cmd.PersistentFlags().String("dsn", "", "database connection string")
	cmd.PersistentFlags().String("driver", "", "database driver (postgres, sqlite)")
	cmd.PersistentFlags().String("admin-email", "", "administrator account email")
	cmd.PersistentFlags().String("seed-file", "", "YAML seed fixture (default: embedded fixture)")

	viper.BindPFlag("database.dsn", cmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.driver", cmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("admin.email", cmd.PersistentFlags().Lookup("admin-email"))
	viper.BindPFlag("seed.file", cmd.PersistentFlags().Lookup("seed-file"))

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newTestCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("keen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.keen")
	}

	viper.SetEnvPrefix("KEEN")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
