package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zynoxlab/zynox-cloud/internal/server"
	"github.com/zynoxlab/zynox-cloud/internal/server/config"
)

var rootCmd = &cobra.Command{
	Use:   "zynox-cloud",
	Short: "Encrypted memory store with emotion auto-tagging and PDF sharing.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Optional .env in the working directory; absence is fine.
		_ = godotenv.Load()
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg := &config.Config{}
		cfg.LoadDefaults()
		cfg.Address = viper.GetString("address")
		cfg.DatabaseDriver = viper.GetString("driver")
		cfg.DatabaseDSN = viper.GetString("dsn")
		cfg.DataDir = viper.GetString("data")

		cfg.FromEnv()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx := context.Background()
		app, err := server.NewApp(ctx, cfg)
		if err != nil {
			return err
		}

		return app.Run(ctx)
	},
}

func init() {
	defaults := &config.Config{}
	defaults.LoadDefaults()

	rootCmd.PersistentFlags().String("address", defaults.Address, "address the HTTP server listens on")
	rootCmd.PersistentFlags().String("driver", defaults.DatabaseDriver, "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("data", defaults.DataDir, "data directory")

	for _, name := range []string{"address", "driver", "dsn", "data"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("zynx")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
