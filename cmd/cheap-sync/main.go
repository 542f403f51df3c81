package main

import (
	"context"
	"os"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	appName string = "cheap-sync"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Create, inspect and mirror catalog tables",
	Long: `cheap-sync operates on the relational tables that aspect maps are persisted to.

The mapping configuration lists aspect definitions and the tables they map to.
Connection settings are read from the environment (DATABASE_DRIVER, POSTGRES_*,
SQLITE_PATH) and, for the mirror database, from the same variables prefixed
with MIRROR_. A .env file in the working directory is loaded when present.

Examples:
  cheap-sync init --config mappings.yaml
  cheap-sync stats --catalog 2f0c6e2e-7d5e-4a43-9f0e-6b7e7c4d9a10
  cheap-sync mirror --catalog 2f0c6e2e-7d5e-4a43-9f0e-6b7e7c4d9a10`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mappings.yaml", "path to the mapping configuration")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(mirrorCmd)
}

func main() {
	// a missing .env file is fine, the environment may already be set up
	_ = godotenv.Load()

	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error("command failed", "err", err.Error())
		cleanup()
		os.Exit(1)
	}
}
