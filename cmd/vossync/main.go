package main

import (
	"os"

	"github.com/spf13/cobra"

	"vossync/internal/interfaces/cli/migrate"
	"vossync/internal/interfaces/cli/serve"
	synccmd "vossync/internal/interfaces/cli/sync"
	"vossync/internal/interfaces/cli/token"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vossync",
		Short: "VOS CDR ingestion and aggregation pipeline",
		Long:  `vossync pulls customers, gateways and call detail records from VOS softswitch instances, lands the records in the warehouse and rolls up nightly statistics.`,
	}

	rootCmd.AddCommand(
		serve.NewCommand(),
		migrate.NewCommand(),
		synccmd.NewCommand(),
		token.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
