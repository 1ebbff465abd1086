package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/usdtpay/internal/interfaces/cli/migrate"
	"github.com/orris-inc/usdtpay/internal/interfaces/cli/server"
	"github.com/orris-inc/usdtpay/internal/interfaces/cli/worker"
)

//	@title						usdtpay API
//	@version					1.0
//	@description				USDT payment reconciliation on TRON and BSC.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	rootCmd := &cobra.Command{
		Use:   "usdtpay",
		Short: "usdtpay - USDT payment reconciliation",
		Long:  `usdtpay issues USDT orders with unique amounts, watches TRON and BSC for matching transfers, and credits users when they land.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
