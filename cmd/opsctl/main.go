package main

import (
	"fmt"
	"os"

	"github.com/carsound-ops/api/internal/cli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "opsctl",
		Short: "Back-office tool for the sales incentive ledger",
		Long: `opsctl reads the unpaid incentive ledger, prints daily reports and payout
sheets, exports them as workbooks and closes days.`,
		SilenceUsage: true,
	}

	// Ledger
	rootCmd.AddCommand(cli.DatesCmd())
	rootCmd.AddCommand(cli.ReportCmd())
	rootCmd.AddCommand(cli.ExportCmd())
	rootCmd.AddCommand(cli.PayoutCmd())
	rootCmd.AddCommand(cli.CloseCmd())
	rootCmd.AddCommand(cli.CheckCmd())

	// Access
	rootCmd.AddCommand(cli.TokenCmd())
	rootCmd.AddCommand(cli.HashPinCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
