// Command wallet manages accounts, transactions, savings goals and work
// reports from the terminal, on the same store the server uses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"secondbrain/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Personal wallet and work report CLI",
	Long: `wallet reads and changes the secondbrain ledger directly.

Configuration comes from the environment (and a .env file when present):
STORE_BACKEND, SQLITE_DB_PATH, DATA_DIR, LOG_LEVEL.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		if level == "" {
			level = "warn"
		}
		cli.SetupLogger(level)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(accountsCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(budgetsCmd())
	rootCmd.AddCommand(totalsCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(importOFXCmd())
}

func main() {
	cli.LoadEnvFile()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
