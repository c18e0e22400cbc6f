package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Billing reports and provider fail-over for the notification platform",
	Long: `courier reads notification history to build yearly and monthly billing
reports, manages SMS and email delivery provider priorities and keeps track
of pending service invitations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(MigrateCmd())
	rootCmd.AddCommand(SeedCmd())
	rootCmd.AddCommand(BillingCmd())
	rootCmd.AddCommand(ProvidersCmd())
	rootCmd.AddCommand(InvitesCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
