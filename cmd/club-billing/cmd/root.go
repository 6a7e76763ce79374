// Package cmd provides CLI commands for club-billing.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	debug     bool
	assumeYes bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "club-billing",
	Short: "Students, classes, attendance and billing for a padel club",
	Long: `club-billing manages the students and classes of a padel club and
settles what each student owes.

It supports:
- Student and class management, weekly/monthly recurrence
- Attendance that generates charges
- Settlements with discounts and partial payments, with receipts
- CSV/JSON/XLSX reports, printable receipts, backups
- Beancount ledger export and a JSON HTTP API

Example:
  club-billing student add --name "Ana Pérez" --condition Titular
  club-billing attendance <class-id> --present <student-id>
  club-billing billing settle <student-id> --discount 10% --pay 4000
  club-billing serve --addr :8080`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug || os.Getenv("DEBUG") == "true" {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(studentCmd)
	rootCmd.AddCommand(classCmd)
	rootCmd.AddCommand(attendanceCmd)
	rootCmd.AddCommand(billingCmd)
	rootCmd.AddCommand(receiptCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(remoteCmd)
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
