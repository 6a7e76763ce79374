package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/beancount"
	"github.com/pigeonworks-llc/club-billing/pkg/converter"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Export attendance and receipts to Beancount",
	Long: `Export the club's books as plain-text Beancount files, one per month.

Attended classes are booked as receivables against class income; receipts
move the collected money into the payment account and the discount into
the discounts account. Exporting again only appends what is new.`,
}

const accountsFile = "accounts.beancount"

var (
	ledgerFrom string
	ledgerTo   string
	ledgerYear string
)

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Append new classes and receipts to the monthly ledger files",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		conv := newConverter(env)
		rng, err := report.ParseRange(ledgerFrom, ledgerTo, env.location())
		exitOnError(err, "invalid date range")

		repo := beancount.NewFileSystemRepository(env.paths, env.settings.ClubName)
		res, err := conv.Export(repo, env.svc.State(), rng)
		exitOnError(err, "failed to export ledger")

		fmt.Println("\n=== Ledger export ===")
		fmt.Printf("Written: %d\n", res.Written)
		fmt.Printf("Skipped: %d (already exported)\n", res.Skipped)
		fmt.Printf("Ledger:  %s\n", env.paths.LedgerDir())
	},
}

var ledgerAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Write the account directives and the ledger index",
	Long: `Write accounts.beancount with an open directive for every mapped
account, and main.beancount including it and every monthly file.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		conv := newConverter(env)
		path := filepath.Join(env.paths.LedgerDir(), accountsFile)
		exitOnError(env.paths.EnsureParentDir(path), "failed to create ledger directory")

		content := conv.FormatOpenDirectives(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
		exitOnError(os.WriteFile(path, []byte(content), 0644), "failed to write accounts")
		fmt.Printf("✓ Accounts written to %s\n", path)

		repo := beancount.NewFileSystemRepository(env.paths, env.settings.ClubName)
		preamble := fmt.Sprintf("option \"title\" %q\noption \"operating_currency\" %q\n", env.settings.ClubName, env.settings.Currency)
		index, err := repo.WriteIndex(preamble, accountsFile)
		exitOnError(err, "failed to write ledger index")
		fmt.Printf("✓ Index written to %s\n", index)
	},
}

var ledgerFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the monthly ledger files of a year",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		year := ledgerYear
		if year == "" {
			year = time.Now().Format("2006")
		}
		repo := beancount.NewFileSystemRepository(env.paths, env.settings.ClubName)
		files, err := repo.MonthFilesInYear(year)
		exitOnError(err, "failed to list ledger files")
		for _, f := range files {
			fmt.Println(f)
		}
	},
}

func init() {
	ledgerExportCmd.Flags().StringVar(&ledgerFrom, "from", "", "first day (YYYY-MM-DD)")
	ledgerExportCmd.Flags().StringVar(&ledgerTo, "to", "", "last day (YYYY-MM-DD)")
	ledgerFilesCmd.Flags().StringVar(&ledgerYear, "year", "", "year (default current)")

	ledgerCmd.AddCommand(ledgerExportCmd, ledgerAccountsCmd, ledgerFilesCmd)
}

func newConverter(env *environment) *converter.Converter {
	mapper, err := converter.NewMapper(env.cfg.LedgerMap)
	exitOnError(err, "failed to load account mapping")
	return converter.NewConverter(mapper, env.settings.Currency)
}
