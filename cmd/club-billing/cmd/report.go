package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export reports",
}

var (
	reportFrom   string
	reportTo     string
	reportFormat string
	reportStdout bool
)

var reportTransactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Export transactions as CSV, JSON or XLSX",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		rng, err := report.ParseRange(reportFrom, reportTo, env.location())
		exitOnError(err, "invalid date range")
		rep := report.BuildTransactions(env.svc.State().Transactions, rng)

		var buf bytes.Buffer
		switch reportFormat {
		case "csv":
			err = report.WriteTransactionsCSV(&buf, rep)
		case "json":
			err = report.WriteTransactionsJSON(&buf, rep)
		case "xlsx":
			err = report.WriteTransactionsXLSX(&buf, rep)
		default:
			err = fmt.Errorf("unknown format %q (expected csv, json or xlsx)", reportFormat)
		}
		exitOnError(err, "failed to build report")

		if reportStdout {
			_, err := os.Stdout.Write(buf.Bytes())
			exitOnError(err, "failed to write report")
			return
		}
		path := writeExport(env, report.TransactionsFilename(reportFrom, reportTo, reportFormat), buf.Bytes())
		fmt.Printf("✓ %d transaction(s), total %s, written to %s\n", len(rep.Rows), money(rep.Total), path)
	},
}

func init() {
	reportTransactionsCmd.Flags().StringVar(&reportFrom, "from", "", "first day (YYYY-MM-DD)")
	reportTransactionsCmd.Flags().StringVar(&reportTo, "to", "", "last day (YYYY-MM-DD)")
	reportTransactionsCmd.Flags().StringVarP(&reportFormat, "format", "f", "csv", "csv, json or xlsx")
	reportTransactionsCmd.Flags().BoolVar(&reportStdout, "stdout", false, "write to stdout instead of the export directory")

	reportCmd.AddCommand(reportTransactionsCmd)
}
