package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/printout"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

var receiptCmd = &cobra.Command{
	Use:   "receipt",
	Short: "List, print and invoice receipts",
}

var (
	receiptName string
	receiptFrom string
	receiptTo   string
	receiptCSV  bool
	receiptPDF  bool
)

var receiptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List receipts, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		rng, err := report.ParseRange(receiptFrom, receiptTo, env.location())
		exitOnError(err, "invalid date range")
		receipts := report.FilterReceipts(env.svc.State().Receipts, report.ReceiptFilter{Name: receiptName, Range: rng})

		if receiptCSV {
			var buf bytes.Buffer
			exitOnError(report.WriteReceiptsCSV(&buf, receipts), "failed to write CSV")
			path := writeExport(env, report.ReceiptsFilename(time.Now()), buf.Bytes())
			fmt.Printf("✓ %d receipt(s) written to %s\n", len(receipts), path)
			return
		}

		fmt.Printf("%-36s  %-10s %-28s %14s %14s\n", "ID", "Fecha", "Alumno", "Total", "Cobrado")
		for _, r := range receipts {
			fmt.Printf("%-36s  %-10s %-28s %14s %14s\n",
				r.ID, shortDate(r.Date), truncate(r.StudentName, 28), money(r.TotalAmount), money(r.PaidAmount()))
		}
		fmt.Printf("\nTotal: %s\n", money(report.ReceiptsTotal(receipts)))
	},
}

var receiptShowCmd = &cobra.Command{
	Use:   "show <receipt-id>",
	Short: "Show a receipt",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		r, ok := env.svc.State().Receipt(args[0])
		if !ok {
			exitOnError(fmt.Errorf("%w: receipt %s", app.ErrNotFound, args[0]), "show failed")
		}

		fmt.Printf("=== Recibo %s ===\n\n", r.ID)
		fmt.Printf("Alumno: %s\n", r.StudentName)
		fmt.Printf("Fecha:  %s\n\n", shortDate(r.Date))
		for _, l := range r.Transactions {
			fmt.Printf("  %-10s %-32s %14s\n", shortDate(l.Date), truncate(l.ClassName, 32), money(l.Amount))
		}
		fmt.Println()
		fmt.Printf("Total:     %s\n", money(r.TotalAmount))
		if r.DiscountAmount.IsPositive() {
			fmt.Printf("Descuento: %s\n", money(r.DiscountAmount.Neg()))
		}
		if r.CarriedAmount.IsPositive() {
			fmt.Printf("Pendiente: %s\n", money(r.CarriedAmount))
		}
		fmt.Printf("Cobrado:   %s\n", money(r.PaidAmount()))
		if r.PaymentMethod != "" {
			fmt.Printf("Medio:     %s\n", r.PaymentMethod)
		}
	},
}

var receiptPrintCmd = &cobra.Command{
	Use:   "print <receipt-id>",
	Short: "Write a printable receipt (HTML, or PDF with --pdf)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		r, ok := env.svc.State().Receipt(args[0])
		if !ok {
			exitOnError(fmt.Errorf("%w: receipt %s", app.ErrNotFound, args[0]), "print failed")
		}

		var buf bytes.Buffer
		page := printout.ReceiptPage{ClubName: env.settings.ClubName, Footer: env.settings.ReceiptFooter, Receipt: r}
		exitOnError(printout.RenderReceipt(&buf, page), "failed to render receipt")

		data, ext := buf.Bytes(), ".html"
		if receiptPDF {
			pdf, err := printout.RenderPDF(cmd.Context(), buf.String(), printout.DefaultPDFTimeout)
			exitOnError(err, "failed to render PDF")
			data, ext = pdf, ".pdf"
		}
		path := writeExport(env, "recibo-"+r.ID+ext, data)
		fmt.Printf("✓ Receipt written to %s\n", path)
	},
}

var receiptDeleteCmd = &cobra.Command{
	Use:   "delete <receipt-id>",
	Short: "Delete a receipt",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		exitOnError(confirm(fmt.Sprintf("¿Eliminar el recibo %s?", args[0])), "delete cancelled")
		env.apply(cmd.Context(), app.DeleteReceipt{ID: args[0]})
		fmt.Printf("✓ Receipt %s deleted\n", args[0])
	},
}

var receiptInvoiceCmd = &cobra.Command{
	Use:   "invoice <receipt-id>",
	Short: "Issue an invoice for a receipt",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		eff := env.apply(cmd.Context(), app.IssueInvoice{ReceiptID: args[0]})
		fmt.Printf("✓ Invoice %s issued, total %s\n", eff.Invoice.Number, money(eff.Invoice.Total))
	},
}

func init() {
	receiptListCmd.Flags().StringVar(&receiptName, "name", "", "filter by student name")
	receiptListCmd.Flags().StringVar(&receiptFrom, "from", "", "first day (YYYY-MM-DD)")
	receiptListCmd.Flags().StringVar(&receiptTo, "to", "", "last day (YYYY-MM-DD)")
	receiptListCmd.Flags().BoolVar(&receiptCSV, "csv", false, "write the receipt lines as CSV")

	receiptPrintCmd.Flags().BoolVar(&receiptPDF, "pdf", false, "render a PDF through headless Chrome")

	receiptCmd.AddCommand(receiptListCmd, receiptShowCmd, receiptPrintCmd, receiptDeleteCmd, receiptInvoiceCmd)
}
