package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/billing"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Settle pending charges",
	Long: `Settle what students owe.

A settlement closes the selected pending charges with one receipt. A
discount is taken from the oldest charges first; a payment smaller than
the balance leaves the rest as a new pending charge.`,
}

var (
	settleIDs      []string
	settleDiscount string
	settlePay      string
	settleMethod   string
	settleNote     string
	settleLines    []string
)

var billingPendingCmd = &cobra.Command{
	Use:   "pending <student-id>",
	Short: "List a student's pending charges",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		state := env.svc.State()
		st, ok := state.Student(args[0])
		if !ok {
			exitOnError(fmt.Errorf("%w: student %s", app.ErrNotFound, args[0]), "pending failed")
		}

		charges := billing.PendingCharges(state.Transactions, st.ID)
		fmt.Printf("=== Pendiente: %s ===\n\n", st.Name)
		for _, c := range charges {
			fmt.Printf("%-36s  %-10s %-32s %14s\n", c.ID, shortDate(c.Date), truncate(c.ClassName, 32), money(c.Amount))
		}
		fmt.Printf("\nTotal: %s\n", money(billing.PendingTotal(state.Transactions, st.ID)))
	},
}

var billingSettleCmd = &cobra.Command{
	Use:   "settle <student-id>",
	Short: "Settle pending charges with one receipt",
	Long: `Settle pending charges. Without --ids every pending charge is settled.

--discount takes an amount (450) or a percentage (10%).
--pay records a partial payment; the unpaid rest stays pending.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		ids := settleIDs
		if len(ids) == 0 {
			for _, c := range billing.PendingCharges(env.svc.State().Transactions, args[0]) {
				ids = append(ids, c.ID)
			}
		}

		discount, err := parseDiscount(settleDiscount)
		exitOnError(err, "invalid --discount")
		pay, err := parseAmount(settlePay)
		exitOnError(err, "invalid --pay")

		eff := env.apply(cmd.Context(), app.SettleCharges{
			StudentID:      args[0],
			TransactionIDs: ids,
			Discount:       discount,
			PaymentNow:     pay,
			Method:         parseMethod(settleMethod),
			Note:           settleNote,
		})
		printSettlement(eff)
	},
}

var billingDiscountCmd = &cobra.Command{
	Use:   "discount <student-id> <amount|percent%>",
	Short: "Settle the whole pending balance with a discount",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		d, err := parseDiscount(args[1])
		exitOnError(err, "invalid discount")
		if d == nil {
			exitOnError(billing.ErrNoAdjustment, "invalid discount")
		}

		eff := env.apply(cmd.Context(), app.ApplyDiscount{
			StudentID: args[0],
			Discount:  *d,
			Method:    parseMethod(settleMethod),
		})
		printSettlement(eff)
	},
}

var billingLinesCmd = &cobra.Command{
	Use:   "lines <student-id> <id[=amount[-discount]]>...",
	Short: "Settle charges with a custom amount per line",
	Long: `Settle charges line by line. Each line is a transaction ID, optionally
followed by the amount paid and a discount:

  club-billing billing lines s1 t1 t2=800 t3=1000-200`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		var lines []app.LineInput
		for _, arg := range args[1:] {
			line, err := parseLine(arg)
			exitOnError(err, "invalid line")
			lines = append(lines, line)
		}

		eff := env.apply(cmd.Context(), app.SettleLines{
			StudentID: args[0],
			Lines:     lines,
			Method:    parseMethod(settleMethod),
		})
		printSettlement(eff)
	},
}

var billingDebtorsCmd = &cobra.Command{
	Use:   "debtors",
	Short: "List students with pending charges",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		printDebtors(env.svc.State().Debtors())
	},
}

func init() {
	billingSettleCmd.Flags().StringSliceVar(&settleIDs, "ids", nil, "transaction IDs to settle (default all pending)")
	billingSettleCmd.Flags().StringVar(&settleDiscount, "discount", "", "discount amount or percentage (10%)")
	billingSettleCmd.Flags().StringVar(&settlePay, "pay", "", "amount paid now (default the full balance)")
	billingSettleCmd.Flags().StringVar(&settleNote, "note", "", "note printed on the receipt")

	for _, c := range []*cobra.Command{billingSettleCmd, billingDiscountCmd, billingLinesCmd} {
		c.Flags().StringVar(&settleMethod, "method", string(domain.MethodCash), "cash, transfer, card or combined")
	}

	billingCmd.AddCommand(billingPendingCmd, billingSettleCmd, billingDiscountCmd, billingLinesCmd, billingDebtorsCmd)
}

func printSettlement(eff app.Effect) {
	if eff.Receipt == nil {
		fmt.Println(eff.Summary)
		return
	}
	r := eff.Receipt
	fmt.Printf("✓ Receipt %s for %s\n", r.ID, r.StudentName)
	fmt.Printf("  Total:     %s\n", money(r.TotalAmount))
	if r.DiscountAmount.IsPositive() {
		fmt.Printf("  Discount:  %s\n", money(r.DiscountAmount.Neg()))
	}
	fmt.Printf("  Collected: %s\n", money(r.PaidAmount()))
	if r.CarriedAmount.IsPositive() {
		fmt.Printf("  Pending:   %s\n", money(r.CarriedAmount))
	}
}

func printDebtors(debtors []app.Debtor) {
	total := decimal.Zero
	fmt.Printf("%-36s  %-28s %7s %14s\n", "ID", "Nombre", "Cargos", "Deuda")
	for _, d := range debtors {
		fmt.Printf("%-36s  %-28s %7d %14s\n", d.Student.ID, truncate(d.Student.Name, 28), d.Charges, money(d.Pending))
		total = total.Add(d.Pending)
	}
	fmt.Printf("\n%d deudor(es), total %s\n", len(debtors), money(total))
}
