package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/api"
	"github.com/pigeonworks-llc/club-billing/pkg/client"
)

var (
	remoteURL      string
	remoteDiscount string
	remotePay      string
	remoteMethod   string
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Talk to a running club-billing server",
	Long: `Query or settle through the HTTP API of another club-billing instance,
e.g. the one running at the front desk.`,
}

var remoteDebtorsCmd = &cobra.Command{
	Use:   "debtors",
	Short: "List debtors on the server",
	Run: func(cmd *cobra.Command, args []string) {
		c := newRemoteClient()
		exitOnError(c.Health(cmd.Context()), "server unavailable")

		debtors, err := c.Debtors(cmd.Context())
		exitOnError(err, "failed to list debtors")
		printDebtors(debtors)
	},
}

var remoteSettleCmd = &cobra.Command{
	Use:   "settle <student-id>",
	Short: "Settle every pending charge of a student on the server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newRemoteClient()

		pending, err := c.PendingCharges(cmd.Context(), args[0])
		exitOnError(err, "failed to get pending charges")
		if len(pending.Transactions) == 0 {
			fmt.Println("Nothing pending")
			return
		}

		req := api.SettleRequest{Method: parseMethod(remoteMethod)}
		for _, t := range pending.Transactions {
			req.TransactionIDs = append(req.TransactionIDs, t.ID)
		}
		req.Discount, err = parseDiscount(remoteDiscount)
		exitOnError(err, "invalid --discount")
		req.PaymentNow, err = parseAmount(remotePay)
		exitOnError(err, "invalid --pay")

		fmt.Printf("Pending: %s in %d charge(s)\n", money(pending.PendingTotal), len(pending.Transactions))
		exitOnError(confirm("¿Saldar en el servidor?"), "settle cancelled")

		eff, err := c.Settle(cmd.Context(), args[0], req)
		exitOnError(err, "settle failed")
		printSettlement(eff)
	},
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&remoteURL, "url", "http://localhost:8080", "server base URL")
	remoteSettleCmd.Flags().StringVar(&remoteDiscount, "discount", "", "discount amount or percentage (10%)")
	remoteSettleCmd.Flags().StringVar(&remotePay, "pay", "", "amount paid now")
	remoteSettleCmd.Flags().StringVar(&remoteMethod, "method", "cash", "cash, transfer, card or combined")

	remoteCmd.AddCommand(remoteDebtorsCmd, remoteSettleCmd)
}

func newRemoteClient() *client.Client {
	return client.NewClient(client.ClientConfig{BaseURL: remoteURL, Timeout: 30 * time.Second})
}
