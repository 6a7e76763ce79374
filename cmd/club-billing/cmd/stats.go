package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/config"
)

var statsLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show activity statistics",
	Long:  `Display statistics about applied commands and the money collected.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		if env.activity == nil {
			exitOnError(fmt.Errorf("the %s store keeps no activity log", config.DriverBolt), "stats unavailable")
		}

		stats, err := env.activity.GetStats(cmd.Context())
		exitOnError(err, "failed to get statistics")

		state := env.svc.State()

		fmt.Println("\n=== Club Statistics ===")
		fmt.Printf("Database: %s\n\n", env.paths.DatabasePath())

		fmt.Printf("Students:     %d\n", len(state.Students))
		fmt.Printf("Classes:      %d\n", len(state.Classes))
		fmt.Printf("Transactions: %d\n", len(state.Transactions))
		fmt.Printf("Receipts:     %d\n", len(state.Receipts))
		fmt.Printf("Debtors:      %d\n\n", len(state.Debtors()))

		fmt.Printf("Total Activities: %d\n", stats.TotalActivities)
		fmt.Printf("Collected:        %s\n", money(stats.Collected))
		if stats.LastActivity.Valid {
			fmt.Printf("Last Activity:    %s\n", stats.LastActivity.Time.Local().Format("2006-01-02 15:04:05"))
		}
		if stats.LastBackup != "" {
			fmt.Printf("Last Backup:      %s\n", stats.LastBackup)
		}

		if len(stats.ByCommand) > 0 {
			fmt.Println("\nBy Command:")
			for name, count := range stats.ByCommand {
				fmt.Printf("  %-20s %d\n", name+":", count)
			}
		}

		recent, err := env.activity.Recent(cmd.Context(), statsLimit)
		exitOnError(err, "failed to get recent activity")
		if len(recent) > 0 {
			fmt.Println("\nRecent:")
			for _, a := range recent {
				fmt.Printf("  %s  %-18s %s\n", a.OccurredAt.Local().Format("2006-01-02 15:04"), a.Command, a.Summary)
			}
		}
		fmt.Println()
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "recent", 10, "number of recent activities to show")
}
