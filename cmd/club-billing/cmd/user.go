package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

var (
	userName string
	userRole string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show or change the current operator",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		u := env.svc.State().CurrentUser
		fmt.Printf("%s (%s)\n", u.Name, u.Role)
	},
}

var userSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the current operator",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		u := env.svc.State().CurrentUser
		if userName != "" {
			u.Name = userName
		}
		if userRole != "" {
			u.Role = domain.Role(userRole)
		}
		env.apply(cmd.Context(), app.SetUser{User: u})
		fmt.Printf("✓ Current user is %s (%s)\n", u.Name, u.Role)
	},
}

func init() {
	userSetCmd.Flags().StringVar(&userName, "name", "", "operator name")
	userSetCmd.Flags().StringVar(&userRole, "role", "", "admin or professor")
	userCmd.AddCommand(userSetCmd)
}
