package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/attendance"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

var (
	attendancePresent []string
	attendanceAbsent  []string
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance <class-id>",
	Short: "Record who attended a class",
	Long: `Record attendance for a class. Every present student is charged the
class price; absent students get a zero ledger entry.

Example:
  club-billing attendance 5f1c... --present s1,s2 --absent s3`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		var marks []attendance.Mark
		for _, id := range attendancePresent {
			marks = append(marks, attendance.Mark{StudentID: id, Status: domain.AttendancePresent})
		}
		for _, id := range attendanceAbsent {
			marks = append(marks, attendance.Mark{StudentID: id, Status: domain.AttendanceAbsent})
		}
		if len(marks) == 0 {
			exitOnError(fmt.Errorf("pass --present and/or --absent"), "nothing to record")
		}

		eff := env.apply(cmd.Context(), app.RecordAttendance{ClassID: args[0], Marks: marks})
		fmt.Printf("✓ Attendance recorded, %d charge(s) created\n", len(eff.Charges))
		for _, c := range eff.Charges {
			fmt.Printf("  %-28s %14s\n", truncate(c.StudentName, 28), money(c.Amount))
		}
	},
}

func init() {
	attendanceCmd.Flags().StringSliceVar(&attendancePresent, "present", nil, "IDs of students who attended")
	attendanceCmd.Flags().StringSliceVar(&attendanceAbsent, "absent", nil, "IDs of students who missed the class")
}
