package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Manage classes",
}

var (
	classDate         string
	classType         string
	classMax          int
	classPrice        string
	classRepeat       string
	classStudents     []string
	classObservations string
	classFrom         string
	classTo           string
	replicateMonth    string
)

var classListCmd = &cobra.Command{
	Use:   "list",
	Short: "List classes, optionally within --from/--to",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		rng, err := report.ParseRange(classFrom, classTo, env.location())
		exitOnError(err, "invalid date range")

		state := env.svc.State()
		var classes []domain.Class
		for _, c := range state.Classes {
			if rng.Contains(c.Date) {
				classes = append(classes, c)
			}
		}
		slices.SortStableFunc(classes, func(a, b domain.Class) int { return a.Date.Compare(b.Date) })

		fmt.Printf("%-36s  %-16s %-10s %-9s %5s %12s\n", "ID", "Fecha", "Tipo", "Estado", "Cupo", "Precio")
		for _, c := range classes {
			fmt.Printf("%-36s  %-16s %-10s %-9s %2d/%-2d %12s\n",
				c.ID, c.Date.In(env.location()).Format("02/01/2006 15:04"), c.Type, c.Status,
				len(c.Students), c.MaxStudents, money(c.PricePerStudent))
		}
	},
}

var classAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Schedule a class (and its repetitions)",
	Long: `Schedule a class. With --repeat weekly or monthly the rest of the
month is scheduled too. Without --price the configured default price for
the class type is used.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		date, err := parseClassDate(classDate, env.location())
		exitOnError(err, "invalid --date")

		c := domain.Class{
			Date:         date,
			Type:         domain.ClassType(strings.ToLower(classType)),
			MaxStudents:  classMax,
			Repeating:    domain.Repeating(classRepeat),
			Students:     classStudents,
			Observations: classObservations,
		}
		if c.MaxStudents == 0 {
			c.MaxStudents = defaultMaxStudents(c.Type)
		}
		if classPrice != "" {
			c.PricePerStudent, err = decimal.NewFromString(classPrice)
			exitOnError(err, "invalid --price")
		} else {
			c.PricePerStudent = env.settings.DefaultPrice(c.Type)
		}

		eff := env.apply(cmd.Context(), app.AddClass{Class: c})
		fmt.Printf("✓ %d class(es) scheduled\n", len(eff.Classes))
		for _, c := range eff.Classes {
			fmt.Printf("  %s  %s\n", c.ID, c.Date.In(env.location()).Format("Mon 02/01/2006 15:04"))
		}
	},
}

var classUpdateCmd = &cobra.Command{
	Use:   "update <class-id>",
	Short: "Change a class's date, capacity, price or notes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		c, ok := env.svc.State().Class(args[0])
		if !ok {
			exitOnError(fmt.Errorf("%w: class %s", app.ErrNotFound, args[0]), "update failed")
		}

		var err error
		if classDate != "" {
			c.Date, err = parseClassDate(classDate, env.location())
			exitOnError(err, "invalid --date")
		}
		if classType != "" {
			c.Type = domain.ClassType(strings.ToLower(classType))
		}
		if classMax > 0 {
			c.MaxStudents = classMax
		}
		if classPrice != "" {
			c.PricePerStudent, err = decimal.NewFromString(classPrice)
			exitOnError(err, "invalid --price")
		}
		if classObservations != "" {
			c.Observations = classObservations
		}

		env.apply(cmd.Context(), app.UpdateClass{Class: c})
		fmt.Printf("✓ Class %s updated\n", c.ID)
	},
}

var classCancelCmd = &cobra.Command{
	Use:   "cancel <class-id>",
	Short: "Cancel a class",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		c, ok := env.svc.State().Class(args[0])
		if !ok {
			exitOnError(fmt.Errorf("%w: class %s", app.ErrNotFound, args[0]), "cancel failed")
		}
		if len(c.Attendances) > 0 {
			exitOnError(fmt.Errorf("%w: class %s", app.ErrAttendanceRecorded, c.ID), "cancel failed")
		}
		c.Status = domain.ClassCancelled
		env.apply(cmd.Context(), app.UpdateClass{Class: c})
		fmt.Printf("✓ Class %s cancelled\n", c.ID)
	},
}

var classDeleteCmd = &cobra.Command{
	Use:   "delete <class-id>",
	Short: "Delete a class without recorded attendance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		exitOnError(confirm(fmt.Sprintf("¿Eliminar la clase %s?", args[0])), "delete cancelled")
		env.apply(cmd.Context(), app.DeleteClass{ID: args[0]})
		fmt.Printf("✓ Class %s deleted\n", args[0])
	},
}

var classEnrollCmd = &cobra.Command{
	Use:   "enroll <class-id> <student-id>...",
	Short: "Add students to a class",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		for _, studentID := range args[1:] {
			env.apply(cmd.Context(), app.EnrollStudent{ClassID: args[0], StudentID: studentID})
			fmt.Printf("✓ %s enrolled\n", studentID)
		}
	},
}

var classReplicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Copy last month's recurring classes into --month",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		year, month, err := parseYearMonth(replicateMonth)
		exitOnError(err, "invalid --month")

		eff := env.apply(cmd.Context(), app.ReplicateMonth{Year: year, Month: month, Location: env.location()})
		rep := eff.Replication
		fmt.Printf("✓ %d class(es) created from %d pattern(s), %d already existed\n",
			len(rep.Classes), rep.Patterns, rep.Duplicates)
	},
}

func init() {
	for _, c := range []*cobra.Command{classAddCmd, classUpdateCmd} {
		c.Flags().StringVar(&classDate, "date", "", "date and time (YYYY-MM-DD HH:MM)")
		c.Flags().StringVar(&classType, "type", "", "individual or group")
		c.Flags().IntVar(&classMax, "max", 0, "maximum number of students (default 1 for individual, 4 for group)")
		c.Flags().StringVar(&classPrice, "price", "", "price per student")
		c.Flags().StringVar(&classObservations, "observations", "", "free-form notes")
	}
	classAddCmd.Flags().StringVar(&classRepeat, "repeat", string(domain.RepeatNone), "none, weekly or monthly")
	classAddCmd.Flags().StringSliceVar(&classStudents, "students", nil, "student IDs to enroll")
	classAddCmd.MarkFlagRequired("date")
	classAddCmd.MarkFlagRequired("type")

	classListCmd.Flags().StringVar(&classFrom, "from", "", "first day (YYYY-MM-DD)")
	classListCmd.Flags().StringVar(&classTo, "to", "", "last day (YYYY-MM-DD)")

	classReplicateCmd.Flags().StringVar(&replicateMonth, "month", "", "target month (YYYY-MM)")
	classReplicateCmd.MarkFlagRequired("month")

	classCmd.AddCommand(classListCmd, classAddCmd, classUpdateCmd, classCancelCmd, classDeleteCmd, classEnrollCmd, classReplicateCmd)
}

func defaultMaxStudents(t domain.ClassType) int {
	if t == domain.ClassIndividual {
		return 1
	}
	return 4
}
