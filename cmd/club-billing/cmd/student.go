package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/printout"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage students",
}

var (
	studentName         string
	studentDNI          string
	studentPhone        string
	studentLot          string
	studentNeighborhood string
	studentCondition    string
	studentObservations string
	studentSearch       string
	accountStatus       string
	accountCSV          bool
	accountHTML         bool
)

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		q := strings.ToLower(studentSearch)
		fmt.Printf("%-36s  %-28s %-10s %-9s %14s\n", "ID", "Nombre", "DNI", "Condición", "Saldo")
		for _, st := range env.svc.State().Students {
			if q != "" && !strings.Contains(strings.ToLower(st.Name), q) && !strings.Contains(st.DNI, q) {
				continue
			}
			fmt.Printf("%-36s  %-28s %-10s %-9s %14s\n", st.ID, truncate(st.Name, 28), st.DNI, st.Condition, money(st.CurrentBalance))
		}
	},
}

var studentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a student",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		eff := env.apply(cmd.Context(), app.AddStudent{Student: studentFromFlags(domain.Student{})})
		fmt.Printf("✓ Student %s registered (%s)\n", eff.Student.Name, eff.Student.ID)
	},
}

var studentUpdateCmd = &cobra.Command{
	Use:   "update <student-id>",
	Short: "Update a student's details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		st, ok := env.svc.State().Student(args[0])
		if !ok {
			exitOnError(fmt.Errorf("%w: student %s", app.ErrNotFound, args[0]), "update failed")
		}
		eff := env.apply(cmd.Context(), app.UpdateStudent{Student: studentFromFlags(st)})
		fmt.Printf("✓ Student %s updated\n", eff.Student.Name)
	},
}

var studentDeleteCmd = &cobra.Command{
	Use:   "delete <student-id>",
	Short: "Delete a student without classes or charges",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		st, ok := env.svc.State().Student(args[0])
		if !ok {
			exitOnError(fmt.Errorf("%w: student %s", app.ErrNotFound, args[0]), "delete failed")
		}
		exitOnError(confirm(fmt.Sprintf("¿Eliminar a %s?", st.Name)), "delete cancelled")
		env.apply(cmd.Context(), app.DeleteStudent{ID: st.ID})
		fmt.Printf("✓ Student %s deleted\n", st.Name)
	},
}

var studentShowCmd = &cobra.Command{
	Use:   "show <student-id>",
	Short: "Show a student's ledger",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		acc, err := env.svc.State().StudentAccount(args[0], domain.AttendanceStatus(accountStatus))
		exitOnError(err, "failed to build account")
		printAccount(acc)
	},
}

var studentAccountCmd = &cobra.Command{
	Use:   "account <student-id>",
	Short: "Export a student's account statement",
	Long: `Export a student's account statement to the export directory.

--csv writes a spreadsheet-friendly CSV, --html a printable page.
Without either flag the statement is printed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		acc, err := env.svc.State().StudentAccount(args[0], domain.AttendanceStatus(accountStatus))
		exitOnError(err, "failed to build account")

		if !accountCSV && !accountHTML {
			printAccount(acc)
			return
		}

		now := time.Now()
		if accountCSV {
			var buf bytes.Buffer
			exitOnError(report.WriteAccountCSV(&buf, acc), "failed to write CSV")
			path := writeExport(env, report.AccountFilename(acc.Student.Name, now), buf.Bytes())
			fmt.Printf("✓ Statement written to %s\n", path)
		}
		if accountHTML {
			var buf bytes.Buffer
			exitOnError(printout.RenderAccount(&buf, printout.AccountPage{Account: acc, GeneratedAt: now}), "failed to render statement")
			name := strings.TrimSuffix(report.AccountFilename(acc.Student.Name, now), ".csv") + ".html"
			path := writeExport(env, name, buf.Bytes())
			fmt.Printf("✓ Statement written to %s\n", path)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{studentAddCmd, studentUpdateCmd} {
		c.Flags().StringVar(&studentName, "name", "", "full name")
		c.Flags().StringVar(&studentDNI, "dni", "", "national ID")
		c.Flags().StringVar(&studentPhone, "phone", "", "phone number")
		c.Flags().StringVar(&studentLot, "lot", "", "lot")
		c.Flags().StringVar(&studentNeighborhood, "neighborhood", "", "neighborhood")
		c.Flags().StringVar(&studentCondition, "condition", "", "Titular or Familiar")
		c.Flags().StringVar(&studentObservations, "observations", "", "free-form notes")
	}
	studentAddCmd.MarkFlagRequired("name")

	studentListCmd.Flags().StringVarP(&studentSearch, "search", "q", "", "filter by name or DNI")

	for _, c := range []*cobra.Command{studentShowCmd, studentAccountCmd} {
		c.Flags().StringVar(&accountStatus, "status", "", "only entries with this attendance (Presente or Ausente)")
	}
	studentAccountCmd.Flags().BoolVar(&accountCSV, "csv", false, "write a CSV statement")
	studentAccountCmd.Flags().BoolVar(&accountHTML, "html", false, "write a printable HTML statement")

	studentCmd.AddCommand(studentListCmd, studentAddCmd, studentUpdateCmd, studentDeleteCmd, studentShowCmd, studentAccountCmd)
}

// studentFromFlags overlays the non-empty flags on st.
func studentFromFlags(st domain.Student) domain.Student {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&st.Name, studentName)
	set(&st.DNI, studentDNI)
	set(&st.Phone, studentPhone)
	set(&st.Lot, studentLot)
	set(&st.Neighborhood, studentNeighborhood)
	set(&st.Observations, studentObservations)
	if studentCondition != "" {
		st.Condition = domain.Condition(studentCondition)
	}
	if st.Condition == "" {
		st.Condition = domain.ConditionTitular
	}
	return st
}

func printAccount(acc app.Account) {
	fmt.Printf("=== Cuenta Corriente: %s ===\n\n", acc.Student.Name)
	fmt.Printf("%-10s  %-32s %-9s %14s  %s\n", "Fecha", "Concepto", "Asistió", "Importe", "Estado")
	for _, l := range acc.Lines {
		fmt.Printf("%-10s  %-32s %-9s %14s  %s\n",
			shortDate(l.Entry.Date), truncate(l.Entry.ClassName, 32), l.Entry.AttendanceStatus, money(l.Entry.Amount), l.PaymentStatus)
	}
	fmt.Println()
	fmt.Printf("Presentes: %d  Ausentes: %d\n", acc.Present, acc.Absent)
	fmt.Printf("Total:     %s\n", money(acc.TotalAmount))
	fmt.Printf("Pagado:    %s\n", money(acc.TotalPaid))
	fmt.Printf("Pendiente: %s\n", money(acc.TotalPending))
}

// writeExport writes data into the export directory and returns the path.
func writeExport(env *environment, name string, data []byte) string {
	path := env.paths.ExportPath(name)
	exitOnError(env.paths.EnsureParentDir(path), "failed to create export directory")
	exitOnError(os.WriteFile(path, data, 0644), "failed to write "+name)
	return path
}
