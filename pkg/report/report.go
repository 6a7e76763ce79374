// Package report builds the transaction, receipt and account exports.
package report

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// DateLayout is the layout of report dates and filter bounds.
const DateLayout = "2006-01-02"

// Range selects records by date. Both bounds are optional and inclusive;
// To covers its whole day.
type Range struct {
	From *time.Time
	To   *time.Time
}

// ParseRange parses "YYYY-MM-DD" bounds in loc. Empty strings leave the
// bound open.
func ParseRange(from, to string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	var r Range
	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, loc)
		if err != nil {
			return Range{}, err
		}
		r.From = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return Range{}, err
		}
		r.To = &t
	}
	return r, nil
}

// Contains reports whether t falls within the range.
func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(r.To.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// TransactionRow is one line of the transaction report.
type TransactionRow struct {
	Fecha       string          `json:"fecha"`
	Alumno      string          `json:"alumno"`
	Tipo        string          `json:"tipo"`
	Clase       string          `json:"clase"`
	Descripcion string          `json:"descripcion"`
	Estado      string          `json:"estado"`
	Liquidacion string          `json:"liquidacion"`
	Monto       decimal.Decimal `json:"monto"`
}

// TransactionHeaders are the column names of the transaction report.
var TransactionHeaders = []string{"fecha", "alumno", "tipo", "clase", "descripcion", "estado", "liquidacion", "monto"}

func (r TransactionRow) fields() []string {
	return []string{r.Fecha, r.Alumno, r.Tipo, r.Clase, r.Descripcion, r.Estado, r.Liquidacion, r.Monto.StringFixed(2)}
}

// Transactions is the transaction report. Total sums charges only.
type Transactions struct {
	Rows  []TransactionRow `json:"rows"`
	Total decimal.Decimal  `json:"total"`
}

// BuildTransactions selects the transactions within r, in stored order.
func BuildTransactions(txns []domain.Transaction, r Range) Transactions {
	rep := Transactions{Rows: []TransactionRow{}, Total: decimal.Zero}
	for _, t := range txns {
		if !r.Contains(t.Date) {
			continue
		}
		rep.Rows = append(rep.Rows, TransactionRow{
			Fecha:       t.Date.Format(DateLayout),
			Alumno:      t.StudentName,
			Tipo:        string(t.Type),
			Clase:       t.ClassName,
			Descripcion: t.Description,
			Estado:      string(t.Status),
			Liquidacion: string(t.SettlementKind),
			Monto:       t.Amount,
		})
		if t.Type == domain.TypeCharge {
			rep.Total = rep.Total.Add(t.Amount)
		}
	}
	return rep
}

// TransactionsFilename names a transaction report export,
// reportes_<from|inicio>_<to|hoy>.<ext>.
func TransactionsFilename(from, to, ext string) string {
	if from == "" {
		from = "inicio"
	}
	if to == "" {
		to = "hoy"
	}
	return "reportes_" + from + "_" + to + "." + ext
}

// ReceiptFilter selects receipts by student name substring and date.
type ReceiptFilter struct {
	Name  string
	Range Range
}

// FilterReceipts returns the matching receipts, newest first.
func FilterReceipts(receipts []domain.Receipt, f ReceiptFilter) []domain.Receipt {
	name := strings.ToLower(strings.TrimSpace(f.Name))
	var out []domain.Receipt
	for _, r := range receipts {
		if name != "" && !strings.Contains(strings.ToLower(r.StudentName), name) {
			continue
		}
		if !f.Range.Contains(r.Date) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b domain.Receipt) int { return b.Date.Compare(a.Date) })
	return out
}

// ReceiptsTotal sums the billed totals of receipts.
func ReceiptsTotal(receipts []domain.Receipt) decimal.Decimal {
	total := decimal.Zero
	for _, r := range receipts {
		total = total.Add(r.TotalAmount)
	}
	return total
}

// ReceiptHeaders are the column names of the receipt lines export.
var ReceiptHeaders = []string{"ReciboID", "Alumno", "Fecha de Clase", "Clase", "Monto"}

func receiptRows(receipts []domain.Receipt) [][]string {
	var rows [][]string
	for _, r := range receipts {
		for _, l := range r.Transactions {
			rows = append(rows, []string{r.ID, r.StudentName, l.Date.Format("02/01/2006"), l.ClassName, l.Amount.StringFixed(2)})
		}
	}
	return rows
}

// ReceiptsFilename names a receipt lines export, recibos_<date>.csv.
func ReceiptsFilename(now time.Time) string {
	return "recibos_" + now.Format(DateLayout) + ".csv"
}

// AccountHeaders are the column names of the account history export.
var AccountHeaders = []string{"Fecha", "Clase", "Asistencia", "Monto", "Estado Pago"}

func accountRows(acc app.Account) [][]string {
	rows := make([][]string, 0, len(acc.Lines))
	for _, l := range acc.Lines {
		attendance := string(l.Entry.AttendanceStatus)
		if l.Entry.Kind == domain.EntryDiscount {
			attendance = "Descuento"
		}
		rows = append(rows, []string{
			l.Entry.Date.Format("02/01/2006"),
			l.Entry.ClassName,
			attendance,
			l.Entry.Amount.StringFixed(2),
			l.PaymentStatus,
		})
	}
	return rows
}

// AccountFilename names an account history export,
// cuenta_corriente_<student>_<date>.csv with spaces in the name replaced.
func AccountFilename(studentName string, now time.Time) string {
	name := strings.Join(strings.Fields(studentName), "_")
	return "cuenta_corriente_" + name + "_" + now.Format(DateLayout) + ".csv"
}
