// Package printout renders printable receipts and account statements as
// HTML and, through headless Chrome, as PDF.
package printout

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var methodNames = map[domain.PaymentMethod]string{
	domain.MethodCash:     "Efectivo",
	domain.MethodTransfer: "Transferencia",
	domain.MethodCard:     "Tarjeta",
	domain.MethodCombined: "Combinado",
}

var funcs = template.FuncMap{
	"money": domain.FormatMoney,
	"date":  func(t time.Time) string { return t.Format("02/01/2006") },
	"lower": func(v any) string { return strings.ToLower(fmt.Sprint(v)) },
	"method": func(m domain.PaymentMethod) string {
		if name, ok := methodNames[m]; ok {
			return name
		}
		return string(m)
	},
}

var templates = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

// ReceiptPage is the data of a printed receipt.
type ReceiptPage struct {
	ClubName string
	Footer   string
	Receipt  domain.Receipt
}

// AccountPage is the data of a printed account statement.
type AccountPage struct {
	Account     app.Account
	GeneratedAt time.Time
}

// RenderReceipt writes the receipt as a self-contained HTML page.
func RenderReceipt(w io.Writer, p ReceiptPage) error {
	if err := templates.ExecuteTemplate(w, "receipt.html", p); err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}
	return nil
}

// RenderAccount writes the account statement as a self-contained HTML page.
func RenderAccount(w io.Writer, p AccountPage) error {
	if err := templates.ExecuteTemplate(w, "account.html", p); err != nil {
		return fmt.Errorf("failed to render account: %w", err)
	}
	return nil
}
