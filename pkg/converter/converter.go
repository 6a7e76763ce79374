package converter

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/beancount"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/report"
)

const dateLayout = "2006-01-02"

// Converter converts attended classes and receipts to Beancount format.
type Converter struct {
	mapper   *Mapper
	currency string
}

// NewConverter creates a new Converter.
func NewConverter(mapper *Mapper, currency string) *Converter {
	if currency == "" {
		currency = "ARS"
	}
	return &Converter{
		mapper:   mapper,
		currency: currency,
	}
}

// EntryLink is the Beancount link of an attendance entry.
func EntryLink(e domain.AccountEntry) string { return "entry-" + e.ID }

// ReceiptLink is the Beancount link of a receipt.
func ReceiptLink(r domain.Receipt) string { return "receipt-" + r.ID }

// ConvertAttendance books an attended class: the student owes the price
// and the club earns it.
func (c *Converter) ConvertAttendance(st domain.Student, e domain.AccountEntry, classType domain.ClassType) beancount.Transaction {
	return beancount.Transaction{
		Date:      e.Date.Format(dateLayout),
		Payee:     st.Name,
		Narration: e.ClassName,
		Tags:      []string{"clase"},
		Links:     []string{EntryLink(e)},
		Metadata:  map[string]string{"student": st.ID},
		Postings: []beancount.Posting{
			{Account: c.mapper.ReceivableAccount(), Amount: e.Amount, Currency: c.currency},
			{Account: c.mapper.IncomeAccount(classType), Amount: e.Amount.Neg(), Currency: c.currency},
		},
	}
}

// ConvertReceipt books a reconciliation: money collected and discount
// granted both reduce what the student owes. The carried balance stays
// receivable.
func (c *Converter) ConvertReceipt(r domain.Receipt) beancount.Transaction {
	var postings []beancount.Posting
	settled := decimal.Zero

	if paid := r.PaidAmount(); paid.IsPositive() {
		postings = append(postings, beancount.Posting{
			Account:  c.mapper.PaymentAccount(r.PaymentMethod),
			Amount:   paid,
			Currency: c.currency,
			Comment:  string(r.PaymentMethod),
		})
		settled = settled.Add(paid)
	}
	if r.DiscountAmount.IsPositive() {
		postings = append(postings, beancount.Posting{
			Account:  c.mapper.DiscountAccount(),
			Amount:   r.DiscountAmount,
			Currency: c.currency,
			Comment:  "Descuento",
		})
		settled = settled.Add(r.DiscountAmount)
	}
	postings = append(postings, beancount.Posting{
		Account:  c.mapper.ReceivableAccount(),
		Amount:   settled.Neg(),
		Currency: c.currency,
	})

	narration := fmt.Sprintf("Recibo %d clase(s)", len(r.Transactions))
	if r.Note != "" {
		narration = r.Note
	}

	return beancount.Transaction{
		Date:      r.Date.Format(dateLayout),
		Payee:     r.StudentName,
		Narration: narration,
		Tags:      []string{"recibo"},
		Links:     []string{ReceiptLink(r)},
		Metadata:  map[string]string{"student": r.StudentID},
		Postings:  postings,
	}
}

// FormatTransaction formats a Beancount transaction as a string.
func (c *Converter) FormatTransaction(txn beancount.Transaction) string {
	var sb strings.Builder

	sb.WriteString(txn.Date)
	sb.WriteString(" *")
	if txn.Payee != "" {
		fmt.Fprintf(&sb, " %s", quote(txn.Payee))
	}
	fmt.Fprintf(&sb, " %s", quote(txn.Narration))
	for _, tag := range txn.Tags {
		sb.WriteString(" #" + tag)
	}
	for _, link := range txn.Links {
		sb.WriteString(" ^" + link)
	}
	sb.WriteString("\n")

	for _, key := range slices.Sorted(maps.Keys(txn.Metadata)) {
		fmt.Fprintf(&sb, "  %s: %s\n", key, quote(txn.Metadata[key]))
	}

	for _, posting := range txn.Postings {
		sb.WriteString("  ")
		sb.WriteString(posting.Account)

		// Right-align amount (typical Beancount style)
		spaces := max(1, 60-len(posting.Account))
		sb.WriteString(strings.Repeat(" ", spaces))
		fmt.Fprintf(&sb, "%s %s", posting.Amount.StringFixed(2), posting.Currency)

		if posting.Comment != "" {
			fmt.Fprintf(&sb, " ; %s", posting.Comment)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatOpenDirectives returns an open directive for every mapped account.
func (c *Converter) FormatOpenDirectives(date time.Time) string {
	var sb strings.Builder
	for _, account := range c.mapper.Accounts() {
		fmt.Fprintf(&sb, "%s open %s %s\n", date.Format(dateLayout), account, c.currency)
	}
	return sb.String()
}

// Result counts what an export did.
type Result struct {
	Written int
	Skipped int
}

type posting struct {
	date    time.Time
	month   string
	link    string
	comment string
	txn     beancount.Transaction
}

// Export appends every attended class and receipt in rng to the monthly
// files of repo. Items whose link is already present are skipped, so
// exporting twice writes nothing new.
func (c *Converter) Export(repo beancount.Repository, s app.State, rng report.Range) (Result, error) {
	var items []posting

	for _, st := range s.Students {
		for _, e := range st.AccountHistory {
			if e.Kind != domain.EntryClassAttendance || !e.Amount.IsPositive() || !rng.Contains(e.Date) {
				continue
			}
			var classType domain.ClassType
			if cl, ok := s.Class(e.ClassID); ok {
				classType = cl.Type
			}
			items = append(items, posting{
				date:    e.Date,
				month:   e.Date.Format("2006-01"),
				link:    EntryLink(e),
				comment: "asistencia",
				txn:     c.ConvertAttendance(st, e, classType),
			})
		}
	}

	for _, r := range s.Receipts {
		if !rng.Contains(r.Date) {
			continue
		}
		items = append(items, posting{
			date:    r.Date,
			month:   r.Date.Format("2006-01"),
			link:    ReceiptLink(r),
			comment: "recibo " + r.ID,
			txn:     c.ConvertReceipt(r),
		})
	}

	slices.SortStableFunc(items, func(a, b posting) int {
		return cmp.Or(a.date.Compare(b.date), strings.Compare(a.link, b.link))
	})

	var res Result
	for _, it := range items {
		exists, err := repo.HasLink(it.month, it.link)
		if err != nil {
			return res, fmt.Errorf("failed to check %s: %w", it.link, err)
		}
		if exists {
			res.Skipped++
			continue
		}
		if err := repo.AppendTransaction(it.month, c.FormatTransaction(it.txn), it.comment); err != nil {
			return res, fmt.Errorf("failed to append %s: %w", it.link, err)
		}
		res.Written++
	}
	return res, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `'`) + `"`
}
