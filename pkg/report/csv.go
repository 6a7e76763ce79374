package report

import (
	"bufio"
	"io"
	"strings"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

const bom = "\ufeff"

// writeCSV writes a UTF-8 CSV with a byte order mark and every field
// double-quoted.
func writeCSV(w io.Writer, headers []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return err
	}
	if err := writeRecord(bw, headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRecord(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// WriteTransactionsCSV writes the transaction report as CSV.
func WriteTransactionsCSV(w io.Writer, rep Transactions) error {
	rows := make([][]string, 0, len(rep.Rows))
	for _, r := range rep.Rows {
		rows = append(rows, r.fields())
	}
	return writeCSV(w, TransactionHeaders, rows)
}

// WriteReceiptsCSV writes one row per receipt line.
func WriteReceiptsCSV(w io.Writer, receipts []domain.Receipt) error {
	return writeCSV(w, ReceiptHeaders, receiptRows(receipts))
}

// WriteAccountCSV writes the account history of a student.
func WriteAccountCSV(w io.Writer, acc app.Account) error {
	return writeCSV(w, AccountHeaders, accountRows(acc))
}
