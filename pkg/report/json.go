package report

import (
	"encoding/json"
	"io"
)

// WriteTransactionsJSON writes the report rows as an indented JSON array.
func WriteTransactionsJSON(w io.Writer, rep Transactions) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep.Rows)
}
