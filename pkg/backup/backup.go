// Package backup exports and imports the versioned JSON backup of the club
// data.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// Version is the backup format version written by Export.
const Version = "1.0"

// Metadata summarizes the backup contents.
type Metadata struct {
	TotalStudents     int `json:"totalStudents"`
	TotalClasses      int `json:"totalClasses"`
	TotalTransactions int `json:"totalTransactions"`
	TotalReceipts     int `json:"totalReceipts"`
}

// Document is a backup file.
type Document struct {
	Version      string               `json:"version"`
	ExportDate   time.Time            `json:"exportDate"`
	ClubID       string               `json:"clubId,omitempty"`
	ClubName     string               `json:"clubName"`
	Students     []domain.Student     `json:"students"`
	Classes      []domain.Class       `json:"classes"`
	Transactions []domain.Transaction `json:"transactions"`
	Receipts     []domain.Receipt     `json:"receipts"`
	Metadata     Metadata             `json:"metadata"`
}

// ImportError is returned when a backup cannot be imported. Msg is meant
// for the user.
type ImportError struct {
	Msg string
	Err error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// New builds a backup of s.
func New(s app.State, clubName string, now time.Time) Document {
	s = s.Normalize()
	return Document{
		Version:      Version,
		ExportDate:   now.UTC(),
		ClubID:       "default",
		ClubName:     clubName,
		Students:     s.Students,
		Classes:      s.Classes,
		Transactions: s.Transactions,
		Receipts:     s.Receipts,
		Metadata: Metadata{
			TotalStudents:     len(s.Students),
			TotalClasses:      len(s.Classes),
			TotalTransactions: len(s.Transactions),
			TotalReceipts:     len(s.Receipts),
		},
	}
}

// Export writes the backup of s to w as indented JSON.
func Export(w io.Writer, s app.State, clubName string, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(New(s, clubName, now)); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Filename returns the backup file name for a time,
// backup-padel-YYYY-MM-DD-HH-MM-SS.json.
func Filename(now time.Time) string {
	return "backup-padel-" + now.Format("2006-01-02-15-04-05") + ".json"
}

// WriteFile exports s into dir and returns the file path.
func WriteFile(dir string, s app.State, clubName string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, Filename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if err := Export(f, s, clubName, now); err != nil {
		return "", err
	}
	return path, f.Close()
}

var requiredFields = []string{"version", "exportDate", "students", "classes", "transactions", "receipts", "metadata"}

// Import reads and checks a backup. Any problem is an *ImportError.
func Import(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, &ImportError{Msg: "No se pudo leer el archivo", Err: err}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, &ImportError{Msg: "El archivo no es un JSON válido", Err: err}
	}

	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return Document{}, &ImportError{Msg: "Campo requerido faltante: " + field}
		}
	}
	for _, field := range []string{"students", "classes", "transactions", "receipts"} {
		if !startsWith(raw[field], '[') {
			return Document{}, &ImportError{Msg: "Los datos deben ser arrays válidos"}
		}
	}
	if !startsWith(raw["metadata"], '{') {
		return Document{}, &ImportError{Msg: "Metadata inválida"}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, &ImportError{Msg: "El backup contiene datos inválidos", Err: err}
	}
	return doc, nil
}

// ImportFile imports the backup at path.
func ImportFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, &ImportError{Msg: "No se pudo abrir el archivo", Err: err}
	}
	defer f.Close()
	return Import(f)
}

func startsWith(raw json.RawMessage, c byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == c
}

// Restore returns the command that replaces the state with the backup.
func (d Document) Restore() app.Restore {
	return app.Restore{
		Students:     d.Students,
		Classes:      d.Classes,
		Transactions: d.Transactions,
		Receipts:     d.Receipts,
	}
}

// Summary is a one-line description of the contents, as shown before
// restoring.
func (d Document) Summary() string {
	return fmt.Sprintf("%d alumnos, %d clases, %d transacciones, %d recibos",
		d.Metadata.TotalStudents, d.Metadata.TotalClasses, d.Metadata.TotalTransactions, d.Metadata.TotalReceipts)
}
