package beancount

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pigeonworks-llc/club-billing/pkg/pathutil"
)

// Repository stores transactions in one Beancount file per month.
type Repository interface {
	// AppendTransaction appends a transaction to a monthly file, preceded by
	// an optional comment line.
	AppendTransaction(yearMonth, transaction string, comment ...string) error

	// ReadMonthFile reads a monthly file; a missing file reads as empty.
	ReadMonthFile(yearMonth string) (string, error)

	MonthFileExists(yearMonth string) bool

	// MonthFilesInYear lists the months (YYYY-MM) that have a file.
	MonthFilesInYear(year string) ([]string, error)

	// EnsureMonthFile creates a monthly file with its header.
	EnsureMonthFile(yearMonth string) error

	// HasLink reports whether a monthly file already holds a transaction
	// with the given link.
	HasLink(yearMonth, link string) (bool, error)
}

// IndexFile is the ledger entry point that includes every other file.
const IndexFile = "main.beancount"

// FileSystemRepository keeps the ledger under the resolver's ledger
// directory, as <year>/<year>-<month>.beancount.
type FileSystemRepository struct {
	paths *pathutil.PathResolver
	title string
	now   func() time.Time
}

var _ Repository = (*FileSystemRepository)(nil)

// NewFileSystemRepository creates a FileSystemRepository. title is
// written in the header of new month files.
func NewFileSystemRepository(paths *pathutil.PathResolver, title string) *FileSystemRepository {
	if title == "" {
		title = "club-billing"
	}
	return &FileSystemRepository{paths: paths, title: title, now: time.Now}
}

func (r *FileSystemRepository) monthPath(yearMonth string) (string, error) {
	path, err := r.paths.MonthFilePath(yearMonth)
	if err != nil {
		return "", fmt.Errorf("ledger month %q: %w", yearMonth, err)
	}
	return path, nil
}

// AppendTransaction implements Repository.
func (r *FileSystemRepository) AppendTransaction(yearMonth, transaction string, comment ...string) error {
	path, err := r.monthPath(yearMonth)
	if err != nil {
		return err
	}
	if err := r.EnsureMonthFile(yearMonth); err != nil {
		return err
	}

	var b strings.Builder
	if len(comment) > 0 && comment[0] != "" {
		fmt.Fprintf(&b, "; %s\n", comment[0])
	}
	b.WriteString(strings.TrimRight(transaction, "\n"))
	b.WriteString("\n\n")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return f.Close()
}

// ReadMonthFile implements Repository.
func (r *FileSystemRepository) ReadMonthFile(yearMonth string) (string, error) {
	path, err := r.monthPath(yearMonth)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// MonthFileExists implements Repository.
func (r *FileSystemRepository) MonthFileExists(yearMonth string) bool {
	path, err := r.monthPath(yearMonth)
	return err == nil && r.paths.FileExists(path)
}

// MonthFilesInYear implements Repository. Months are sorted.
func (r *FileSystemRepository) MonthFilesInYear(year string) ([]string, error) {
	entries, err := os.ReadDir(r.paths.YearDir(year))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger year %s: %w", year, err)
	}

	months := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if month, ok := strings.CutSuffix(e.Name(), ".beancount"); ok && strings.HasPrefix(month, year+"-") {
			months = append(months, month)
		}
	}
	slices.Sort(months)
	return months, nil
}

// EnsureMonthFile implements Repository. An existing file is left alone.
func (r *FileSystemRepository) EnsureMonthFile(yearMonth string) error {
	path, err := r.monthPath(yearMonth)
	if err != nil {
		return err
	}
	if r.paths.FileExists(path) {
		return nil
	}
	if err := r.paths.EnsureParentDir(path); err != nil {
		return err
	}

	header := fmt.Sprintf("; %s ledger for %s\n; Generated at %s\n\n", r.title, yearMonth, r.now().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(header), 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}

// HasLink implements Repository. Only transaction header lines count;
// comments and postings are ignored.
func (r *FileSystemRepository) HasLink(yearMonth, link string) (bool, error) {
	content, err := r.ReadMonthFile(yearMonth)
	if err != nil {
		return false, err
	}
	want := "^" + link
	for line := range strings.Lines(content) {
		if strings.HasPrefix(line, ";") || strings.HasPrefix(line, " ") {
			continue
		}
		if slices.Contains(strings.Fields(line), want) {
			return true, nil
		}
	}
	return false, nil
}

// WriteIndex writes IndexFile into the ledger directory: the given
// preamble followed by an include for every other file, head files
// first and then every month in order. It returns the index path.
func (r *FileSystemRepository) WriteIndex(preamble string, head ...string) (string, error) {
	root := r.paths.LedgerDir()
	if err := r.paths.EnsureDir(root); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("failed to list ledger directory: %w", err)
	}

	var b strings.Builder
	b.WriteString(preamble)
	if preamble != "" && !strings.HasSuffix(preamble, "\n\n") {
		b.WriteString("\n")
	}
	for _, h := range head {
		fmt.Fprintf(&b, "include %q\n", h)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		months, err := r.MonthFilesInYear(e.Name())
		if err != nil {
			return "", err
		}
		for _, m := range months {
			fmt.Fprintf(&b, "include %q\n", filepath.ToSlash(filepath.Join(e.Name(), m+".beancount")))
		}
	}

	path := filepath.Join(root, IndexFile)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
