// Package pathutil centralizes where the club's files live: the store,
// ledger month files, report exports and backups.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver resolves paths below the data directory.
type PathResolver struct {
	dataDir      string
	databasePath string
	boltPath     string
	ledgerDir    string
	exportDir    string
	backupDir    string
}

// Config holds the directories of a PathResolver. Empty entries default to
// locations under DataDir.
type Config struct {
	// DataDir is the root of everything the tool writes (e.g. ~/.club-billing)
	DataDir string
	// DatabasePath is the SQLite database file
	DatabasePath string
	// BoltPath is the bbolt database file
	BoltPath  string
	LedgerDir string
	ExportDir string
	BackupDir string
}

// New creates a PathResolver.
// Defaults: {DataDir}/club.db, {DataDir}/club.bolt, {DataDir}/ledger,
// {DataDir}/exports and {DataDir}/backups.
func New(config Config) *PathResolver {
	return &PathResolver{
		dataDir:      config.DataDir,
		databasePath: orDefault(config.DatabasePath, filepath.Join(config.DataDir, "club.db")),
		boltPath:     orDefault(config.BoltPath, filepath.Join(config.DataDir, "club.bolt")),
		ledgerDir:    orDefault(config.LedgerDir, filepath.Join(config.DataDir, "ledger")),
		exportDir:    orDefault(config.ExportDir, filepath.Join(config.DataDir, "exports")),
		backupDir:    orDefault(config.BackupDir, filepath.Join(config.DataDir, "backups")),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// DataDir returns the data directory.
func (p *PathResolver) DataDir() string {
	return p.dataDir
}

// DatabasePath returns the SQLite database file path.
func (p *PathResolver) DatabasePath() string {
	return p.databasePath
}

// BoltPath returns the bbolt database file path.
func (p *PathResolver) BoltPath() string {
	return p.boltPath
}

// LedgerDir returns the root of the Beancount ledger.
func (p *PathResolver) LedgerDir() string {
	return p.ledgerDir
}

// ExportDir returns the directory where reports are written.
func (p *PathResolver) ExportDir() string {
	return p.exportDir
}

// BackupDir returns the directory where backups are written.
func (p *PathResolver) BackupDir() string {
	return p.backupDir
}

// YearDir returns the ledger directory for a year.
// Example: ledger/2024
func (p *PathResolver) YearDir(year string) string {
	return filepath.Join(p.ledgerDir, year)
}

// MonthFilePath returns the ledger file of a month. yearMonth is YYYY-MM.
// Example: ledger/2024/2024-05.beancount
func (p *PathResolver) MonthFilePath(yearMonth string) (string, error) {
	year, month, ok := strings.Cut(yearMonth, "-")
	if !ok || len(year) != 4 || len(month) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}
	return filepath.Join(p.YearDir(year), yearMonth+".beancount"), nil
}

// ExportPath returns the path of a report file.
func (p *PathResolver) ExportPath(filename string) string {
	return filepath.Join(p.exportDir, filepath.Base(filename))
}

// EnsureDir creates a directory and its parents.
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
