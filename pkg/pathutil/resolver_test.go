package pathutil

import (
	"path/filepath"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	p := New(Config{DataDir: "/data"})

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"database", p.DatabasePath(), "/data/club.db"},
		{"bolt", p.BoltPath(), "/data/club.bolt"},
		{"ledger", p.LedgerDir(), "/data/ledger"},
		{"exports", p.ExportDir(), "/data/exports"},
		{"backups", p.BackupDir(), "/data/backups"},
		{"year", p.YearDir("2024"), "/data/ledger/2024"},
		{"export path", p.ExportPath("../recibos.csv"), "/data/exports/recibos.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.expected) {
				t.Errorf("%s = %q, expected %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestNewOverrides(t *testing.T) {
	p := New(Config{DataDir: "/data", DatabasePath: "/tmp/x.db", LedgerDir: "/books"})
	if p.DatabasePath() != "/tmp/x.db" {
		t.Errorf("DatabasePath() = %q", p.DatabasePath())
	}
	if p.LedgerDir() != "/books" {
		t.Errorf("LedgerDir() = %q", p.LedgerDir())
	}
}

func TestMonthFilePath(t *testing.T) {
	p := New(Config{DataDir: "/data"})

	tests := []struct {
		yearMonth string
		expected  string
		wantErr   bool
	}{
		{"2024-05", "/data/ledger/2024/2024-05.beancount", false},
		{"2024-5", "", true},
		{"202405", "", true},
		{"24-05", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.yearMonth, func(t *testing.T) {
			got, err := p.MonthFilePath(tt.yearMonth)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MonthFilePath(%q) error = %v, wantErr %v", tt.yearMonth, err, tt.wantErr)
			}
			if got != filepath.FromSlash(tt.expected) {
				t.Errorf("MonthFilePath(%q) = %q, expected %q", tt.yearMonth, got, tt.expected)
			}
		})
	}
}

func TestEnsureParentDir(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{DataDir: dir})

	file := filepath.Join(dir, "a", "b", "c.txt")
	if err := p.EnsureParentDir(file); err != nil {
		t.Fatalf("EnsureParentDir() error = %v", err)
	}
	if !p.FileExists(filepath.Dir(file)) {
		t.Error("parent directory not created")
	}
	if p.FileExists(file) {
		t.Error("file should not exist")
	}
}
