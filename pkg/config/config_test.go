package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

func TestLoadFromEnvFile(t *testing.T) {
	for _, key := range []string{"CLUB_DATA_DIR", "CLUB_STORE_DRIVER", "HTTP_ADDR", "DEBUG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "CLUB_DATA_DIR=/srv/club\nCLUB_STORE_DRIVER=Bolt\nDEBUG=true\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.DataDir != "/srv/club" {
		t.Errorf("DataDir = %q", cfg.Store.DataDir)
	}
	if cfg.Store.Driver != DriverBolt {
		t.Errorf("Driver = %q, expected %q", cfg.Store.Driver, DriverBolt)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.HTTP.Addr)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load() with a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		required []string
		errPart  string
	}{
		{
			name:     "ok",
			cfg:      Config{Store: StoreConfig{Driver: DriverSQLite, DataDir: "data"}},
			required: []string{"store.dataDir"},
		},
		{
			name:     "missing key",
			cfg:      Config{Store: StoreConfig{Driver: DriverSQLite}},
			required: []string{"store.dataDir", "settingsFile"},
			errPart:  "[store.dataDir settingsFile]",
		},
		{
			name:    "unknown driver",
			cfg:     Config{Store: StoreConfig{Driver: "postgres"}},
			errPart: `unknown store driver "postgres"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.required...)
			if tt.errPart == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Validate() error = %v, expected to contain %q", err, tt.errPart)
			}
		})
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "club.yaml")
	content := `club_name: "Padel Norte"
receipt_footer: "Gracias por su pago"
default_prices:
  group: 1500
  individual: 4000.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.ClubName != "Padel Norte" || s.ReceiptFooter != "Gracias por su pago" {
		t.Errorf("settings = %+v", s)
	}
	if s.Currency != "ARS" {
		t.Errorf("Currency = %q, expected default ARS", s.Currency)
	}

	tests := []struct {
		classType domain.ClassType
		expected  string
	}{
		{domain.ClassGroup, "1500"},
		{domain.ClassIndividual, "4000.5"},
	}
	for _, tt := range tests {
		if got := s.DefaultPrice(tt.classType); !got.Equal(decimal.RequireFromString(tt.expected)) {
			t.Errorf("DefaultPrice(%q) = %s, expected %s", tt.classType, got, tt.expected)
		}
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.ClubName == "" || !s.DefaultPrice(domain.ClassGroup).IsZero() {
		t.Errorf("defaults = %+v", s)
	}
}
