package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// Settings are the club-specific values used on printouts, backups and
// new classes.
type Settings struct {
	ClubName      string             `yaml:"club_name"`
	Currency      string             `yaml:"currency"`
	Locale        string             `yaml:"locale"`
	ReceiptFooter string             `yaml:"receipt_footer"`
	Prices        map[string]float64 `yaml:"default_prices"`
}

// DefaultSettings are used when no settings file is configured.
func DefaultSettings() Settings {
	return Settings{
		ClubName: "Club de Pádel",
		Currency: "ARS",
		Locale:   "es-AR",
		Prices: map[string]float64{
			string(domain.ClassIndividual): 0,
			string(domain.ClassGroup):      0,
		},
	}
}

// LoadSettings reads a YAML settings file. Keys missing from the file keep
// their defaults; an empty path returns the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return s, nil
}

// DefaultPrice returns the configured price per student of a class type.
func (s Settings) DefaultPrice(t domain.ClassType) decimal.Decimal {
	return domain.Round(decimal.NewFromFloat(s.Prices[string(t)]))
}
