// Package converter turns the club's charges and receipts into Beancount
// transactions.
package converter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// AccountMapping maps a club value (class type or payment method) to a
// Beancount account.
type AccountMapping struct {
	Club      string `yaml:"club"`
	Beancount string `yaml:"beancount"`
}

// AccountMappingConfig represents the complete account mapping configuration.
type AccountMappingConfig struct {
	Receivable string           `yaml:"receivable"`
	Discounts  string           `yaml:"discounts"`
	Income     []AccountMapping `yaml:"income"`
	Payments   []AccountMapping `yaml:"payments"`
}

// DefaultMappingConfig is used when no mapping file is configured.
func DefaultMappingConfig() AccountMappingConfig {
	return AccountMappingConfig{
		Receivable: "Assets:Cuentas:Alumnos",
		Discounts:  "Expenses:Descuentos",
		Income: []AccountMapping{
			{Club: string(domain.ClassGroup), Beancount: "Income:Clases:Grupales"},
			{Club: string(domain.ClassIndividual), Beancount: "Income:Clases:Individuales"},
		},
		Payments: []AccountMapping{
			{Club: string(domain.MethodCash), Beancount: "Assets:Caja"},
			{Club: string(domain.MethodTransfer), Beancount: "Assets:Banco"},
			{Club: string(domain.MethodCard), Beancount: "Assets:Tarjetas"},
		},
	}
}

const (
	fallbackIncome  = "Income:Clases"
	fallbackPayment = "Assets:Caja"
)

// Mapper maps club concepts to Beancount account names.
type Mapper struct {
	config   AccountMappingConfig
	income   map[string]string
	payments map[string]string
}

// NewMapper creates a new Mapper from a YAML configuration file. An empty
// path uses DefaultMappingConfig.
func NewMapper(configPath string) (*Mapper, error) {
	if configPath == "" {
		return NewMapperFromConfig(DefaultMappingConfig()), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultMappingConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return NewMapperFromConfig(config), nil
}

// NewMapperFromConfig creates a Mapper from an in-memory configuration.
func NewMapperFromConfig(config AccountMappingConfig) *Mapper {
	m := &Mapper{
		config:   config,
		income:   make(map[string]string, len(config.Income)),
		payments: make(map[string]string, len(config.Payments)),
	}
	for _, mapping := range config.Income {
		m.income[mapping.Club] = mapping.Beancount
	}
	for _, mapping := range config.Payments {
		m.payments[mapping.Club] = mapping.Beancount
	}
	return m
}

// IncomeAccount returns the revenue account of a class type.
func (m *Mapper) IncomeAccount(t domain.ClassType) string {
	if account := m.income[string(t)]; account != "" {
		return account
	}
	return fallbackIncome
}

// PaymentAccount returns the account money collected with method lands in.
// Combined payments go to the cash account.
func (m *Mapper) PaymentAccount(method domain.PaymentMethod) string {
	if account := m.payments[string(method)]; account != "" {
		return account
	}
	if account := m.payments[string(domain.MethodCash)]; account != "" {
		return account
	}
	return fallbackPayment
}

// ReceivableAccount returns the account holding what students owe.
func (m *Mapper) ReceivableAccount() string {
	return m.config.Receivable
}

// DiscountAccount returns the account discounts are booked to.
func (m *Mapper) DiscountAccount() string {
	return m.config.Discounts
}

// Accounts returns every account the mapper can produce, for open
// directives.
func (m *Mapper) Accounts() []string {
	seen := map[string]bool{}
	var out []string
	add := func(a string) {
		if a != "" && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	add(m.config.Receivable)
	add(m.config.Discounts)
	for _, mapping := range m.config.Income {
		add(mapping.Beancount)
	}
	add(fallbackIncome)
	for _, mapping := range m.config.Payments {
		add(mapping.Beancount)
	}
	add(fallbackPayment)
	return out
}
