// Package config defines the rule configuration consumed by the import
// pipeline. The file is loaded once per run and treated as immutable.
package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config is the top-level bankimport configuration.
type Config struct {
	IBANs            []IbanMapping     `yaml:"ibans"`
	Cards            []CardMapping     `yaml:"cards"`
	Mapping          []TextMapping     `yaml:"mapping"`
	CreditorsDebtors []PayeeMapping    `yaml:"creditor_and_debitor_mapping"`
	Sepa             SepaConfig        `yaml:"sepa"`
	TransferAccounts TransferAccounts  `yaml:"transfer_accounts"`
	Filter           WordFilter        `yaml:"filter,omitempty"`
	FallbackAccount  string            `yaml:"fallback_account,omitempty"`
	Revolut          RevolutConfig     `yaml:"revolut,omitempty"`
	Erste            ImporterAccount   `yaml:"erste,omitempty"`
	Cardcomplete     ImporterAccount   `yaml:"cardcomplete,omitempty"`
	Flatex           ImporterAccount   `yaml:"flatex,omitempty"`
	Pdftotext        PdftotextConfig   `yaml:"pdftotext,omitempty"`
}

// IbanMapping maps an IBAN to a ledger account. The table serves two
// purposes: identifying the own account a file belongs to, and matching
// counterparty IBANs (transfers between own accounts).
type IbanMapping struct {
	IBAN    string `yaml:"iban"`
	Account string `yaml:"account"`
	Note    string `yaml:"note,omitempty"`
}

// CardMapping maps a card number or label to a ledger account.
type CardMapping struct {
	Card    string `yaml:"card"`
	Account string `yaml:"account"`
	Note    string `yaml:"note,omitempty"`
}

// TextMapping posts to an account when its search pattern (a
// case-insensitive regular expression) matches the transaction's memo
// or payee.
type TextMapping struct {
	Search  string `yaml:"search"`
	Account string `yaml:"account"`
	Note    string `yaml:"note,omitempty"`
}

// PayeeMapping posts to an account on exact payee equality, used for
// payables/receivables counterparties.
type PayeeMapping struct {
	Payee   string `yaml:"payee"`
	Account string `yaml:"account"`
	Note    string `yaml:"note,omitempty"`
}

// SepaConfig holds the SEPA direct-debit identifier mappings.
type SepaConfig struct {
	Creditors []SepaCreditorMapping `yaml:"creditors"`
	Mandates  []SepaMandateMapping  `yaml:"mandates"`
}

// SepaCreditorMapping maps a SEPA creditor ID to a ledger account.
type SepaCreditorMapping struct {
	CreditorID string `yaml:"creditor_id"`
	Account    string `yaml:"account"`
	Note       string `yaml:"note,omitempty"`
}

// SepaMandateMapping maps a SEPA mandate ID to a ledger account.
type SepaMandateMapping struct {
	MandateID string `yaml:"mandate_id"`
	Account   string `yaml:"account"`
	Note      string `yaml:"note,omitempty"`
}

// TransferAccounts are the fallback accounts for transactions no rule
// matched: bank-like movements post against Bank, cash-like against Cash.
type TransferAccounts struct {
	Bank string `yaml:"bank"`
	Cash string `yaml:"cash"`
}

// WordFilter removes or replaces words in resulting payees.
type WordFilter struct {
	Payee []FilterEntry `yaml:"payee,omitempty"`
}

// FilterEntry replaces every occurrence of Pattern with Replacement.
type FilterEntry struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// RevolutConfig holds the Revolut settlement account and the account
// fees are posted against.
type RevolutConfig struct {
	Account    string `yaml:"account"`
	FeeAccount string `yaml:"fee_account,omitempty"`
}

// ImporterAccount is the own-side account for formats that do not carry
// an owner IBAN in every record.
type ImporterAccount struct {
	Account string `yaml:"account"`
}

// PdftotextConfig locates the poppler pdftotext binary used for PDF
// inputs.
type PdftotextConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		Pdftotext: PdftotextConfig{Path: "pdftotext"},
	}
}

// Load reads a config file from disk and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.TransferAccounts.Bank == "" || c.TransferAccounts.Cash == "" {
		return fmt.Errorf("config: transfer_accounts.bank and transfer_accounts.cash are required")
	}
	for i, m := range c.Mapping {
		if m.Search == "" || m.Account == "" {
			return fmt.Errorf("config: mapping[%d] needs both search and account", i)
		}
	}
	for i, m := range c.IBANs {
		if m.IBAN == "" || m.Account == "" {
			return fmt.Errorf("config: ibans[%d] needs both iban and account", i)
		}
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
