package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `ibans:
  - iban: AT611904300234573201
    account: Assets:Bank:Savings
    note: savings transfer
cards:
  - card: VISA 1234
    account: Liabilities:CreditCard
mapping:
  - search: grocery|supermarkt
    account: Expenses:Groceries
creditor_and_debitor_mapping:
  - payee: Max Mustermann
    account: Assets:Receivables:Max
sepa:
  creditors:
    - creditor_id: AT12ZZZ00000001234
      account: Expenses:Utilities
  mandates:
    - mandate_id: WE-2020-445566
      account: Expenses:Utilities:Power
transfer_accounts:
  bank: Assets:Transfer
  cash: Expenses:Cash
filter:
  payee:
    - pattern: " GMBH"
      replacement: ""
fallback_account: Expenses:Unknown
revolut:
  account: Assets:Bank:Revolut
  fee_account: Expenses:Fees
erste:
  account: Assets:Bank:Erste
pdftotext:
  path: /usr/local/bin/pdftotext
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.IBANs, 1)
	assert.Equal(t, "AT611904300234573201", cfg.IBANs[0].IBAN)
	assert.Equal(t, "savings transfer", cfg.IBANs[0].Note)
	assert.Equal(t, "VISA 1234", cfg.Cards[0].Card)
	assert.Equal(t, "grocery|supermarkt", cfg.Mapping[0].Search)
	assert.Equal(t, "Max Mustermann", cfg.CreditorsDebtors[0].Payee)
	assert.Equal(t, "AT12ZZZ00000001234", cfg.Sepa.Creditors[0].CreditorID)
	assert.Equal(t, "WE-2020-445566", cfg.Sepa.Mandates[0].MandateID)
	assert.Equal(t, "Assets:Transfer", cfg.TransferAccounts.Bank)
	assert.Equal(t, " GMBH", cfg.Filter.Payee[0].Pattern)
	assert.Equal(t, "Expenses:Unknown", cfg.FallbackAccount)
	assert.Equal(t, "Expenses:Fees", cfg.Revolut.FeeAccount)
	assert.Equal(t, "Assets:Bank:Erste", cfg.Erste.Account)
	assert.Equal(t, "/usr/local/bin/pdftotext", cfg.Pdftotext.Path)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "transfer_accounts:\n  bank: Assets:Transfer\n  cash: Expenses:Cash\n"))
	require.NoError(t, err)
	assert.Equal(t, "pdftotext", cfg.Pdftotext.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "ibans: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transfer_accounts")

	cfg.TransferAccounts = TransferAccounts{Bank: "Assets:Transfer", Cash: "Expenses:Cash"}
	require.NoError(t, cfg.Validate())

	cfg.Mapping = []TextMapping{{Search: "grocery"}}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping[0]")

	cfg.Mapping = nil
	cfg.IBANs = []IbanMapping{{Account: "Assets:Bank"}}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ibans[0]")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := &Config{
		IBANs:            []IbanMapping{{IBAN: "AT611904300234573201", Account: "Assets:Bank:Savings"}},
		TransferAccounts: TransferAccounts{Bank: "Assets:Transfer", Cash: "Expenses:Cash"},
	}
	require.NoError(t, Save(path, original))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original.IBANs, loaded.IBANs)
	assert.Equal(t, original.TransferAccounts, loaded.TransferAccounts)
}
