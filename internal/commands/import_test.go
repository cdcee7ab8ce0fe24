package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `transfer_accounts:
  bank: Assets:Transfer
  cash: Expenses:Cash
mapping:
  - search: grocery
    account: Expenses:Groceries
revolut:
  account: Assets:Bank:Revolut
  fee_account: Expenses:Fees
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o644))
	return path
}

func TestRunImport(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "journal.txt")
	reportPath := filepath.Join(dir, "unmatched.csv")

	err := runImport(importOptions{
		format:     "revolut",
		configPath: writeTestConfig(t),
		onError:    "skip",
		outputPath: outputPath,
		reportPath: reportPath,
		files:      []string{"../../testdata/revolut.csv"},
	})
	require.NoError(t, err)

	out, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	journal := string(out)

	assert.Contains(t, journal, "2025-01-04 * Grocery Store")
	assert.Contains(t, journal, "Expenses:Groceries")
	assert.Contains(t, journal, "12.34 EUR")
	assert.Contains(t, journal, "500.00 EUR") // source precision kept in output
	assert.Contains(t, journal, "Assets:Bank:Revolut")
	// The pending exchange renders uncleared.
	assert.Contains(t, journal, "2025-01-07 ! Exchanged to USD")
	// The card fee gets its own balanced entry.
	assert.Contains(t, journal, "Coffee Corner | fee")

	rep, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(rep), "\n"), "\n")
	require.Len(t, lines, 4) // header plus three fallback-resolved rows
	assert.Contains(t, lines[1], "Payment from John Doe")
}

func TestRunImport_OutputIsStable(t *testing.T) {
	configPath := writeTestConfig(t)
	render := func() string {
		outputPath := filepath.Join(t.TempDir(), "journal.txt")
		err := runImport(importOptions{
			format:     "revolut",
			configPath: configPath,
			onError:    "skip",
			outputPath: outputPath,
			files:      []string{"../../testdata/revolut.csv"},
		})
		require.NoError(t, err)
		out, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		return string(out)
	}
	assert.Equal(t, render(), render())
}

func TestRunImport_MissingConfig(t *testing.T) {
	err := runImport(importOptions{
		format:     "revolut",
		configPath: filepath.Join(t.TempDir(), "nope.yaml"),
		onError:    "skip",
		files:      []string{"../../testdata/revolut.csv"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestRunImport_UnknownPolicy(t *testing.T) {
	err := runImport(importOptions{
		format:     "revolut",
		configPath: writeTestConfig(t),
		onError:    "retry",
		files:      []string{"../../testdata/revolut.csv"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown error policy")
}

func TestRunImport_MissingFile(t *testing.T) {
	err := runImport(importOptions{
		format:     "revolut",
		configPath: writeTestConfig(t),
		onError:    "skip",
		outputPath: filepath.Join(t.TempDir(), "journal.txt"),
		files:      []string{"does-not-exist.csv"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.csv")
}

func TestFormatsCommand(t *testing.T) {
	cmd := newFormatsCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())

	formats := strings.Fields(buf.String())
	assert.Equal(t, []string{"revolut", "erste", "cardcomplete", "flatex", "flatex-pdf"}, formats)
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("BANKIMPORT_CONFIG", "/tmp/custom.yaml")
	t.Setenv("BANKIMPORT_PDFTOTEXT", "/opt/poppler/bin/pdftotext")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", s.ConfigPath)
	assert.Equal(t, "/opt/poppler/bin/pdftotext", s.PdftotextPath)
}
