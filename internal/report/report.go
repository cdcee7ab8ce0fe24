// Package report writes the review report for transactions that no
// explicit rule matched, so the user can extend the configuration.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bankimport-dev/bankimport/internal/model"
)

// Header is the CSV header of the review report.
const Header = "date,payee,amount,currency,account,file,record"

const (
	numFields   = 7
	colDate     = 0
	colPayee    = 1
	colAmount   = 2
	colCurrency = 3
	colAccount  = 4
	colFile     = 5
	colRecord   = 6
)

// MarshalRow converts one unmatched transaction to a CSV row.
func MarshalRow(file string, t model.ResolvedTransaction) []string {
	row := make([]string, numFields)
	row[colDate] = t.Date.Format("2006-01-02")
	row[colPayee] = t.Description
	row[colAmount] = model.AmountString(t.Amount)
	row[colCurrency] = t.Currency
	row[colAccount] = t.ContraAccount
	row[colFile] = file
	row[colRecord] = fmt.Sprintf("%d", t.Seq)
	return row
}

// Write writes a complete report (header plus one row per transaction).
func Write(w io.Writer, file string, unmatched []model.ResolvedTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	for i, t := range unmatched {
		if err := cw.Write(MarshalRow(file, t)); err != nil {
			return fmt.Errorf("writing report row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Append adds rows to a report file, creating it with a header first if
// needed.
func Append(path, file string, unmatched []model.ResolvedTransaction) error {
	if len(unmatched) == 0 {
		return nil
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing report header: %w", err)
		}
	}
	for i, t := range unmatched {
		if err := cw.Write(MarshalRow(file, t)); err != nil {
			return fmt.Errorf("writing report row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
