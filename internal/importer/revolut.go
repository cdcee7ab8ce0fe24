package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bankimport-dev/bankimport/internal/model"
)

// RevolutParser parses Revolut account CSV exports.
//
// Schema: comma-delimited, UTF-8, header row with at least the columns
// Type, Started Date, Completed Date, Description, Amount, Fee,
// Currency, State. Dates are ISO ("2006-01-02 15:04:05"), amounts use a
// dot decimal separator and are already signed from the account
// holder's perspective.
type RevolutParser struct{}

// Format returns the parser name.
func (p *RevolutParser) Format() string { return "revolut" }

var revolutColumns = []string{
	"Type", "Started Date", "Completed Date", "Description", "Amount", "Fee", "Currency", "State",
}

// Parse reads a Revolut CSV export.
func (p *RevolutParser) Parse(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading revolut header: %w", ErrUnsupportedVersion)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range revolutColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("revolut header missing column %q: %w", name, ErrUnsupportedVersion)
		}
	}

	result := &ParseResult{}
	for recNum := 1; ; recNum++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Problems = append(result.Problems, &RecordError{
				Record: recNum,
				Err:    fmt.Errorf("%w: %v", ErrMalformedRecord, err),
			})
			continue
		}

		raw, err := parseRevolutRow(rec, cols)
		if err != nil {
			result.Problems = append(result.Problems, &RecordError{Record: recNum, Err: err})
			continue
		}
		raw.Seq = recNum
		result.Records = append(result.Records, raw)
	}
	return result, nil
}

func parseRevolutRow(rec []string, cols map[string]int) (model.RawTransaction, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	completed := field("Completed Date")
	if len(completed) < 10 {
		return model.RawTransaction{}, fmt.Errorf("%w: completed date %q", ErrMalformedRecord, completed)
	}

	amount := field("Amount")
	if !validAmount(amount, false) {
		return model.RawTransaction{}, fmt.Errorf("%w: amount %q", ErrMalformedRecord, amount)
	}
	fee := field("Fee")
	if fee != "" && !validAmount(fee, false) {
		return model.RawTransaction{}, fmt.Errorf("%w: fee %q", ErrMalformedRecord, fee)
	}

	return model.RawTransaction{
		Date:     completed[:10],
		Amount:   amount,
		Fee:      fee,
		Currency: field("Currency"),
		Payee:    field("Description"),
		Memo:     field("Description"),
		TypeCode: field("Type"),
		Pending:  !strings.EqualFold(field("State"), "COMPLETED"),
	}, nil
}
