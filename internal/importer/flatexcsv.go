package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bankimport-dev/bankimport/internal/model"
)

// FlatexCsvParser parses flatex settlement account CSV exports.
//
// Schema: semicolon-delimited, header row with the columns Buchungstag,
// Valuta, Empfänger, Zahlungspfl., TA.Nr., Buchungsinformationen and
// Betrag, followed by an unnamed currency column. Dates use
// "02.01.2006", amounts German notation ("1.234,56"). The Zahlungspfl.
// column may hold "name/IBAN" with multiple slash-separated parts.
type FlatexCsvParser struct{}

// Format returns the parser name.
func (p *FlatexCsvParser) Format() string { return "flatex" }

var flatexColumns = []string{
	"Buchungstag", "Valuta", "Zahlungspfl.", "TA.Nr.", "Buchungsinformationen", "Betrag",
}

// Parse reads a flatex CSV export.
func (p *FlatexCsvParser) Parse(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading flatex header: %w", ErrUnsupportedVersion)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range flatexColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("flatex header missing column %q: %w", name, ErrUnsupportedVersion)
		}
	}
	// The currency column carries no header name; it follows Betrag.
	currencyCol := cols["Betrag"] + 1

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

		raw, err := parseFlatexRow(rec, cols, currencyCol)
		if err != nil {
			result.Problems = append(result.Problems, &RecordError{Record: recNum, Err: err})
			continue
		}
		raw.Seq = recNum
		result.Records = append(result.Records, raw)
	}
	return result, nil
}

func parseFlatexRow(rec []string, cols map[string]int, currencyCol int) (model.RawTransaction, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	date := field("Buchungstag")
	if date == "" {
		return model.RawTransaction{}, fmt.Errorf("%w: missing booking date", ErrMalformedRecord)
	}
	amount := field("Betrag")
	if !validAmount(amount, true) {
		return model.RawTransaction{}, fmt.Errorf("%w: amount %q", ErrMalformedRecord, amount)
	}

	currency := ""
	if currencyCol < len(rec) {
		currency = strings.TrimSpace(rec[currencyCol])
	}

	// Zahlungspfl. holds slash-separated counterparty details; the part
	// that looks like an IBAN feeds the IBAN rules.
	counterparty := field("Zahlungspfl.")
	iban := ""
	for _, part := range strings.Split(counterparty, "/") {
		if looksLikeIBAN(part) {
			iban = part
			break
		}
	}

	payee := field("Empfänger")
	if payee == "" {
		payee = strings.Split(counterparty, "/")[0]
	}

	return model.RawTransaction{
		Date:     date,
		Amount:   amount,
		Currency: currency,
		Payee:    payee,
		Memo:     field("Buchungsinformationen"),
		IBAN:     iban,
		RecordID: field("TA.Nr."),
	}, nil
}

// looksLikeIBAN reports whether s has the shape of an IBAN: two letters,
// two digits, then 10 to 30 alphanumerics.
func looksLikeIBAN(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 14 || len(s) > 34 {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' || s[1] < 'A' || s[1] > 'Z' {
		return false
	}
	if s[2] < '0' || s[2] > '9' || s[3] < '0' || s[3] > '9' {
		return false
	}
	for i := 4; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
