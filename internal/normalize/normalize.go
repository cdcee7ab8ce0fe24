// Package normalize converts raw format-native records into canonical
// transactions: one date convention, one sign convention, validated
// currency codes.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankimport-dev/bankimport/internal/currency"
	"github.com/bankimport-dev/bankimport/internal/model"
)

// ErrInvalidDate marks a booking date that does not match the source
// format's date layout.
var ErrInvalidDate = errors.New("invalid date")

// ErrUnknownCurrency marks a currency code that is not ISO-4217.
var ErrUnknownCurrency = errors.New("unknown currency")

// ErrInvalidAmount marks an amount that cannot be parsed as a decimal.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrUnknownFormat marks a format tag without a registered profile.
var ErrUnknownFormat = errors.New("unknown format")

// NormalizeError names the record field that failed normalization,
// wrapping one of the sentinel errors above.
type NormalizeError struct {
	Field string
	Value string
	Err   error
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *NormalizeError) Unwrap() error { return e.Err }

// Profile describes how one source format writes dates and amounts.
type Profile struct {
	DateLayout      string
	CommaDecimals   bool   // amounts use "1.234,56" notation
	InvertSign      bool   // amounts are from the bank's perspective
	DefaultCurrency string // used when a record carries no currency
}

// profiles maps format tags to their conventions. The set is closed:
// adding a format means adding a parser variant and a profile here.
var profiles = map[string]Profile{
	"revolut":      {DateLayout: "2006-01-02"},
	"erste":        {DateLayout: "2006-01-02"},
	"cardcomplete": {DateLayout: "02.01.2006", CommaDecimals: true},
	"flatex":       {DateLayout: "02.01.2006", CommaDecimals: true},
	"flatex-pdf":   {DateLayout: "02.01.2006", CommaDecimals: true, InvertSign: true, DefaultCurrency: "EUR"},
}

// ProfileFor returns the conventions of a format tag.
func ProfileFor(format string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(format)]
	return p, ok
}

// Filter is a payee cleanup rule: every occurrence of Pattern is
// replaced with Replacement.
type Filter struct {
	Pattern     string
	Replacement string
}

// Normalizer converts RawTransactions into CanonicalTransactions.
type Normalizer struct {
	filters []Filter
}

// New creates a Normalizer with the given payee filters.
func New(filters []Filter) *Normalizer {
	return &Normalizer{filters: filters}
}

// Normalize converts one raw record from the given source format.
func (n *Normalizer) Normalize(raw model.RawTransaction, format string) (model.CanonicalTransaction, error) {
	profile, ok := ProfileFor(format)
	if !ok {
		return model.CanonicalTransaction{}, &NormalizeError{Field: "format", Value: format, Err: ErrUnknownFormat}
	}

	date, err := time.Parse(profile.DateLayout, strings.TrimSpace(raw.Date))
	if err != nil {
		return model.CanonicalTransaction{}, &NormalizeError{Field: "date", Value: raw.Date, Err: ErrInvalidDate}
	}

	amount, err := ParseDecimal(raw.Amount, profile.CommaDecimals)
	if err != nil {
		return model.CanonicalTransaction{}, &NormalizeError{Field: "amount", Value: raw.Amount, Err: ErrInvalidAmount}
	}
	if profile.InvertSign {
		amount = amount.Neg()
	}

	code := raw.Currency
	if strings.TrimSpace(code) == "" {
		code = profile.DefaultCurrency
	}
	if !currency.Valid(code) {
		return model.CanonicalTransaction{}, &NormalizeError{Field: "currency", Value: raw.Currency, Err: ErrUnknownCurrency}
	}

	payee := strings.TrimSpace(raw.Payee)
	for _, f := range n.filters {
		payee = strings.ReplaceAll(payee, f.Pattern, f.Replacement)
	}
	payee = strings.TrimSpace(payee)

	return model.CanonicalTransaction{
		Seq:        raw.Seq,
		Date:       date,
		Amount:     amount,
		Currency:   currency.Normalize(code),
		Payee:      payee,
		Memo:       strings.TrimSpace(raw.Memo),
		IBAN:       NormalizeIBAN(raw.IBAN),
		CardLabel:  strings.TrimSpace(raw.CardLabel),
		CreditorID: strings.TrimSpace(raw.CreditorID),
		MandateID:  strings.TrimSpace(raw.MandateID),
		RecordID:   strings.TrimSpace(raw.RecordID),
		TypeCode:   strings.TrimSpace(raw.TypeCode),
		Pending:    raw.Pending,
	}, nil
}

// ParseDecimal parses an amount string in either dot or German comma
// notation, preserving the source precision.
func ParseDecimal(s string, commaDecimals bool) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if commaDecimals {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// NormalizeIBAN upper-cases an IBAN and strips all whitespace, the form
// the rule engine matches against.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}
