package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/bankimport-dev/bankimport/internal/model"
)

// ErsteParser parses Erste Bank (George) JSON transaction exports.
//
// Schema: a top-level array of transaction objects with camelCase keys.
// Booking and valuation dates are zoned timestamps, amounts come as
// {value, precision, currency} integer pairs. SEPA identifiers, the
// partner account and the owner account number are passed through for
// rule matching.
type ErsteParser struct{}

// Format returns the parser name.
func (p *ErsteParser) Format() string { return "erste" }

type erstePartnerAccount struct {
	IBAN     string `json:"iban"`
	BIC      string `json:"bic"`
	Number   string `json:"number"`
	BankCode string `json:"bankCode"`
}

type ersteAmount struct {
	Value     int64  `json:"value"`
	Precision int32  `json:"precision"`
	Currency  string `json:"currency"`
}

type ersteTransaction struct {
	Booking            string              `json:"booking"`
	Valuation          string              `json:"valuation"`
	PartnerName        string              `json:"partnerName"`
	PartnerAccount     erstePartnerAccount `json:"partnerAccount"`
	Amount             ersteAmount         `json:"amount"`
	Reference          string              `json:"reference"`
	ReferenceNumber    string              `json:"referenceNumber"`
	Note               string              `json:"note"`
	CardNumber         string              `json:"cardNumber"`
	VirtualCardNumber  string              `json:"virtualCardNumber"`
	SepaMandateID      string              `json:"sepaMandateId"`
	SepaCreditorID     string              `json:"sepaCreditorId"`
	OwnerAccountNumber string              `json:"ownerAccountNumber"`
}

// Parse reads an Erste JSON export.
func (p *ErsteParser) Parse(r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading erste export: %w", err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("erste export is not a transaction array: %w", ErrUnsupportedVersion)
	}

	result := &ParseResult{}
	for i, element := range elements {
		recNum := i + 1
		var t ersteTransaction
		if err := json.Unmarshal(element, &t); err != nil {
			result.Problems = append(result.Problems, &RecordError{
				Record: recNum,
				Err:    fmt.Errorf("%w: %v", ErrMalformedRecord, err),
			})
			continue
		}

		raw, err := t.toRaw()
		if err != nil {
			result.Problems = append(result.Problems, &RecordError{Record: recNum, Err: err})
			continue
		}
		raw.Seq = recNum
		result.Records = append(result.Records, raw)
	}
	return result, nil
}

func (t *ersteTransaction) toRaw() (model.RawTransaction, error) {
	if len(t.Booking) < 10 {
		return model.RawTransaction{}, fmt.Errorf("%w: booking date %q", ErrMalformedRecord, t.Booking)
	}
	if t.ReferenceNumber == "" {
		return model.RawTransaction{}, fmt.Errorf("%w: missing reference number", ErrMalformedRecord)
	}

	// value/precision integer pair becomes a plain dot-decimal string.
	// StringFixed keeps trailing zeros: value -8550 at precision 2 must
	// stay "-85.50".
	amount := decimal.New(t.Amount.Value, -t.Amount.Precision).StringFixed(t.Amount.Precision)

	memo := t.Note
	if memo == "" {
		memo = t.Reference
	}

	card := t.CardNumber
	if card == "" {
		card = t.VirtualCardNumber
	}

	return model.RawTransaction{
		Date:       t.Booking[:10],
		Amount:     amount,
		Currency:   t.Amount.Currency,
		Payee:      firstNonEmpty(t.PartnerName, t.Reference),
		Memo:       memo,
		IBAN:       t.PartnerAccount.IBAN,
		OwnerIBAN:  t.OwnerAccountNumber,
		CardLabel:  card,
		CreditorID: t.SepaCreditorID,
		MandateID:  t.SepaMandateID,
		RecordID:   t.ReferenceNumber,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
