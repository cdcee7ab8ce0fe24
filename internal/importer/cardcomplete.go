package importer

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/bankimport-dev/bankimport/internal/model"
)

// CardcompleteParser parses Cardcomplete credit card XML exports.
//
// Schema: one TRANSACTION element per purchase, with bilingual
// German/English tag names. Dates use "02.01.2006", amounts a comma
// decimal separator. The card number identifies which card the purchase
// was made with; category, place and time are folded into the memo.
type CardcompleteParser struct{}

// Format returns the parser name.
func (p *CardcompleteParser) Format() string { return "cardcomplete" }

type ccDocument struct {
	Transactions []ccTransaction `xml:"TRANSACTION"`
}

type ccTransaction struct {
	MerchantName string `xml:"HAENLDERNAME-MERCHANT_NAME"`
	Amount       string `xml:"BETRAG-AMOUNT"`
	Currency     string `xml:"WAEHRUNG-CURRENCY"`
	Date         string `xml:"DATUM-DATE"`
	Time         string `xml:"ZEIT-TIME"`
	Category     string `xml:"BRANCHE-CATEGORY"`
	State        string `xml:"STATUS-STATUS"`
	PostingDate  string `xml:"BUCHUNGSDATUM-POSTING_DATE"`
	Place        string `xml:"ORT-PLACE"`
	CardNumber   string `xml:"KARTENNUMMER-CARD_NUMBER"`
}

// Parse reads a Cardcomplete XML export.
func (p *CardcompleteParser) Parse(r io.Reader) (*ParseResult, error) {
	var doc ccDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("cardcomplete export is not transaction XML: %w", ErrUnsupportedVersion)
	}

	result := &ParseResult{}
	for i, t := range doc.Transactions {
		recNum := i + 1
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

func (t *ccTransaction) toRaw() (model.RawTransaction, error) {
	if t.PostingDate == "" {
		return model.RawTransaction{}, fmt.Errorf("%w: missing posting date", ErrMalformedRecord)
	}
	if !validAmount(t.Amount, true) {
		return model.RawTransaction{}, fmt.Errorf("%w: amount %q", ErrMalformedRecord, t.Amount)
	}

	var memoParts []string
	if t.Category != "" {
		memoParts = append(memoParts, t.Category)
	}
	if t.Place != "" {
		memoParts = append(memoParts, t.Place)
	}
	if t.Time != "" {
		memoParts = append(memoParts, t.Date+" "+t.Time)
	}

	return model.RawTransaction{
		Date:      t.PostingDate,
		Amount:    t.Amount,
		Currency:  t.Currency,
		Payee:     t.MerchantName,
		Memo:      strings.Join(memoParts, ", "),
		CardLabel: t.CardNumber,
		Pending:   !strings.EqualFold(t.State, "verbucht"),
	}, nil
}
