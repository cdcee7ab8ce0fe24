package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction is a single record as extracted from a bank export file,
// before any normalization. All fields are kept in their format-native
// string representation; optional fields are empty when the source format
// does not carry them.
type RawTransaction struct {
	Seq         int    // 1-based record position within the source file
	Date        string // booking date as written in the file
	Amount      string // amount as written in the file (format-native decimals)
	Fee         string // separate fee amount, if the format lists one
	Currency    string
	Payee       string // counterparty / merchant name
	Memo        string // free-text posting information
	IBAN        string // counterparty IBAN
	OwnerIBAN   string // IBAN of the account the file belongs to
	CardLabel   string // card number or card identifier
	CreditorID  string // SEPA creditor identifier
	MandateID   string // SEPA mandate identifier
	RecordID    string // bank-side reference number
	TypeCode    string // bank transaction type (e.g. TOPUP)
	Pending     bool   // record not yet cleared by the bank
}

// CanonicalTransaction is the normalized, format-independent shape of a
// bank transaction. Amount is signed from the account holder's
// perspective: negative means money leaving the own account.
type CanonicalTransaction struct {
	Seq        int // record position inherited from the raw transaction
	Date       time.Time
	Amount     decimal.Decimal
	Currency   string // validated ISO-4217 code
	Payee      string
	Memo       string
	IBAN       string // counterparty IBAN, upper-cased, whitespace-stripped
	CardLabel  string
	CreditorID string
	MandateID  string
	RecordID   string
	TypeCode   string
	Pending    bool
}

// AmountString formats an amount with the precision it was parsed
// with, keeping trailing zeros ("-3.50" stays "-3.50"). The exponent
// set by decimal parsing survives negation, so both postings of an
// entry render with the source precision.
func AmountString(d decimal.Decimal) string {
	places := -d.Exponent()
	if places < 0 {
		places = 0
	}
	return d.StringFixed(places)
}

// ResolvedTransaction is a CanonicalTransaction plus the two posting
// accounts determined by the rule engine. RuleMatched is false when the
// counterparty account came from the transfer-account fallback rather
// than an explicit rule.
type ResolvedTransaction struct {
	CanonicalTransaction

	OwnAccount    string
	ContraAccount string
	Description   string
	Note          string
	RuleMatched   bool
}
