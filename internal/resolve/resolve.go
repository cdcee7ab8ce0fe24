// Package resolve determines the counterparty account of a canonical
// transaction by applying ordered, typed matching rules.
package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bankimport-dev/bankimport/internal/config"
	"github.com/bankimport-dev/bankimport/internal/model"
	"github.com/bankimport-dev/bankimport/internal/normalize"
)

// Kind is the type of a matching rule. Kinds form fixed priority tiers:
// a matching IBAN rule always outranks a matching text rule, regardless
// of configuration order.
type Kind int

// Rule kinds in evaluation order.
const (
	KindIBAN Kind = iota
	KindCard
	KindMandate
	KindCreditor
	KindText
	KindPayee

	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindIBAN:
		return "iban"
	case KindCard:
		return "card"
	case KindMandate:
		return "mandate"
	case KindCreditor:
		return "creditor"
	case KindText:
		return "text"
	case KindPayee:
		return "payee"
	}
	return "unknown"
}

// Rule is a typed predicate/account pair. Within a tier, rules keep
// their configuration order and the first match wins.
type Rule struct {
	Kind    Kind
	Match   string
	Account string
	Note    string

	pattern *regexp.Regexp // compiled search, text rules only
}

// matches reports whether the rule's predicate holds for t.
func (r *Rule) matches(t *model.CanonicalTransaction) bool {
	switch r.Kind {
	case KindIBAN:
		return t.IBAN != "" && t.IBAN == normalize.NormalizeIBAN(r.Match)
	case KindCard:
		return t.CardLabel != "" && t.CardLabel == strings.TrimSpace(r.Match)
	case KindMandate:
		return t.MandateID != "" && t.MandateID == strings.TrimSpace(r.Match)
	case KindCreditor:
		return t.CreditorID != "" && t.CreditorID == strings.TrimSpace(r.Match)
	case KindText:
		if t.Memo != "" && r.pattern.MatchString(t.Memo) {
			return true
		}
		return t.Payee != "" && r.pattern.MatchString(t.Payee)
	case KindPayee:
		return t.Payee != "" && strings.EqualFold(t.Payee, strings.TrimSpace(r.Match))
	}
	return false
}

// RuleSet holds all rules grouped into priority tiers plus the fallback
// configuration. A RuleSet is immutable and safe to share across files.
type RuleSet struct {
	tiers    [numKinds][]Rule
	transfer config.TransferAccounts
	fallback string
}

// NewRuleSet builds the tiers from configuration, compiling text search
// patterns. The ibans table doubles as the IBAN rule tier, so transfers
// against the user's own accounts resolve to those asset accounts.
func NewRuleSet(cfg *config.Config) (*RuleSet, error) {
	rs := &RuleSet{
		transfer: cfg.TransferAccounts,
		fallback: cfg.FallbackAccount,
	}

	for _, m := range cfg.IBANs {
		rs.tiers[KindIBAN] = append(rs.tiers[KindIBAN], Rule{
			Kind: KindIBAN, Match: m.IBAN, Account: m.Account, Note: m.Note,
		})
	}
	for _, m := range cfg.Cards {
		rs.tiers[KindCard] = append(rs.tiers[KindCard], Rule{
			Kind: KindCard, Match: m.Card, Account: m.Account, Note: m.Note,
		})
	}
	for _, m := range cfg.Sepa.Mandates {
		rs.tiers[KindMandate] = append(rs.tiers[KindMandate], Rule{
			Kind: KindMandate, Match: m.MandateID, Account: m.Account, Note: m.Note,
		})
	}
	for _, m := range cfg.Sepa.Creditors {
		rs.tiers[KindCreditor] = append(rs.tiers[KindCreditor], Rule{
			Kind: KindCreditor, Match: m.CreditorID, Account: m.Account, Note: m.Note,
		})
	}
	for _, m := range cfg.Mapping {
		pattern, err := regexp.Compile("(?i)" + m.Search)
		if err != nil {
			return nil, fmt.Errorf("compiling mapping pattern %q: %w", m.Search, err)
		}
		rs.tiers[KindText] = append(rs.tiers[KindText], Rule{
			Kind: KindText, Match: m.Search, Account: m.Account, Note: m.Note, pattern: pattern,
		})
	}
	for _, m := range cfg.CreditorsDebtors {
		rs.tiers[KindPayee] = append(rs.tiers[KindPayee], Rule{
			Kind: KindPayee, Match: m.Payee, Account: m.Account, Note: m.Note,
		})
	}
	return rs, nil
}

// Resolve determines the counterparty account for t. Resolution is
// total: when no rule matches, the transaction falls back to the
// transfer accounts and RuleMatched is false so downstream reporting
// can surface it for review. The own-side account is an input, already
// determined by the caller from the account the file was imported under.
func (rs *RuleSet) Resolve(t model.CanonicalTransaction, ownAccount string) model.ResolvedTransaction {
	resolved := model.ResolvedTransaction{
		CanonicalTransaction: t,
		OwnAccount:           ownAccount,
		Description:          description(t),
	}

	for _, tier := range rs.tiers {
		for i := range tier {
			if tier[i].matches(&t) {
				resolved.ContraAccount = tier[i].Account
				resolved.Note = tier[i].Note
				resolved.RuleMatched = true
				return resolved
			}
		}
	}

	resolved.ContraAccount = rs.fallbackAccount(&t)
	return resolved
}

// fallbackAccount picks the unmatched-transaction account. A configured
// fallback account wins; otherwise a counterparty IBAN or a bank-side
// transfer type code makes the movement bank-like, everything else is
// treated as cash-like.
func (rs *RuleSet) fallbackAccount(t *model.CanonicalTransaction) string {
	if rs.fallback != "" {
		return rs.fallback
	}
	if t.IBAN != "" || bankTransferType(t.TypeCode) {
		return rs.transfer.Bank
	}
	return rs.transfer.Cash
}

func bankTransferType(code string) bool {
	switch strings.ToUpper(code) {
	case "TOPUP", "TRANSFER":
		return true
	}
	return false
}

func description(t model.CanonicalTransaction) string {
	if t.Payee != "" {
		return t.Payee
	}
	return t.Memo
}
