// Package ledger renders resolved transactions as plain-text
// double-entry journal entries in hledger syntax.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankimport-dev/bankimport/internal/model"
)

// lineWidth is the journal line length; posting amounts are
// right-aligned so they end at this column.
const lineWidth = 80

// Posting is one side of a double-entry.
type Posting struct {
	Account  string
	Amount   decimal.Decimal
	Currency string
}

// Entry is a complete journal entry: date, description and exactly two
// postings that sum to zero.
type Entry struct {
	Date        time.Time
	Cleared     bool
	Code        string
	Description string
	Note        string
	Memo        string
	Postings    [2]Posting
}

// FromResolved builds a journal entry from a resolved transaction. The
// counterparty posting carries the negated transaction amount and the
// own-side posting the amount itself, so the two postings sum to zero
// by construction.
func FromResolved(rt model.ResolvedTransaction) Entry {
	return Entry{
		Date:        rt.Date,
		Cleared:     !rt.Pending,
		Code:        rt.RecordID,
		Description: rt.Description,
		Note:        rt.Note,
		Memo:        rt.Memo,
		Postings: [2]Posting{
			{Account: rt.ContraAccount, Amount: rt.Amount.Neg(), Currency: rt.Currency},
			{Account: rt.OwnAccount, Amount: rt.Amount, Currency: rt.Currency},
		},
	}
}

// Render formats one entry as journal text.
//
//	2025-01-03 * (CODE) Grocery Store | note
//	    ; memo: original posting text
//	    Expenses:Groceries                                                 12.34 EUR
//	    Assets:Bank:Checking                                              -12.34 EUR
func Render(e Entry) string {
	var b strings.Builder

	state := "*"
	if !e.Cleared {
		state = "!"
	}
	b.WriteString(e.Date.Format("2006-01-02"))
	b.WriteString(" ")
	b.WriteString(state)
	if e.Code != "" {
		b.WriteString(" (")
		b.WriteString(e.Code)
		b.WriteString(")")
	}
	b.WriteString(" ")
	b.WriteString(e.Description)
	if e.Note != "" {
		b.WriteString(" | ")
		b.WriteString(e.Note)
	}
	b.WriteString("\n")

	if e.Memo != "" && e.Memo != e.Description {
		b.WriteString("    ; memo: ")
		b.WriteString(e.Memo)
		b.WriteString("\n")
	}

	for _, p := range e.Postings {
		b.WriteString(renderPosting(p))
		b.WriteString("\n")
	}
	return b.String()
}

func renderPosting(p Posting) string {
	amount := model.AmountString(p.Amount) + " " + p.Currency
	pad := lineWidth - 4 - len(amount) - 1
	if pad < len(p.Account) {
		pad = len(p.Account)
	}
	return fmt.Sprintf("    %-*s %s", pad, p.Account, amount)
}

// RenderAll sorts entries by booking date ascending (stable on ties,
// preserving per-file order) and renders them separated by blank lines.
func RenderAll(entries []Entry) string {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	blocks := make([]string, len(sorted))
	for i, e := range sorted {
		blocks[i] = Render(e)
	}
	return strings.Join(blocks, "\n")
}

// Balanced reports whether the entry's postings sum to zero.
func Balanced(e Entry) bool {
	return e.Postings[0].Amount.Add(e.Postings[1].Amount).IsZero()
}
