// Package pipeline runs the parse, normalize, resolve and emit steps
// for one input file at a time. Files are independent: a failing file
// never affects another.
package pipeline

import (
	"fmt"
	"io"
	"strings"

	"k8s.io/klog"

	"github.com/bankimport-dev/bankimport/internal/config"
	"github.com/bankimport-dev/bankimport/internal/importer"
	"github.com/bankimport-dev/bankimport/internal/ledger"
	"github.com/bankimport-dev/bankimport/internal/model"
	"github.com/bankimport-dev/bankimport/internal/normalize"
	"github.com/bankimport-dev/bankimport/internal/resolve"
)

// ErrorPolicy decides what a record-level parse or normalization
// failure does to the rest of the file.
type ErrorPolicy int

const (
	// SkipRecords logs the failed record and continues with the rest of
	// the file.
	SkipRecords ErrorPolicy = iota
	// AbortFile fails the whole file on the first bad record.
	AbortFile
)

// ParsePolicy parses an --on-error flag value.
func ParsePolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(s) {
	case "skip":
		return SkipRecords, nil
	case "abort":
		return AbortFile, nil
	}
	return SkipRecords, fmt.Errorf("unknown error policy %q (want skip or abort)", s)
}

// Problem is a record-level failure with enough context to locate the
// source record.
type Problem struct {
	File   string
	Record int
	Err    error
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: record %d: %v", p.File, p.Record, p.Err)
}

// Result is the outcome of processing one file.
type Result struct {
	Entries   []ledger.Entry
	Unmatched []model.ResolvedTransaction // resolved via fallback, no explicit rule
	Skipped   []Problem                   // records dropped under SkipRecords
}

// Pipeline converts export files into journal entries using a shared,
// read-only configuration.
type Pipeline struct {
	registry   *importer.Registry
	cfg        *config.Config
	rules      *resolve.RuleSet
	normalizer *normalize.Normalizer
	policy     ErrorPolicy
}

// New builds a Pipeline, compiling the rule set once so it can be
// reused across files.
func New(cfg *config.Config, registry *importer.Registry, policy ErrorPolicy) (*Pipeline, error) {
	rules, err := resolve.NewRuleSet(cfg)
	if err != nil {
		return nil, err
	}

	filters := make([]normalize.Filter, 0, len(cfg.Filter.Payee))
	for _, f := range cfg.Filter.Payee {
		filters = append(filters, normalize.Filter{Pattern: f.Pattern, Replacement: f.Replacement})
	}

	return &Pipeline{
		registry:   registry,
		cfg:        cfg,
		rules:      rules,
		normalizer: normalize.New(filters),
		policy:     policy,
	}, nil
}

// ProcessFile runs one export file end to end. The returned entries are
// in file order; sorting across files happens at render time.
func (p *Pipeline) ProcessFile(name string, r io.Reader, format string) (*Result, error) {
	parser := p.registry.Get(format)
	if parser == nil {
		return nil, fmt.Errorf("%s: no parser for format %q", name, format)
	}

	parsed, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	result := &Result{}
	for _, recErr := range parsed.Problems {
		problem := Problem{File: name, Record: recErr.Record, Err: recErr.Err}
		if p.policy == AbortFile {
			return nil, problem
		}
		klog.Warningf("skipping %v", problem)
		result.Skipped = append(result.Skipped, problem)
	}

	for _, raw := range parsed.Records {
		if err := p.processRecord(name, raw, format, result); err != nil {
			return nil, err
		}
	}

	klog.V(2).Infof("%s: %d entries, %d unmatched, %d skipped",
		name, len(result.Entries), len(result.Unmatched), len(result.Skipped))
	return result, nil
}

func (p *Pipeline) processRecord(name string, raw model.RawTransaction, format string, result *Result) error {
	canonical, err := p.normalizer.Normalize(raw, format)
	if err != nil {
		return p.recordProblem(Problem{File: name, Record: raw.Seq, Err: err}, result)
	}

	ownAccount, viaCard := p.ownAccount(raw, format)
	if ownAccount == "" {
		err := fmt.Errorf("no own account configured for format %q", format)
		return p.recordProblem(Problem{File: name, Record: raw.Seq, Err: err}, result)
	}
	if viaCard {
		// The card identified the own side; keep the card rule tier
		// from matching it again as the counterparty.
		canonical.CardLabel = ""
	}

	resolved := p.rules.Resolve(canonical, ownAccount)
	if !resolved.RuleMatched {
		klog.Warningf("%s: record %d: no rule matched %q, using %s",
			name, raw.Seq, resolved.Description, resolved.ContraAccount)
		result.Unmatched = append(result.Unmatched, resolved)
	}
	result.Entries = append(result.Entries, ledger.FromResolved(resolved))

	if fee := p.feeEntry(raw, canonical, ownAccount); fee != nil {
		result.Entries = append(result.Entries, *fee)
	}
	return nil
}

func (p *Pipeline) recordProblem(problem Problem, result *Result) error {
	if p.policy == AbortFile {
		return problem
	}
	klog.Warningf("skipping %v", problem)
	result.Skipped = append(result.Skipped, problem)
	return nil
}

// ownAccount determines the account the file's own side posts to. An
// owner IBAN on the record wins, then a cards table hit on the record's
// card number (card-based records carry no owner IBAN), then the
// per-format configured account. The second return reports a card hit.
func (p *Pipeline) ownAccount(raw model.RawTransaction, format string) (string, bool) {
	if raw.OwnerIBAN != "" {
		owner := normalize.NormalizeIBAN(raw.OwnerIBAN)
		for _, m := range p.cfg.IBANs {
			if normalize.NormalizeIBAN(m.IBAN) == owner {
				return m.Account, false
			}
		}
	}

	if raw.CardLabel != "" {
		card := strings.TrimSpace(raw.CardLabel)
		for _, m := range p.cfg.Cards {
			if strings.TrimSpace(m.Card) == card {
				return m.Account, true
			}
		}
	}

	switch strings.ToLower(format) {
	case "revolut":
		return p.cfg.Revolut.Account, false
	case "erste":
		return p.cfg.Erste.Account, false
	case "cardcomplete":
		return p.cfg.Cardcomplete.Account, false
	case "flatex", "flatex-pdf":
		return p.cfg.Flatex.Account, false
	}
	return "", false
}

// feeEntry builds a separate balanced entry for a nonzero fee listed
// alongside a record, posted against the configured fee account.
func (p *Pipeline) feeEntry(raw model.RawTransaction, canonical model.CanonicalTransaction, ownAccount string) *ledger.Entry {
	if raw.Fee == "" || p.cfg.Revolut.FeeAccount == "" {
		return nil
	}
	profile, ok := normalize.ProfileFor("revolut")
	if !ok {
		return nil
	}
	fee, err := normalize.ParseDecimal(raw.Fee, profile.CommaDecimals)
	if err != nil || fee.IsZero() {
		return nil
	}

	feeTxn := canonical
	feeTxn.Amount = fee.Abs().Neg()
	entry := ledger.FromResolved(model.ResolvedTransaction{
		CanonicalTransaction: feeTxn,
		OwnAccount:           ownAccount,
		ContraAccount:        p.cfg.Revolut.FeeAccount,
		Description:          canonical.Payee,
		Note:                 "fee",
		RuleMatched:          true,
	})
	return &entry
}
