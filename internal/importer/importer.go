package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bankimport-dev/bankimport/internal/model"
)

// ErrMalformedRecord marks a structurally invalid record inside an
// otherwise readable export file.
var ErrMalformedRecord = errors.New("malformed record")

// ErrUnsupportedVersion marks an export file whose header or schema does
// not match what the parser expects.
var ErrUnsupportedVersion = errors.New("unsupported file version")

// RecordError is a parse failure scoped to a single record. Well-formed
// records before and after it are unaffected.
type RecordError struct {
	Record int // 1-based record position within the file
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Record, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ParseResult holds the outcome of parsing one export file. Records are
// in file order. Problems lists the records that could not be parsed;
// whether they abort the file or are skipped is the caller's choice.
type ParseResult struct {
	Records  []model.RawTransaction
	Problems []*RecordError
}

// Parser converts one bank export format into RawTransactions.
type Parser interface {
	// Parse reads a complete export file. A returned error means the
	// whole file is unusable (unreadable, or wrapping
	// ErrUnsupportedVersion on a schema mismatch); record-level failures
	// are reported via ParseResult.Problems instead.
	Parse(r io.Reader) (*ParseResult, error)

	// Format returns the registry name of the format.
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
	r.order = append(r.order, key)
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names in registration order.
func (r *Registry) Formats() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&RevolutParser{})
	r.Register(&ErsteParser{})
	r.Register(&CardcompleteParser{})
	r.Register(&FlatexCsvParser{})
	r.Register(&FlatexPdfParser{})
	return r
}

// validAmount reports whether s looks like a decimal number in the
// format's native notation. Parsers use it to reject malformed rows
// early; the exact value is parsed during normalization.
func validAmount(s string, commaDecimals bool) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	decimalSep, groupSep := byte('.'), byte(',')
	if commaDecimals {
		decimalSep, groupSep = ',', '.'
	}
	seenDecimal := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == decimalSep && !seenDecimal:
			seenDecimal = true
		case c == groupSep && !seenDecimal:
		default:
			return false
		}
	}
	return true
}
