package importer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/bankimport-dev/bankimport/internal/model"
)

// FlatexPdfParser parses text extracted from flatex settlement account
// PDF statements (pdftotext -layout output).
//
// The statement body is line-anchored: each booking starts with a line
// "DD.MM.YYYY DD.MM.YYYY <posting text> <amount>", optionally followed
// by indented continuation lines that extend the posting text. Amounts
// use German notation and are listed from the bank's perspective, so
// they are sign-inverted during normalization. The preamble must
// identify a flatex statement, otherwise the file is rejected.
type FlatexPdfParser struct{}

// Format returns the parser name.
func (p *FlatexPdfParser) Format() string { return "flatex-pdf" }

var (
	flatexPdfRecordRe = regexp.MustCompile(
		`^\s*(\d{2}\.\d{2}\.\d{4})\s+(\d{2}\.\d{2}\.\d{4})\s+(.*?)\s{2,}(-?[\d.]*\d,\d{2})(?:\s+([A-Z]{3}))?\s*$`)
	flatexPdfRecordStartRe = regexp.MustCompile(`^\s*\d{2}\.\d{2}\.\d{4}\s+\d{2}\.\d{2}\.\d{4}\s`)
)

// Parse reads extracted flatex statement text.
func (p *FlatexPdfParser) Parse(r io.Reader) (*ParseResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	result := &ParseResult{}
	headerSeen := false
	recNum := 0
	lastFailed := false

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !headerSeen {
			if !flatexPdfRecordStartRe.MatchString(line) {
				lower := strings.ToLower(trimmed)
				if strings.Contains(lower, "flatex") || strings.Contains(lower, "kontoauszug") {
					headerSeen = true
				}
				continue
			}
			// Booking lines before any identifying preamble mean this is
			// not a flatex statement.
			return nil, fmt.Errorf("no flatex statement header found: %w", ErrUnsupportedVersion)
		}

		if m := flatexPdfRecordRe.FindStringSubmatch(line); m != nil {
			recNum++
			lastFailed = false
			result.Records = append(result.Records, model.RawTransaction{
				Seq:      recNum,
				Date:     m[1],
				Amount:   m[4],
				Currency: m[5],
				Payee:    m[3],
				Memo:     m[3],
			})
			continue
		}

		if flatexPdfRecordStartRe.MatchString(line) {
			recNum++
			lastFailed = true
			result.Problems = append(result.Problems, &RecordError{
				Record: recNum,
				Err:    fmt.Errorf("%w: booking line %q", ErrMalformedRecord, trimmed),
			})
			continue
		}

		// Indented continuation line extends the previous posting text.
		// Continuations of a failed booking line are dropped with it.
		if len(result.Records) > 0 && !lastFailed && strings.HasPrefix(line, " ") {
			last := &result.Records[len(result.Records)-1]
			last.Memo = last.Memo + " " + trimmed
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading flatex statement text: %w", err)
	}
	if !headerSeen {
		return nil, fmt.Errorf("no flatex statement header found: %w", ErrUnsupportedVersion)
	}
	return result, nil
}
