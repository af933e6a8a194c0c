package ledger

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// statementLinePattern matches "YYYY-MM-DD,description,-12.34" records in page text.
var statementLinePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}),(.+),(-?\d+\.\d+)`)

// PDFImporter extracts ledger rows from text-based PDF bank statements.
type PDFImporter struct {
	log zerolog.Logger
}

// NewPDFImporter creates a statement importer.
func NewPDFImporter(log zerolog.Logger) *PDFImporter {
	return &PDFImporter{log: log.With().Str("component", "pdf_importer").Logger()}
}

// Extract reads every page's plain text and returns the matching rows in page order.
func (p *PDFImporter) Extract(r io.ReaderAt, size int64) (rows []domain.RawRow, err error) {
	// the pdf reader panics on some malformed xref tables
	defer func() {
		if rec := recover(); rec != nil {
			rows = nil
			err = &domain.ParseError{Field: "pdf", Err: fmt.Errorf("malformed statement: %v", rec)}
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, &domain.ParseError{Field: "pdf", Err: err}
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pageRows := ExtractLines(strings.Split(text, "\n"))
		p.log.Debug().Int("page", i).Int("rows", len(pageRows)).Msg("Extracted statement page")
		rows = append(rows, pageRows...)
	}

	if len(rows) == 0 {
		p.log.Warn().Int("pages", reader.NumPage()).Msg("No transactions found in statement")
	}
	return rows, nil
}

// ExtractLines applies the statement pattern to already-extracted text lines.
func ExtractLines(lines []string) []domain.RawRow {
	var rows []domain.RawRow
	for _, line := range lines {
		for _, m := range statementLinePattern.FindAllStringSubmatch(line, -1) {
			rows = append(rows, domain.RawRow{
				Date:        m[1],
				Description: strings.TrimSpace(m[2]),
				Amount:      m[3],
			})
		}
	}
	return rows
}
