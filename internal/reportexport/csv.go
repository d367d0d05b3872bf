package reportexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"creditscope/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// documentColumns is the header row shared by the CSV export and the
// Documents sheet of the workbook.
var documentColumns = []string{
	"Document Name",
	"Document Type",
	"Analysis Mode",
	"Page Count",
	"Failed Pages",
	"Status",
	"Analysis",
	"Error",
}

// CSVWriter wraps csv.Writer for exporting per-document results.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(documentColumns)
}

// WriteDocuments writes one row per document result.
func (w *CSVWriter) WriteDocuments(docs []domain.DocumentAnalysisResult) error {
	for i := range docs {
		if err := w.csv.Write(documentToRow(&docs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// WriteCSV writes the BOM, the header and every document of the report to w.
func WriteCSV(w io.Writer, report *domain.CreditReport) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := NewCSVWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteDocuments(report.DocumentAnalysis); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// documentToRow converts one document result to a row matching documentColumns.
func documentToRow(doc *domain.DocumentAnalysisResult) []string {
	row := make([]string, len(documentColumns))
	row[0] = doc.DocumentName
	row[1] = string(doc.DocumentType)
	row[2] = string(doc.AnalysisMode)
	if doc.PageCount != nil {
		row[3] = strconv.Itoa(*doc.PageCount)
	}
	row[4] = strconv.Itoa(failedPages(doc))
	row[5] = documentStatus(doc)
	row[6] = doc.Analysis
	row[7] = doc.Error
	return row
}

func failedPages(doc *domain.DocumentAnalysisResult) int {
	n := 0
	for _, p := range doc.Pages {
		if !p.Succeeded() {
			n++
		}
	}
	return n
}

func documentStatus(doc *domain.DocumentAnalysisResult) string {
	switch {
	case !doc.Succeeded():
		return "failed"
	case len(doc.Pages) > 0 && failedPages(doc) == len(doc.Pages):
		return "failed"
	case failedPages(doc) > 0:
		return "partial"
	default:
		return "analyzed"
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: credit_report_{batch}_{YYYY-MM-DD}.{ext}
func BuildFilename(batchID string, generatedAt time.Time, ext string) string {
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	name := "credit_report"
	if s := SanitizeFilename(batchID); s != "" {
		name += "_" + s
	}
	return fmt.Sprintf("%s_%s.%s", name, generatedAt.Format("2006-01-02"), ext)
}
