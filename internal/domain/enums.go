package domain

import "strings"

// DocumentType classifies an uploaded document for prompt selection and scoring.
type DocumentType string

const (
	DocumentTypeLegal         DocumentType = "legal"
	DocumentTypeProfitLoss    DocumentType = "profit_loss"
	DocumentTypeBalanceSheet  DocumentType = "balance_sheet"
	DocumentTypeBankStatement DocumentType = "bank_statement"
	DocumentTypeOther         DocumentType = "other"
)

// documentTypeAliases maps normalized caller hints to document types.
var documentTypeAliases = map[string]DocumentType{
	"legal":            DocumentTypeLegal,
	"profit_loss":      DocumentTypeProfitLoss,
	"profit_and_loss":  DocumentTypeProfitLoss,
	"pnl":              DocumentTypeProfitLoss,
	"p&l":              DocumentTypeProfitLoss,
	"income_statement": DocumentTypeProfitLoss,
	"balance_sheet":    DocumentTypeBalanceSheet,
	"bank_statement":   DocumentTypeBankStatement,
	"other":            DocumentTypeOther,
}

// ParseDocumentType normalizes a caller-supplied hint. Unknown or empty hints
// map to DocumentTypeOther.
func ParseDocumentType(hint string) DocumentType {
	key := strings.ToLower(strings.TrimSpace(hint))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if t, ok := documentTypeAliases[key]; ok {
		return t
	}
	return DocumentTypeOther
}

// IsCoreFinancial reports whether the type is a core financial statement.
func (t DocumentType) IsCoreFinancial() bool {
	switch t {
	case DocumentTypeProfitLoss, DocumentTypeBalanceSheet, DocumentTypeBankStatement:
		return true
	default:
		return false
	}
}

// AnalysisMode records how a document's narrative was produced.
type AnalysisMode string

const (
	AnalysisModeVisual AnalysisMode = "visual"
	AnalysisModeText   AnalysisMode = "text"
)

// Rating is the four-level credit rating derived from a score.
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingFair      Rating = "Fair"
	RatingPoor      Rating = "Poor"
)

// RatingForScore applies the 80/70/60 thresholds.
func RatingForScore(score int) Rating {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 70:
		return RatingGood
	case score >= 60:
		return RatingFair
	default:
		return RatingPoor
	}
}

// ReportSource records whether a report came from the model or the fallback heuristic.
type ReportSource string

const (
	ReportSourceModel    ReportSource = "model"
	ReportSourceFallback ReportSource = "fallback"
)

// MimeTypePDF is the only mime type rendered to page images.
const MimeTypePDF = "application/pdf"

// AllowedExtensions maps accepted upload extensions (without dot) to their mime type.
var AllowedExtensions = map[string]string{
	"pdf":  MimeTypePDF,
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":  "application/vnd.ms-excel",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":  "application/msword",
	"csv":  "text/csv",
	"txt":  "text/plain",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// IsAcceptedMimeType reports whether a mime type is one the pipeline accepts.
func IsAcceptedMimeType(mimeType string) bool {
	base := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	for _, m := range AllowedExtensions {
		if m == base {
			return true
		}
	}
	return false
}
