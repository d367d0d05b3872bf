package domain

import "time"

// UploadedFile describes a file stored by the upload endpoint. It is created at
// upload time and removed by the post-request cleanup.
type UploadedFile struct {
	ID           string       `json:"id"`
	OriginalName string       `json:"originalName"`
	Path         string       `json:"path"`
	Size         int64        `json:"size"`
	MimeType     string       `json:"mimeType"`
	DocumentType DocumentType `json:"documentType"`
}

// ProcessedDocument is the normalized form of an UploadedFile. Pages holds
// rendered page images in physical page order; ExtractedText is only set for
// documents without page images.
type ProcessedDocument struct {
	ID            string       `json:"id"`
	Type          DocumentType `json:"type"`
	Pages         []string     `json:"pages"`
	ExtractedText string       `json:"extractedText,omitempty"`
	PageCount     int          `json:"pageCount"`
	WorkDir       string       `json:"-"`
}

// HasImages reports whether the document carries rendered page images.
func (d *ProcessedDocument) HasImages() bool {
	return len(d.Pages) > 0
}

// PageAnalysisResult is the outcome of inference on one page. Exactly one of
// Analysis or Error is set.
type PageAnalysisResult struct {
	Page      int    `json:"page"`
	ImagePath string `json:"imagePath"`
	Analysis  string `json:"analysis,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Succeeded reports whether the page produced a narrative.
func (p PageAnalysisResult) Succeeded() bool {
	return p.Error == ""
}

// DocumentAnalysisResult is the combined narrative for one document.
type DocumentAnalysisResult struct {
	DocumentID   string               `json:"documentId"`
	DocumentName string               `json:"documentName"`
	DocumentType DocumentType         `json:"documentType"`
	Analysis     string               `json:"analysis,omitempty"`
	Error        string               `json:"error,omitempty"`
	AnalysisMode AnalysisMode         `json:"analysisMode,omitempty"`
	PageCount    *int                 `json:"pageCount,omitempty"`
	Pages        []PageAnalysisResult `json:"pages,omitempty"`
}

// Succeeded reports whether the document was analyzed without a document-level error.
func (r DocumentAnalysisResult) Succeeded() bool {
	return r.Error == ""
}

// DetailedAnalysis holds the four sub-scores of a credit report, each 0-100.
type DetailedAnalysis struct {
	FinancialHealth int `json:"financialHealth"`
	CashFlow        int `json:"cashFlow"`
	DebtManagement  int `json:"debtManagement"`
	Compliance      int `json:"compliance"`
}

// ReportMetadata describes the batch a report was produced from.
type ReportMetadata struct {
	BatchID       string         `json:"batchId"`
	DocumentCount int            `json:"documentCount"`
	DocumentTypes []DocumentType `json:"documentTypes"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	Source        ReportSource   `json:"source"`
	Model         string         `json:"model,omitempty"`
}

// CreditReport is the final output of an analysis request.
type CreditReport struct {
	Score            int                      `json:"score"`
	Rating           Rating                   `json:"rating"`
	Summary          string                   `json:"summary"`
	Strengths        []string                 `json:"strengths"`
	RiskFactors      []string                 `json:"riskFactors"`
	Recommendations  []string                 `json:"recommendations"`
	DetailedAnalysis DetailedAnalysis         `json:"detailedAnalysis"`
	DocumentAnalysis []DocumentAnalysisResult `json:"documentAnalysis"`
	Metadata         ReportMetadata           `json:"metadata"`
}
