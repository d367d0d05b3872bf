package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"creditscope/internal/domain"
	"creditscope/internal/port"
)

// promptTemplate describes what to extract from one document type.
type promptTemplate struct {
	Subject string
	Focuses []string
}

// Render builds the instruction sent with every page of a document.
func (t promptTemplate) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a financial analyst reviewing a page of a %s.\n", t.Subject)
	b.WriteString("Extract the information relevant to a business credit assessment. Focus on:\n")
	for _, f := range t.Focuses {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("Report figures exactly as printed, including currency and period. If a focus is not present on this page, say so briefly. Answer in plain text.")
	return b.String()
}

// promptTemplates is the type-to-instruction lookup. Adding a document type
// means adding an entry here.
var promptTemplates = map[domain.DocumentType]promptTemplate{
	domain.DocumentTypeLegal: {
		Subject: "legal or corporate document",
		Focuses: []string{
			"company name, registration number and legal form",
			"directors, owners and signatories",
			"incorporation and filing dates",
			"liabilities, guarantees, charges or pending litigation",
			"compliance or regulatory findings",
		},
	},
	domain.DocumentTypeProfitLoss: {
		Subject: "profit and loss statement",
		Focuses: []string{
			"revenue and revenue growth across periods",
			"cost of goods sold and gross margin",
			"operating expenses and operating profit",
			"interest expense and tax",
			"net profit and net margin",
		},
	},
	domain.DocumentTypeBalanceSheet: {
		Subject: "balance sheet",
		Focuses: []string{
			"current assets and current liabilities",
			"total assets and total liabilities",
			"short-term and long-term debt",
			"shareholders' equity",
			"working capital, current ratio and debt-to-equity ratio",
		},
	},
	domain.DocumentTypeBankStatement: {
		Subject: "bank statement",
		Focuses: []string{
			"account holder, bank and statement period",
			"opening and closing balances",
			"total credits and total debits",
			"recurring inflows and outflows, including loan repayments",
			"overdrafts, bounced payments or penalty charges",
		},
	},
	domain.DocumentTypeOther: {
		Subject: "business document",
		Focuses: []string{
			"document type and issuing party",
			"key financial figures and dates",
			"obligations, debts or commitments",
			"anything indicating financial strength or risk",
		},
	},
}

// PromptFor returns the page instruction for a document type. Unknown types
// use the generic template.
func PromptFor(t domain.DocumentType) string {
	tmpl, ok := promptTemplates[t]
	if !ok {
		tmpl = promptTemplates[domain.DocumentTypeOther]
	}
	return tmpl.Render()
}

// Analyzer turns a processed document into a narrative using the model gateway.
type Analyzer struct {
	gateway port.ModelGateway
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(gateway port.ModelGateway) *Analyzer {
	return &Analyzer{gateway: gateway}
}

// Analyze never fails: document-level problems are recorded in the result's Error.
func (a *Analyzer) Analyze(ctx context.Context, file domain.UploadedFile, doc *domain.ProcessedDocument) domain.DocumentAnalysisResult {
	result := domain.DocumentAnalysisResult{
		DocumentID:   file.ID,
		DocumentName: file.OriginalName,
		DocumentType: domain.ParseDocumentType(string(file.DocumentType)),
	}
	if doc == nil {
		result.Error = "document was not processed"
		return result
	}
	result.DocumentType = doc.Type

	if !doc.HasImages() {
		result.AnalysisMode = domain.AnalysisModeText
		if doc.ExtractedText == "" {
			result.Error = "document has no content to analyze"
			return result
		}
		result.Analysis = doc.ExtractedText
		return result
	}

	if err := ctx.Err(); err != nil {
		result.AnalysisMode = domain.AnalysisModeVisual
		result.Error = fmt.Sprintf("analysis cancelled: %v", err)
		return result
	}

	pages := a.gateway.InferBatch(ctx, doc.Pages, PromptFor(doc.Type))
	pageCount := len(doc.Pages)
	result.AnalysisMode = domain.AnalysisModeVisual
	result.PageCount = &pageCount
	result.Pages = pages
	result.Analysis = CombinePages(pages)

	failed := 0
	for _, p := range pages {
		if !p.Succeeded() {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("analyzer.Analyze: %s: %d of %d pages failed", file.OriginalName, failed, len(pages))
	}
	return result
}

// CombinePages joins successful page narratives in page order. When no page
// succeeded the result is an explicit failure message.
func CombinePages(pages []domain.PageAnalysisResult) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if !p.Succeeded() {
			continue
		}
		text := strings.TrimSpace(p.Analysis)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Page %d: %s", p.Page, text))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Analysis failed: could not extract information from any of the %d page(s) of this document.", len(pages))
	}
	return strings.Join(parts, "\n\n")
}
