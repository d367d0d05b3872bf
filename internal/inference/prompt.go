package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"creditscope/internal/domain"
)

// PagePrompt appends the page position to a document prompt.
func PagePrompt(prompt string, page, total int) string {
	return fmt.Sprintf("%s\n\n(Page %d of %d)", prompt, page, total)
}

// reportInput is the per-document payload embedded in the report prompt.
type reportInput struct {
	DocumentName string              `json:"documentName"`
	DocumentType domain.DocumentType `json:"documentType"`
	Analysis     string              `json:"analysis,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// BuildReportPrompt returns the prompt asking the model for the final credit report.
func BuildReportPrompt(docs []domain.DocumentAnalysisResult, documentTypes []domain.DocumentType) (string, error) {
	inputs := make([]reportInput, 0, len(docs))
	for i := range docs {
		inputs = append(inputs, reportInput{
			DocumentName: docs[i].DocumentName,
			DocumentType: docs[i].DocumentType,
			Analysis:     docs[i].Analysis,
			Error:        docs[i].Error,
		})
	}
	data, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling extracted data: %w", err)
	}

	types := make([]string, 0, len(documentTypes))
	for _, t := range documentTypes {
		types = append(types, string(t))
	}

	return `You are a credit analyst. Based on the financial document analyses below, produce a credit assessment for the business.

Document types provided: ` + strings.Join(types, ", ") + `

Extracted data:
` + string(data) + `

IMPORTANT INSTRUCTIONS:
- Respond with pure JSON only. No markdown formatting, no code fences, no explanation.
- "score" is an integer between 0 and 100.
- "rating" is one of "Excellent" (score >= 80), "Good" (score >= 70), "Fair" (score >= 60) or "Poor".
- Every list must contain at least one item.

Return exactly this structure:
{
  "score": 0,
  "rating": "",
  "summary": "",
  "strengths": [""],
  "riskFactors": [""],
  "recommendations": [""],
  "detailedAnalysis": {
    "financialHealth": 0,
    "cashFlow": 0,
    "debtManagement": 0,
    "compliance": 0
  }
}`, nil
}
