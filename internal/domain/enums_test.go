package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"creditscope/internal/domain"
)

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		hint string
		want domain.DocumentType
	}{
		{"legal", domain.DocumentTypeLegal},
		{"profit_loss", domain.DocumentTypeProfitLoss},
		{"Profit-Loss", domain.DocumentTypeProfitLoss},
		{"P&L", domain.DocumentTypeProfitLoss},
		{"income statement", domain.DocumentTypeProfitLoss},
		{" balance_sheet ", domain.DocumentTypeBalanceSheet},
		{"bank-statement", domain.DocumentTypeBankStatement},
		{"", domain.DocumentTypeOther},
		{"tax_return", domain.DocumentTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseDocumentType(tt.hint))
		})
	}
}

func TestDocumentType_IsCoreFinancial(t *testing.T) {
	assert.True(t, domain.DocumentTypeProfitLoss.IsCoreFinancial())
	assert.True(t, domain.DocumentTypeBalanceSheet.IsCoreFinancial())
	assert.True(t, domain.DocumentTypeBankStatement.IsCoreFinancial())
	assert.False(t, domain.DocumentTypeLegal.IsCoreFinancial())
	assert.False(t, domain.DocumentTypeOther.IsCoreFinancial())
}

func TestRatingForScore(t *testing.T) {
	tests := []struct {
		score int
		want  domain.Rating
	}{
		{100, domain.RatingExcellent},
		{80, domain.RatingExcellent},
		{79, domain.RatingGood},
		{70, domain.RatingGood},
		{69, domain.RatingFair},
		{60, domain.RatingFair},
		{59, domain.RatingPoor},
		{0, domain.RatingPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.RatingForScore(tt.score), "score %d", tt.score)
	}
}

func TestIsAcceptedMimeType(t *testing.T) {
	assert.True(t, domain.IsAcceptedMimeType("application/pdf"))
	assert.True(t, domain.IsAcceptedMimeType("text/plain; charset=utf-8"))
	assert.True(t, domain.IsAcceptedMimeType("image/jpeg"))
	assert.False(t, domain.IsAcceptedMimeType("application/zip"))
	assert.False(t, domain.IsAcceptedMimeType(""))
}

func TestPageAndDocumentSucceeded(t *testing.T) {
	assert.True(t, domain.PageAnalysisResult{Page: 1, Analysis: "x"}.Succeeded())
	assert.False(t, domain.PageAnalysisResult{Page: 1, Error: "x"}.Succeeded())
	assert.True(t, domain.DocumentAnalysisResult{Analysis: "x"}.Succeeded())
	assert.False(t, domain.DocumentAnalysisResult{Error: "x"}.Succeeded())

	doc := &domain.ProcessedDocument{}
	assert.False(t, doc.HasImages())
	doc.Pages = []string{"page-0001.png"}
	assert.True(t, doc.HasImages())
}
