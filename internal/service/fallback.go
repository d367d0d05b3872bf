package service

import (
	"math"

	"creditscope/internal/domain"
)

const (
	fallbackBaseWithCore    = 70
	fallbackBaseWithoutCore = 50
	fallbackMaxBonus        = 20
	fallbackMinScore        = 30
	fallbackMaxScore        = 100
)

// Detailed metric weights relative to the overall score.
const (
	financialHealthWeight = 0.9
	cashFlowWeight        = 0.8
	debtManagementWeight  = 0.85
	complianceWeight      = 0.75
)

var (
	strengthsWithCore = []string{
		"Core financial statements were provided for review",
		"Financial records indicate established bookkeeping practices",
		"Documentation supports a structured assessment of financial position",
	}
	strengthsWithoutCore = []string{
		"Supporting business documentation was provided",
		"Applicant engaged with the documentation process",
	}
	risksWithCore = []string{
		"Automated analysis could not produce a complete model assessment",
		"Figures extracted from documents have not been independently verified",
	}
	risksWithoutCore = []string{
		"No core financial statements (profit and loss, balance sheet or bank statement) were provided",
		"Limited financial visibility increases assessment uncertainty",
		"Repayment capacity cannot be confirmed from the submitted documents",
	}
	recommendationsWithCore = []string{
		"Have a credit analyst review the extracted figures manually",
		"Provide statements covering the two most recent financial years",
		"Include recent bank statements to confirm cash flow trends",
	}
	recommendationsWithoutCore = []string{
		"Submit a profit and loss statement and a balance sheet",
		"Provide at least six months of bank statements",
		"Have a credit analyst review the submission manually",
	}
)

// hasCoreFinancial reports whether any declared type is a core financial statement.
func hasCoreFinancial(types []domain.DocumentType) bool {
	for _, t := range types {
		if t.IsCoreFinancial() {
			return true
		}
	}
	return false
}

// documentAnalyzed reports whether a document produced usable findings. A
// visual document whose pages all failed does not count.
func documentAnalyzed(r domain.DocumentAnalysisResult) bool {
	if !r.Succeeded() {
		return false
	}
	if len(r.Pages) == 0 {
		return r.Analysis != ""
	}
	for _, p := range r.Pages {
		if p.Succeeded() {
			return true
		}
	}
	return false
}

// FallbackScore computes the deterministic score: a base of 70 with core
// statements (50 otherwise) plus up to 20 for the share of analyzed documents,
// clamped to [30, 100].
func FallbackScore(results []domain.DocumentAnalysisResult, types []domain.DocumentType) int {
	base := float64(fallbackBaseWithoutCore)
	if hasCoreFinancial(types) {
		base = fallbackBaseWithCore
	}
	bonus := 0.0
	if len(results) > 0 {
		analyzed := 0
		for i := range results {
			if documentAnalyzed(results[i]) {
				analyzed++
			}
		}
		bonus = float64(analyzed) / float64(len(results)) * fallbackMaxBonus
	}
	score := math.Max(fallbackMinScore, math.Min(fallbackMaxScore, base+bonus))
	return int(math.Round(score))
}

// DetailedFromScore derives the four sub-scores as fixed fractions of score.
func DetailedFromScore(score int) domain.DetailedAnalysis {
	s := float64(score)
	return domain.DetailedAnalysis{
		FinancialHealth: int(math.Round(s * financialHealthWeight)),
		CashFlow:        int(math.Round(s * cashFlowWeight)),
		DebtManagement:  int(math.Round(s * debtManagementWeight)),
		Compliance:      int(math.Round(s * complianceWeight)),
	}
}

// FallbackReport builds the heuristic report used whenever the model report is
// unavailable. Metadata is filled in by the caller.
func FallbackReport(results []domain.DocumentAnalysisResult, types []domain.DocumentType) *domain.CreditReport {
	score := FallbackScore(results, types)
	core := hasCoreFinancial(types)

	report := &domain.CreditReport{
		Score:            score,
		Rating:           domain.RatingForScore(score),
		DetailedAnalysis: DetailedFromScore(score),
		DocumentAnalysis: results,
	}
	if core {
		report.Summary = "Preliminary assessment based on the submitted financial statements. The automated model assessment was unavailable, so this score was derived from document coverage and should be confirmed by an analyst."
		report.Strengths = append([]string(nil), strengthsWithCore...)
		report.RiskFactors = append([]string(nil), risksWithCore...)
		report.Recommendations = append([]string(nil), recommendationsWithCore...)
	} else {
		report.Summary = "Preliminary assessment based on supporting documentation only. No core financial statements were provided and the automated model assessment was unavailable, so this score carries high uncertainty."
		report.Strengths = append([]string(nil), strengthsWithoutCore...)
		report.RiskFactors = append([]string(nil), risksWithoutCore...)
		report.Recommendations = append([]string(nil), recommendationsWithoutCore...)
	}
	return report
}
