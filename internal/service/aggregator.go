package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"creditscope/internal/domain"
	"creditscope/internal/port"
)

// Aggregator produces the final credit report for a batch.
type Aggregator struct {
	gateway port.ModelGateway
	now     func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(gateway port.ModelGateway) *Aggregator {
	return &Aggregator{gateway: gateway, now: time.Now}
}

// Aggregate installs the model if needed and asks it for the report. Any
// inference or parse failure yields the deterministic fallback; only a failed
// model installation is returned as an error. onStatus receives install
// progress and may be nil.
func (a *Aggregator) Aggregate(ctx context.Context, batchID string, results []domain.DocumentAnalysisResult, types []domain.DocumentType, onStatus func(string)) (*domain.CreditReport, error) {
	if !a.gateway.IsModelAvailable(ctx) {
		log.Printf("aggregator.Aggregate: model %s not installed, pulling", a.gateway.ModelName())
		if err := a.gateway.InstallModel(ctx, onStatus); err != nil {
			return nil, fmt.Errorf("installing model: %w", err)
		}
	}

	var report *domain.CreditReport
	draft, err := a.gateway.InferReport(ctx, results, types)
	if err != nil {
		log.Printf("aggregator.Aggregate: model report unusable, using fallback: %v", err)
		report = FallbackReport(results, types)
		report.Metadata.Source = domain.ReportSourceFallback
	} else {
		report = reportFromDraft(draft, results)
		report.Metadata.Source = domain.ReportSourceModel
	}

	report.Metadata.BatchID = batchID
	report.Metadata.DocumentCount = len(results)
	report.Metadata.DocumentTypes = types
	report.Metadata.GeneratedAt = a.now().UTC()
	report.Metadata.Model = a.gateway.ModelName()
	return report, nil
}

// reportFromDraft normalizes a model draft: the score is clamped, the rating
// is derived from it, and missing sub-scores come from the fallback weights.
func reportFromDraft(draft *port.ReportDraft, results []domain.DocumentAnalysisResult) *domain.CreditReport {
	score := draft.Score
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	rating := domain.RatingForScore(score)
	if draft.Rating != rating {
		log.Printf("aggregator.Aggregate: model rating %q inconsistent with score %d, using %q", draft.Rating, score, rating)
	}

	detailed := DetailedFromScore(score)
	if draft.DetailedAnalysis != nil {
		detailed = domain.DetailedAnalysis{
			FinancialHealth: clampPercent(draft.DetailedAnalysis.FinancialHealth),
			CashFlow:        clampPercent(draft.DetailedAnalysis.CashFlow),
			DebtManagement:  clampPercent(draft.DetailedAnalysis.DebtManagement),
			Compliance:      clampPercent(draft.DetailedAnalysis.Compliance),
		}
	}

	return &domain.CreditReport{
		Score:            score,
		Rating:           rating,
		Summary:          draft.Summary,
		Strengths:        orEmpty(draft.Strengths),
		RiskFactors:      orEmpty(draft.RiskFactors),
		Recommendations:  orEmpty(draft.Recommendations),
		DetailedAnalysis: detailed,
		DocumentAnalysis: results,
	}
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
