package port

import (
	"context"

	"creditscope/internal/domain"
)

// ReportDraft is the structured report returned by the model before it is
// merged with document results and batch metadata.
type ReportDraft struct {
	Score            int
	Rating           domain.Rating
	Summary          string
	Strengths        []string
	RiskFactors      []string
	Recommendations  []string
	DetailedAnalysis *domain.DetailedAnalysis
}

// ModelGateway is the sole client of the vision-and-text inference backend.
type ModelGateway interface {
	CheckConnectivity(ctx context.Context) error
	IsModelAvailable(ctx context.Context) bool
	InstallModel(ctx context.Context, onStatus func(status string)) error
	InferImage(ctx context.Context, imagePath, prompt string) (string, error)
	InferBatch(ctx context.Context, imagePaths []string, prompt string) []domain.PageAnalysisResult
	InferReport(ctx context.Context, docs []domain.DocumentAnalysisResult, documentTypes []domain.DocumentType) (*ReportDraft, error)
	ModelName() string
}
