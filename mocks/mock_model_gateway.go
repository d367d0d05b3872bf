package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"creditscope/internal/domain"
	"creditscope/internal/port"
)

// MockModelGateway is a mock implementation of port.ModelGateway.
type MockModelGateway struct {
	mock.Mock
}

func (m *MockModelGateway) CheckConnectivity(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockModelGateway) IsModelAvailable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockModelGateway) InstallModel(ctx context.Context, onStatus func(status string)) error {
	args := m.Called(ctx, onStatus)
	return args.Error(0)
}

func (m *MockModelGateway) InferImage(ctx context.Context, imagePath, prompt string) (string, error) {
	args := m.Called(ctx, imagePath, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockModelGateway) InferBatch(ctx context.Context, imagePaths []string, prompt string) []domain.PageAnalysisResult {
	args := m.Called(ctx, imagePaths, prompt)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.PageAnalysisResult)
}

func (m *MockModelGateway) InferReport(ctx context.Context, docs []domain.DocumentAnalysisResult, documentTypes []domain.DocumentType) (*port.ReportDraft, error) {
	args := m.Called(ctx, docs, documentTypes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ReportDraft), args.Error(1)
}

func (m *MockModelGateway) ModelName() string {
	args := m.Called()
	return args.String(0)
}
