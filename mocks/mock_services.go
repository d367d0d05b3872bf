package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"creditscope/internal/domain"
	"creditscope/internal/progress"
	"creditscope/internal/service"
)

// MockUploadService is a mock implementation of service.UploadService.
type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Upload(ctx context.Context, inputs []service.FileUploadInput) ([]domain.UploadedFile, error) {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UploadedFile), args.Error(1)
}

// MockAnalysisService is a mock implementation of service.AnalysisService.
// Tests drive the emitter from a Run(...) callback.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Run(ctx context.Context, files []domain.UploadedFile, emitter *progress.Emitter) {
	m.Called(ctx, files, emitter)
}

// MockReportArchiver is a mock implementation of service.ReportArchiver.
type MockReportArchiver struct {
	mock.Mock
}

func (m *MockReportArchiver) Archive(ctx context.Context, report *domain.CreditReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}
