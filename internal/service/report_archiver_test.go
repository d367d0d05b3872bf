package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creditscope/internal/domain"
	"creditscope/internal/port"
	"creditscope/internal/reportexport"
	"creditscope/internal/service"
	"creditscope/mocks"
)

func sampleReport() *domain.CreditReport {
	pages := 2
	return &domain.CreditReport{
		Score:            78,
		Rating:           domain.RatingGood,
		Summary:          "Healthy margins.",
		Strengths:        []string{"Growing revenue"},
		RiskFactors:      []string{"Concentrated customers"},
		Recommendations:  []string{"Diversify"},
		DetailedAnalysis: service.DetailedFromScore(78),
		DocumentAnalysis: []domain.DocumentAnalysisResult{{
			DocumentID: "d1", DocumentName: "pnl.pdf", DocumentType: domain.DocumentTypeProfitLoss,
			Analysis: "Page 1: ok", AnalysisMode: domain.AnalysisModeVisual, PageCount: &pages,
		}},
		Metadata: domain.ReportMetadata{
			BatchID:       "batch-42",
			DocumentCount: 1,
			DocumentTypes: []domain.DocumentType{domain.DocumentTypeProfitLoss},
			GeneratedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Source:        domain.ReportSourceModel,
		},
	}
}

func TestStorageArchiver_UploadsJSONAndWorkbook(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	archiver := service.NewStorageArchiver(storage, "reports-bucket", "credit")

	var inputs []port.UploadInput
	var jsonBody []byte
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Run(func(args mock.Arguments) {
			in := args.Get(1).(port.UploadInput)
			inputs = append(inputs, in)
			if in.ContentType == "application/json" {
				jsonBody, _ = io.ReadAll(in.Body)
			}
		}).
		Return(&port.UploadOutput{Location: "s3://reports-bucket/x"}, nil)

	require.NoError(t, archiver.Archive(context.Background(), sampleReport()))

	require.Len(t, inputs, 2)
	assert.Equal(t, "credit/batch-42/report.json", inputs[0].Key)
	assert.Equal(t, "credit/batch-42/report.xlsx", inputs[1].Key)
	assert.Equal(t, reportexport.XLSXContentType, inputs[1].ContentType)
	for _, in := range inputs {
		assert.Equal(t, "reports-bucket", in.Bucket)
		assert.Equal(t, map[string]string{"score": "78", "rating": "Good", "source": "model"}, in.Metadata)
	}

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jsonBody, &decoded))
	assert.EqualValues(t, 78, decoded["score"])
	assert.Contains(t, decoded, "documentAnalysis")
	assert.Contains(t, decoded, "riskFactors")
}

func TestStorageArchiver_RollsBackPartialArchive(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	archiver := service.NewStorageArchiver(storage, "b", "")

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool { return in.Key == "reports/batch-42/report.json" })).
		Return(&port.UploadOutput{}, nil)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool { return in.Key == "reports/batch-42/report.xlsx" })).
		Return(nil, errors.New("access denied"))
	storage.On("Delete", mock.Anything, "b", "reports/batch-42/report.json").Return(nil)

	err := archiver.Archive(context.Background(), sampleReport())
	assert.ErrorIs(t, err, domain.ErrArchiveFailed)
	storage.AssertExpectations(t)
}

func TestStorageArchiver_RequiresBatchID(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	report := sampleReport()
	report.Metadata.BatchID = ""

	err := service.NewStorageArchiver(storage, "b", "").Archive(context.Background(), report)
	assert.ErrorIs(t, err, domain.ErrArchiveFailed)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestNoopArchiver(t *testing.T) {
	assert.NoError(t, service.NewNoopArchiver().Archive(context.Background(), sampleReport()))
}
