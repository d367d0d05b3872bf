package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"creditscope/internal/domain"
	"creditscope/internal/handler"
	"creditscope/internal/progress"
	"creditscope/internal/reportexport"
	"creditscope/internal/service"
	"creditscope/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestUploadHandler_Upload_Success(t *testing.T) {
	mockSvc := new(mocks.MockUploadService)
	h := handler.NewUploadHandler(mockSvc)

	stored := []domain.UploadedFile{
		{ID: "f1", OriginalName: "bs.pdf", Path: "/uploads/f1.pdf", MimeType: domain.MimeTypePDF, DocumentType: domain.DocumentTypeBalanceSheet},
		{ID: "f2", OriginalName: "notes.txt", Path: "/uploads/f2.txt", MimeType: "text/plain", DocumentType: domain.DocumentTypeOther},
	}
	mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in []service.FileUploadInput) bool {
		return len(in) == 2 &&
			in[0].Header.Filename == "bs.pdf" && in[0].DocumentType == "balance_sheet" &&
			in[1].Header.Filename == "notes.txt" && in[1].DocumentType == ""
	})).Return(stored, nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("files", "bs.pdf")
	_, _ = part.Write([]byte("%PDF-1.4 test content"))
	part, _ = writer.CreateFormFile("files", "notes.txt")
	_, _ = part.Write([]byte("notes"))
	_ = writer.WriteField("documentTypes", "balance_sheet")
	writer.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/upload", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	h.Upload(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Success bool                  `json:"success"`
		Data    []domain.UploadedFile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, stored, resp.Data)
	mockSvc.AssertExpectations(t)
}

func TestUploadHandler_Upload_NoFiles(t *testing.T) {
	mockSvc := new(mocks.MockUploadService)
	h := handler.NewUploadHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/upload", nil)

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUploadHandler_Upload_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unsupported", domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"too many", domain.ErrTooManyFiles, http.StatusBadRequest, "TOO_MANY_FILES"},
		{"internal", errors.New("disk full"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(mocks.MockUploadService)
			h := handler.NewUploadHandler(mockSvc)
			mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, tt.err)

			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)
			part, _ := writer.CreateFormFile("files", "a.pdf")
			_, _ = part.Write([]byte("%PDF"))
			writer.Close()

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/upload", body)
			c.Request.Header.Set("Content-Type", writer.FormDataContentType())

			h.Upload(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

// parseEvents reads the data lines of an event stream body.
func parseEvents(t *testing.T, body string) []progress.Event {
	t.Helper()
	var events []progress.Event
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev progress.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev))
		events = append(events, ev)
	}
	return events
}

func analyzeRequest(t *testing.T, files []domain.UploadedFile) *http.Request {
	body, err := json.Marshal(handler.AnalyzeRequest{Files: files})
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAnalysisHandler_Analyze_StreamsEvents(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, time.Minute)
	files := []domain.UploadedFile{{ID: "f1", OriginalName: "bs.pdf", Path: "/uploads/f1.pdf"}}

	mockSvc.On("Run", mock.Anything, files, mock.AnythingOfType("*progress.Emitter")).
		Run(func(args mock.Arguments) {
			emitter := args.Get(2).(*progress.Emitter)
			emitter.Emit(progress.StepInitializing, 0, "Starting analysis of 1 document(s)")
			emitter.Emit(progress.StepProcessing, 10, "Processing bs.pdf (1/1)")
			emitter.Result(&domain.CreditReport{Score: 81, Rating: domain.RatingExcellent, Summary: "ok"})
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = analyzeRequest(t, files)

	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	events := parseEvents(t, w.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, progress.StepInitializing, events[0].Step)
	assert.Equal(t, 10, events[1].Progress)
	assert.Equal(t, progress.StepResult, events[2].Step)
	assert.Equal(t, 100, events[2].Progress)
	require.NotNil(t, events[2].Result)
	assert.Equal(t, 81, events[2].Result.Score)
	mockSvc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_ErrorEvent(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, time.Minute)

	mockSvc.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(2).(*progress.Emitter).Fail("no documents could be processed")
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = analyzeRequest(t, []domain.UploadedFile{{ID: "f1", Path: "/missing"}})

	h.Analyze(c)

	events := parseEvents(t, w.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, progress.StepError, events[0].Step)
	assert.Equal(t, "no documents could be processed", events[0].Error)
}

func TestAnalysisHandler_Analyze_ClientGoneStillRunsToCompletion(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, time.Minute)

	var runCtxErr error
	mockSvc.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			runCtxErr = args.Get(0).(context.Context).Err()
			emitter := args.Get(2).(*progress.Emitter)
			emitter.Emit(progress.StepProcessing, 40, "Processing")
			emitter.Result(&domain.CreditReport{Score: 60})
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = analyzeRequest(t, []domain.UploadedFile{{ID: "f1", Path: "/uploads/f1.pdf"}}).WithContext(ctx)

	h.Analyze(c)

	assert.NoError(t, runCtxErr)
	assert.Empty(t, parseEvents(t, w.Body.String()))
	mockSvc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_InvalidBody(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, time.Minute)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalysisHandler_Analyze_EmptyFiles(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, time.Minute)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = analyzeRequest(t, nil)

	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_FILES", resp.Error.Code)
}

func exportReport() domain.CreditReport {
	pages := 1
	return domain.CreditReport{
		Score:            72,
		Rating:           domain.RatingGood,
		Summary:          "Adequate.",
		Strengths:        []string{"a"},
		RiskFactors:      []string{"b"},
		Recommendations:  []string{"c"},
		DetailedAnalysis: domain.DetailedAnalysis{FinancialHealth: 65, CashFlow: 58, DebtManagement: 61, Compliance: 54},
		DocumentAnalysis: []domain.DocumentAnalysisResult{{
			DocumentID: "d1", DocumentName: "bs.pdf", DocumentType: domain.DocumentTypeBalanceSheet,
			Analysis: "Page 1: Assets", AnalysisMode: domain.AnalysisModeVisual, PageCount: &pages,
			Pages: []domain.PageAnalysisResult{{Page: 1, Analysis: "Assets"}},
		}},
		Metadata: domain.ReportMetadata{
			BatchID:       "abc123",
			DocumentCount: 1,
			GeneratedAt:   time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC),
			Source:        domain.ReportSourceModel,
		},
	}
}

func exportRequest(t *testing.T, query string) *http.Request {
	body, err := json.Marshal(exportReport())
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/reports/export"+query, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestReportHandler_Export_XLSX(t *testing.T) {
	h := handler.NewReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = exportRequest(t, "")

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reportexport.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="credit_report_abc123_2026-05-04.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	score, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "72", score)
}

func TestReportHandler_Export_CSV(t *testing.T) {
	h := handler.NewReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = exportRequest(t, "?format=CSV")

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reportexport.CSVContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), reportexport.BOM))
	assert.Contains(t, w.Body.String(), "bs.pdf")
}

func TestReportHandler_Export_InvalidFormat(t *testing.T) {
	h := handler.NewReportHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = exportRequest(t, "?format=pdf")

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_FORMAT", resp.Error.Code)
}

func TestHealthHandler(t *testing.T) {
	gw := new(mocks.MockModelGateway)
	h := handler.NewHealthHandler(gw)
	gw.On("ModelName").Return("test-model:7b")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	gw.On("CheckConnectivity", mock.Anything).Return(nil).Once()
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	h.Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-model:7b")

	gw.On("CheckConnectivity", mock.Anything).Return(domain.ErrConnectivity).Once()
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
