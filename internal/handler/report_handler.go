package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"creditscope/internal/domain"
	"creditscope/internal/reportexport"
)

// ReportHandler handles report export endpoints.
type ReportHandler struct{}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler() *ReportHandler {
	return &ReportHandler{}
}

// Export handles POST /api/v1/reports/export
// @Summary Export a credit report
// @Description Renders a credit report as an XLSX workbook (default) or a CSV of per-document results.
// @Tags reports
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param format query string false "Output format: xlsx or csv"
// @Param body body domain.CreditReport true "Credit report"
// @Success 200 {file} file "Report file"
// @Failure 400 {object} APIResponse "Invalid report or format"
// @Router /reports/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))
	if format != "xlsx" && format != "csv" {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx or csv")
		return
	}

	var report domain.CreditReport
	if err := c.ShouldBindJSON(&report); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a credit report")
		return
	}

	var buf bytes.Buffer
	contentType := reportexport.XLSXContentType
	var err error
	if format == "csv" {
		contentType = reportexport.CSVContentType
		err = reportexport.WriteCSV(&buf, &report)
	} else {
		err = reportexport.WriteXLSX(&buf, &report)
	}
	if err != nil {
		HandleError(c, fmt.Errorf("rendering %s export: %w", format, err))
		return
	}

	filename := reportexport.BuildFilename(report.Metadata.BatchID, report.Metadata.GeneratedAt, format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
