package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"creditscope/internal/domain"
	"creditscope/internal/progress"
	"creditscope/internal/service"
)

// AnalyzeRequest is the body of an analysis request.
type AnalyzeRequest struct {
	Files []domain.UploadedFile `json:"files"`
}

// AnalysisHandler streams analysis progress over server-sent events.
type AnalysisHandler struct {
	analysisService service.AnalysisService
	timeout         time.Duration
}

// NewAnalysisHandler creates a new AnalysisHandler. timeout bounds one batch.
func NewAnalysisHandler(analysisService service.AnalysisService, timeout time.Duration) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService, timeout: timeout}
}

// Analyze handles POST /api/v1/analyze
// @Summary Analyze uploaded documents
// @Description Runs the analysis pipeline over previously uploaded files and streams progress events. The stream ends with one result or error event.
// @Tags analysis
// @Accept json
// @Produce text/event-stream
// @Param body body AnalyzeRequest true "Uploaded files"
// @Success 200 {object} progress.Event "Event stream"
// @Failure 400 {object} APIResponse "No files"
// @Router /analyze [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON with a files array")
		return
	}
	if len(req.Files) == 0 {
		HandleError(c, domain.ErrNoFiles)
		return
	}

	// The batch is not tied to the client connection; it always runs to a
	// terminal event.
	ctx := context.WithoutCancel(c.Request.Context())
	cancel := func() {}
	if h.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
	}

	emitter := progress.NewEmitter(progress.DefaultBuffer)
	go func() {
		defer cancel()
		h.analysisService.Run(ctx, req.Files, emitter)
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	requestID, _ := c.Get("request_id")
	clientGone := false
	for ev := range emitter.Events() {
		if clientGone {
			continue
		}
		if err := c.Request.Context().Err(); err != nil {
			log.Printf("[%s] client disconnected, draining analysis events", requestID)
			clientGone = true
			continue
		}
		if err := sse.Encode(c.Writer, sse.Event{Data: ev}); err != nil {
			log.Printf("[%s] writing event failed, draining analysis events: %v", requestID, err)
			clientGone = true
			continue
		}
		c.Writer.Flush()
	}
}
