package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"creditscope/internal/service"
)

// UploadHandler handles file upload endpoints.
type UploadHandler struct {
	uploadService service.UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload handles POST /api/v1/upload
// @Summary Upload documents for analysis
// @Description Upload one or more documents (PDF, spreadsheet, word processor, CSV, text or image). An optional documentTypes value per file, in the same order, sets the document type hint.
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files to upload"
// @Param documentTypes formData string false "Document type hint per file"
// @Success 201 {object} APIResponse{data=[]domain.UploadedFile} "Files stored"
// @Failure 400 {object} APIResponse "Missing files or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "multipart form with a files field is required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "files field is required")
		return
	}
	types := form.Value["documentTypes"]

	inputs := make([]service.FileUploadInput, 0, len(headers))
	defer func() {
		for _, in := range inputs {
			_ = in.File.Close()
		}
	}()
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file "+fh.Filename)
			return
		}
		in := service.FileUploadInput{File: f, Header: fh}
		if i < len(types) {
			in.DocumentType = types[i]
		}
		inputs = append(inputs, in)
	}

	files, err := h.uploadService.Upload(c.Request.Context(), inputs)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, files)
}
