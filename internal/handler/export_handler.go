package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smpn3pacet/database-siswa-api/internal/service"
	"github.com/smpn3pacet/database-siswa-api/pkg/response"
)

// ExportHandler serves completeness recap downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// CompletenessRecap godoc
// @Summary Download the completeness recap
// @Tags Exports
// @Produce octet-stream
// @Param semester query int false "Semester, defaults to 1"
// @Param format query string false "csv or pdf, defaults to csv"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /exports/completeness [get]
func (h *ExportHandler) CompletenessRecap(c *gin.Context) {
	result, err := h.service.CompletenessRecap(c.Request.Context(), semesterQuery(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
