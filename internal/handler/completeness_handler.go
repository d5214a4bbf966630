package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smpn3pacet/database-siswa-api/internal/service"
	"github.com/smpn3pacet/database-siswa-api/pkg/response"
)

// CompletenessHandler exposes the completeness analyzer.
type CompletenessHandler struct {
	service *service.CompletenessService
}

// NewCompletenessHandler constructs a completeness handler.
func NewCompletenessHandler(svc *service.CompletenessService) *CompletenessHandler {
	return &CompletenessHandler{service: svc}
}

// Report godoc
// @Summary Completeness report for one student
// @Tags Completeness
// @Produce json
// @Param id path string true "Student ID"
// @Param semester query int false "Semester, defaults to 1"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/completeness [get]
func (h *CompletenessHandler) Report(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context(), c.Param("id"), semesterQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
