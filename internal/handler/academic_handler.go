package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
	"github.com/smpn3pacet/database-siswa-api/internal/service"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
	"github.com/smpn3pacet/database-siswa-api/pkg/response"
)

// AcademicHandler handles semester report endpoints.
type AcademicHandler struct {
	service *service.AcademicService
}

// NewAcademicHandler constructs an academic handler.
func NewAcademicHandler(svc *service.AcademicService) *AcademicHandler {
	return &AcademicHandler{service: svc}
}

// List godoc
// @Summary List a student's semester reports
// @Tags Academics
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/academics [get]
func (h *AcademicHandler) List(c *gin.Context) {
	records, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Upsert godoc
// @Summary Store one semester report
// @Tags Academics
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.AcademicRecord true "Semester report"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/academics [put]
func (h *AcademicHandler) Upsert(c *gin.Context) {
	var record models.AcademicRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid academic payload"))
		return
	}
	stored, err := h.service.Upsert(c.Request.Context(), c.Param("id"), &record)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stored, nil)
}
