package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	"github.com/smpn3pacet/database-siswa-api/internal/service"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
	"github.com/smpn3pacet/database-siswa-api/pkg/response"
)

type evidenceStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// CorrectionHandler handles the field correction ledger endpoints.
type CorrectionHandler struct {
	service *service.CorrectionService
	storage evidenceStorage
}

// NewCorrectionHandler constructs a correction handler.
func NewCorrectionHandler(svc *service.CorrectionService, storage evidenceStorage) *CorrectionHandler {
	return &CorrectionHandler{service: svc, storage: storage}
}

// Propose godoc
// @Summary Propose a field correction
// @Tags Corrections
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Student ID"
// @Param field_path formData string true "Target field path"
// @Param proposed_value formData string true "Proposed value"
// @Param evidence formData file true "Supporting evidence"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/corrections [post]
func (h *CorrectionHandler) Propose(c *gin.Context) {
	var req dto.ProposeCorrectionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid correction payload"))
		return
	}

	evidence, err := h.saveEvidence(c, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	correction, err := h.service.Propose(c.Request.Context(), c.Param("id"), req, evidence, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewCorrectionResponse(*correction))
}

// ListByStudent godoc
// @Summary List a student's correction ledger
// @Tags Corrections
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/corrections [get]
func (h *CorrectionHandler) ListByStudent(c *gin.Context) {
	corrections, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCorrectionResponses(corrections), nil)
}

// ListPending godoc
// @Summary List the pending review queue
// @Tags Corrections
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /corrections/pending [get]
func (h *CorrectionHandler) ListPending(c *gin.Context) {
	corrections, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCorrectionResponses(corrections), nil)
}

// Approve godoc
// @Summary Approve a correction and write the value back
// @Tags Corrections
// @Accept json
// @Produce json
// @Param id path string true "Correction ID"
// @Param payload body dto.ReviewCorrectionRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /corrections/{id}/approve [post]
func (h *CorrectionHandler) Approve(c *gin.Context) {
	var req dto.ReviewCorrectionRequest
	_ = c.ShouldBindJSON(&req)
	correction, err := h.service.Approve(c.Request.Context(), c.Param("id"), req.Note, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCorrectionResponse(*correction), nil)
}

// Reject godoc
// @Summary Reject a correction with a note
// @Tags Corrections
// @Accept json
// @Produce json
// @Param id path string true "Correction ID"
// @Param payload body dto.ReviewCorrectionRequest true "Rejection note"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /corrections/{id}/reject [post]
func (h *CorrectionHandler) Reject(c *gin.Context) {
	var req dto.ReviewCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	correction, err := h.service.Reject(c.Request.Context(), c.Param("id"), req.Note, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCorrectionResponse(*correction), nil)
}

// CorrectableFields godoc
// @Summary List correctable field paths with current values
// @Tags Corrections
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/correctable-fields [get]
func (h *CorrectionHandler) CorrectableFields(c *gin.Context) {
	fields, err := h.service.CorrectableFields(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fields, nil)
}

func (h *CorrectionHandler) saveEvidence(c *gin.Context, studentID string) (models.CorrectionEvidence, error) {
	fileHeader, err := c.FormFile("evidence")
	if err != nil {
		// The service rejects evidence-less proposals with its own message.
		return models.CorrectionEvidence{}, nil
	}
	file, err := fileHeader.Open()
	if err != nil {
		return models.CorrectionEvidence{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read evidence")
	}
	defer file.Close() //nolint:errcheck

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	filename := filepath.Join("corrections", studentID, fmt.Sprintf("%s%s", uuid.NewString(), ext))
	path, err := h.storage.SaveStream(filename, file)
	if err != nil {
		return models.CorrectionEvidence{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist evidence")
	}

	kind := models.MediaImage
	if strings.Contains(strings.ToLower(fileHeader.Header.Get("Content-Type")), "pdf") || ext == ".pdf" {
		kind = models.MediaPDF
	}
	return models.CorrectionEvidence{FilePath: path, Name: fileHeader.Filename, MediaKind: kind}, nil
}
