package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/service"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
	"github.com/smpn3pacet/database-siswa-api/pkg/response"
)

// NotificationHandler handles the per-student notification log endpoints.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// Create godoc
// @Summary Append a notification to a student's log
// @Description Empty content composes the message from the current completeness gaps
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.CreateNotificationRequest false "Message content"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	// Body is optional: an empty request composes the gap message.
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}
	msg, err := h.service.Create(c.Request.Context(), c.Param("id"), req, semesterQuery(c), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewNotificationResponse(*msg))
}

// List godoc
// @Summary List a student's notifications
// @Tags Notifications
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	messages, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewNotificationResponses(messages), nil)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CountUnread godoc
// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/notifications/unread-count [get]
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	count, err := h.service.CountUnread(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}
