package dto

import "github.com/smpn3pacet/database-siswa-api/internal/models"

// CreateNotificationRequest appends one admin message to a student's log.
// When Content is empty the service composes a message from the student's
// current completeness gaps.
type CreateNotificationRequest struct {
	Content string `json:"content"`
}

// NotificationResponse is the API projection of one log entry.
type NotificationResponse struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Content   string `json:"content"`
	Read      bool   `json:"read"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

// NewNotificationResponse converts the log entry into the API shape.
func NewNotificationResponse(n models.NotificationMessage) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		StudentID: n.StudentID,
		Content:   n.Content,
		Read:      n.Read,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// NewNotificationResponses converts a slice preserving order.
func NewNotificationResponses(items []models.NotificationMessage) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NewNotificationResponse(n))
	}
	return out
}
