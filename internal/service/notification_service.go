package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
	"github.com/smpn3pacet/database-siswa-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, msg *models.NotificationMessage) error
	ListByStudent(ctx context.Context, studentID string) ([]models.NotificationMessage, error)
	MarkRead(ctx context.Context, id string) error
	CountUnread(ctx context.Context, studentID string) (int, error)
}

type gapReporter interface {
	Report(ctx context.Context, studentID string, semester int) (*dto.CompletenessReport, error)
}

type deliveryQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationDeliveryJob is the payload handed to the delivery worker.
type NotificationDeliveryJob struct {
	NotificationID string `json:"notification_id"`
	StudentID      string `json:"student_id"`
	Content        string `json:"content"`
}

// NotificationService maintains the append-only per-student message log the
// admin uses to flag missing data. Outbound delivery runs through the job
// queue; a delivery failure never affects the appended entry.
type NotificationService struct {
	repo    notificationStore
	reports gapReporter
	queue   deliveryQueue
	logger  *zap.Logger
}

// NewNotificationService constructs the service. Queue is optional.
func NewNotificationService(repo notificationStore, reports gapReporter, queue deliveryQueue, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, reports: reports, queue: queue, logger: logger}
}

// Create appends one message. An empty content composes the message from the
// student's current completeness gaps.
func (s *NotificationService) Create(ctx context.Context, studentID string, req dto.CreateNotificationRequest, semester int, createdBy string) (*models.NotificationMessage, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		if s.reports == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "content is required")
		}
		report, err := s.reports.Report(ctx, studentID, semester)
		if err != nil {
			return nil, err
		}
		content = ComposeGapMessage(report)
		if content == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "record is complete, nothing to flag")
		}
	}

	msg := &models.NotificationMessage{
		StudentID: studentID,
		Content:   content,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	if s.queue != nil {
		job := jobs.Job{
			ID:   msg.ID,
			Type: "notification.deliver",
			Payload: NotificationDeliveryJob{
				NotificationID: msg.ID,
				StudentID:      msg.StudentID,
				Content:        msg.Content,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue notification delivery", zap.Error(err), zap.String("notification_id", msg.ID))
		}
	}
	return msg, nil
}

// ListByStudent returns the log newest first.
func (s *NotificationService) ListByStudent(ctx context.Context, studentID string) ([]models.NotificationMessage, error) {
	messages, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return messages, nil
}

// MarkRead flips the read toggle.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// CountUnread returns the unread badge count.
func (s *NotificationService) CountUnread(ctx context.Context, studentID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// ComposeGapMessage renders the completeness gaps of one report as the
// message the admin sends to the family. Empty when nothing is missing.
func ComposeGapMessage(report *dto.CompletenessReport) string {
	if report == nil {
		return ""
	}
	var items []string
	for _, gap := range report.FieldGaps {
		items = append(items, gap.Label)
	}
	for _, gap := range report.DocumentGaps {
		items = append(items, gap.Label)
	}
	if report.RaporGap != nil {
		items = append(items, fmt.Sprintf("Halaman rapor semester %d (%d dari %d)",
			report.RaporGap.Semester, report.RaporGap.Uploaded, report.RaporGap.Expected))
	}
	if len(items) == 0 {
		return ""
	}
	return fmt.Sprintf("Mohon lengkapi data berikut: %s.", strings.Join(items, ", "))
}
