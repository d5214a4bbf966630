package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

type academicStore interface {
	ListByStudent(ctx context.Context, studentID string) (map[int]*models.AcademicRecord, error)
	Upsert(ctx context.Context, record *models.AcademicRecord) error
}

// AcademicService manages semester reports. Grade entry happens here; the
// completeness analyzer only reads the result.
type AcademicService struct {
	repo     academicStore
	students documentStudentStore
	reports  reportInvalidator
	logger   *zap.Logger
}

// NewAcademicService constructs the service.
func NewAcademicService(repo academicStore, students documentStudentStore, reports reportInvalidator, logger *zap.Logger) *AcademicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{repo: repo, students: students, reports: reports, logger: logger}
}

// ListByStudent returns all semester records keyed by semester.
func (s *AcademicService) ListByStudent(ctx context.Context, studentID string) (map[int]*models.AcademicRecord, error) {
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic records")
	}
	return records, nil
}

// Upsert stores one semester report, replacing its subject grades.
func (s *AcademicService) Upsert(ctx context.Context, studentID string, record *models.AcademicRecord) (*models.AcademicRecord, error) {
	if record.Semester < models.SemesterMin || record.Semester > models.SemesterMax {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("semester must be between %d and %d", models.SemesterMin, models.SemesterMax))
	}
	for _, subject := range record.Subjects {
		if subject.Subject == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject name is required")
		}
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	record.StudentID = studentID
	if record.Promotion == "" {
		record.Promotion = models.PromotionPending
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store academic record")
	}
	if s.reports != nil {
		s.reports.Invalidate(ctx, studentID)
	}
	return record, nil
}
