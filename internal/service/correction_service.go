package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/fieldpath"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	"github.com/smpn3pacet/database-siswa-api/internal/repository"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

type correctionStore interface {
	Create(ctx context.Context, correction *models.CorrectionRequest) error
	GetByID(ctx context.Context, id string) (*models.CorrectionRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CorrectionRequest, error)
	ListPending(ctx context.Context) ([]models.CorrectionRequest, error)
	UpdateStatus(ctx context.Context, params repository.UpdateReviewParams) error
}

type correctionStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
	Update(ctx context.Context, record *models.StudentRecord) error
}

type auditLogger interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
}

type reportInvalidator interface {
	Invalidate(ctx context.Context, studentID string)
}

// CorrectionService orchestrates the field correction ledger: proposals with
// mandatory evidence, admin review, and approved-value writeback through the
// fieldpath accessor table.
type CorrectionService struct {
	corrections correctionStore
	students    correctionStudentStore
	audit       auditLogger
	reports     reportInvalidator
	logger      *zap.Logger
}

// NewCorrectionService constructs the service.
func NewCorrectionService(
	corrections correctionStore,
	students correctionStudentStore,
	audit auditLogger,
	reports reportInvalidator,
	logger *zap.Logger,
) *CorrectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorrectionService{
		corrections: corrections,
		students:    students,
		audit:       audit,
		reports:     reports,
		logger:      logger,
	}
}

// Propose opens a new correction request. A pending request already targeting
// the same field path is superseded so at most one stays pending per path;
// approved history for the path is untouched.
func (s *CorrectionService) Propose(ctx context.Context, studentID string, req dto.ProposeCorrectionRequest, evidence models.CorrectionEvidence, submittedBy string) (*models.CorrectionRequest, error) {
	if !fieldpath.Known(req.FieldPath) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown field path: %s", req.FieldPath))
	}
	proposed := strings.TrimSpace(req.ProposedValue)
	if proposed == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposed value is required")
	}
	if evidence.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "supporting evidence is required")
	}

	record, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	original, _ := fieldpath.Get(record, req.FieldPath)

	correction := &models.CorrectionRequest{
		StudentID:     studentID,
		FieldPath:     req.FieldPath,
		Label:         fieldpath.Label(req.FieldPath),
		OriginalValue: original,
		ProposedValue: proposed,
		Evidence:      evidence,
		Status:        models.CorrectionStatusPending,
		SubmittedBy:   submittedBy,
	}
	if err := s.corrections.Create(ctx, correction); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create correction request")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &submittedBy,
		Action:     models.AuditActionCorrectionPropose,
		Resource:   "correction",
		ResourceID: &correction.ID,
		NewValues:  mustJSON(map[string]string{"field_path": correction.FieldPath, "proposed_value": correction.ProposedValue}),
	})
	return correction, nil
}

// Approve resolves a pending request: the proposed value is written back into
// the student record at the target field path and the request becomes
// terminal. Non-pending requests yield a state conflict.
func (s *CorrectionService) Approve(ctx context.Context, requestID, note, reviewer string) (*models.CorrectionRequest, error) {
	correction, err := s.loadCorrection(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if correction.Status != models.CorrectionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "correction request already processed")
	}

	record, err := s.loadStudent(ctx, correction.StudentID)
	if err != nil {
		return nil, err
	}
	if !fieldpath.Set(record, correction.FieldPath, correction.ProposedValue) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown field path: %s", correction.FieldPath))
	}
	if err := s.students.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply correction")
	}

	now := time.Now().UTC()
	params := repository.UpdateReviewParams{
		ID:          correction.ID,
		Status:      models.CorrectionStatusApproved,
		ReviewedBy:  reviewer,
		ProcessedAt: now,
		Note:        optionalString(note),
	}
	if err := s.corrections.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStateConflict, "correction request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update correction request")
	}

	correction.Status = models.CorrectionStatusApproved
	correction.ReviewedBy = &reviewer
	correction.ProcessedAt = &now
	correction.Note = params.Note

	if s.reports != nil {
		s.reports.Invalidate(ctx, correction.StudentID)
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &reviewer,
		Action:     models.AuditActionCorrectionReview,
		Resource:   "correction",
		ResourceID: &correction.ID,
		OldValues:  mustJSON(map[string]string{correction.FieldPath: correction.OriginalValue}),
		NewValues:  mustJSON(map[string]string{correction.FieldPath: correction.ProposedValue}),
	})
	return correction, nil
}

// Reject closes a pending request without touching the record. The note is
// mandatory so the proposer learns why.
func (s *CorrectionService) Reject(ctx context.Context, requestID, note, reviewer string) (*models.CorrectionRequest, error) {
	if strings.TrimSpace(note) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection note is required")
	}
	correction, err := s.loadCorrection(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if correction.Status != models.CorrectionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "correction request already processed")
	}

	now := time.Now().UTC()
	params := repository.UpdateReviewParams{
		ID:          correction.ID,
		Status:      models.CorrectionStatusRejected,
		ReviewedBy:  reviewer,
		ProcessedAt: now,
		Note:        optionalString(note),
	}
	if err := s.corrections.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStateConflict, "correction request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update correction request")
	}

	correction.Status = models.CorrectionStatusRejected
	correction.ReviewedBy = &reviewer
	correction.ProcessedAt = &now
	correction.Note = params.Note

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &reviewer,
		Action:     models.AuditActionCorrectionReview,
		Resource:   "correction",
		ResourceID: &correction.ID,
		NewValues:  mustJSON(map[string]string{"status": string(models.CorrectionStatusRejected), "note": note}),
	})
	return correction, nil
}

// ListByStudent returns the full ledger of one student.
func (s *CorrectionService) ListByStudent(ctx context.Context, studentID string) ([]models.CorrectionRequest, error) {
	corrections, err := s.corrections.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list corrections")
	}
	return corrections, nil
}

// ListPending returns the admin review queue across all students.
func (s *CorrectionService) ListPending(ctx context.Context) ([]models.CorrectionRequest, error) {
	corrections, err := s.corrections.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending corrections")
	}
	return corrections, nil
}

// CorrectableFields lists the closed accessor table with current values and
// pending markers, the data the correction form is built from.
func (s *CorrectionService) CorrectableFields(ctx context.Context, studentID string) ([]dto.CorrectableFieldResponse, error) {
	record, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	corrections, err := s.corrections.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list corrections")
	}

	fields := make([]dto.CorrectableFieldResponse, 0, len(fieldpath.Paths()))
	for _, path := range fieldpath.Paths() {
		value, _ := fieldpath.Get(record, path)
		fields = append(fields, dto.CorrectableFieldResponse{
			FieldPath:    path,
			Label:        fieldpath.Label(path),
			CurrentValue: value,
			HasPending:   models.FindPendingCorrection(corrections, path) != nil,
		})
	}
	return fields, nil
}

func (s *CorrectionService) loadCorrection(ctx context.Context, id string) (*models.CorrectionRequest, error) {
	correction, err := s.corrections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load correction request")
	}
	return correction, nil
}

func (s *CorrectionService) loadStudent(ctx context.Context, id string) (*models.StudentRecord, error) {
	record, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return record, nil
}

func (s *CorrectionService) emitAudit(ctx context.Context, entry *models.AuditLog) {
	if s.audit == nil || entry == nil {
		return
	}
	entry.IPAddress = "system"
	entry.UserAgent = "correction-service"
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mustJSON(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}
