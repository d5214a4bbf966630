package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
)

const correctionColumns = `id, student_id, field_path, label, original_value, proposed_value,
       evidence_file_path AS "evidence.file_path", evidence_name AS "evidence.name",
       evidence_media_kind AS "evidence.media_kind",
       status, note, submitted_by, reviewed_by, submitted_at, processed_at`

// CorrectionRepository persists the field correction ledger.
type CorrectionRepository struct {
	db *sqlx.DB
}

// NewCorrectionRepository constructs the repository.
func NewCorrectionRepository(db *sqlx.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

// Create inserts a new correction request. A pending request for the same
// field path is superseded (deleted) in the same transaction so at most one
// pending entry exists per path.
func (r *CorrectionRepository) Create(ctx context.Context, correction *models.CorrectionRequest) error {
	if correction.ID == "" {
		correction.ID = uuid.NewString()
	}
	if correction.Status == "" {
		correction.Status = models.CorrectionStatusPending
	}
	if correction.SubmittedAt.IsZero() {
		correction.SubmittedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create correction: %w", err)
	}
	defer tx.Rollback()

	const supersede = `DELETE FROM corrections WHERE student_id = $1 AND field_path = $2 AND status = $3`
	if _, err := tx.ExecContext(ctx, supersede, correction.StudentID, correction.FieldPath, models.CorrectionStatusPending); err != nil {
		return fmt.Errorf("supersede pending correction: %w", err)
	}

	const query = `INSERT INTO corrections
	(id, student_id, field_path, label, original_value, proposed_value,
	 evidence_file_path, evidence_name, evidence_media_kind,
	 status, note, submitted_by, reviewed_by, submitted_at, processed_at)
	VALUES (:id, :student_id, :field_path, :label, :original_value, :proposed_value,
	 :evidence.file_path, :evidence.name, :evidence.media_kind,
	 :status, :note, :submitted_by, :reviewed_by, :submitted_at, :processed_at)`
	if _, err := tx.NamedExecContext(ctx, query, correction); err != nil {
		return fmt.Errorf("create correction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create correction: %w", err)
	}
	return nil
}

// GetByID fetches a correction by identifier.
func (r *CorrectionRepository) GetByID(ctx context.Context, id string) (*models.CorrectionRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM corrections WHERE id = $1", correctionColumns)
	var correction models.CorrectionRequest
	if err := r.db.GetContext(ctx, &correction, query, id); err != nil {
		return nil, err
	}
	return &correction, nil
}

// ListByStudent returns the full ledger of one student, newest first.
func (r *CorrectionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CorrectionRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM corrections WHERE student_id = $1 ORDER BY submitted_at DESC", correctionColumns)
	var corrections []models.CorrectionRequest
	if err := r.db.SelectContext(ctx, &corrections, query, studentID); err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	return corrections, nil
}

// ListPending returns the admin review queue across all students, oldest
// first so long-waiting proposals surface on top.
func (r *CorrectionRepository) ListPending(ctx context.Context) ([]models.CorrectionRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM corrections WHERE status = $1 ORDER BY submitted_at", correctionColumns)
	var corrections []models.CorrectionRequest
	if err := r.db.SelectContext(ctx, &corrections, query, models.CorrectionStatusPending); err != nil {
		return nil, fmt.Errorf("list pending corrections: %w", err)
	}
	return corrections, nil
}

// UpdateReviewParams groups mutable columns for review operations.
type UpdateReviewParams struct {
	ID          string
	Status      models.CorrectionStatus
	ReviewedBy  string
	ProcessedAt time.Time
	Note        *string
}

// UpdateStatus persists a review outcome. The guard on the pending status
// makes the terminal transition happen at most once; a second reviewer gets
// sql.ErrNoRows.
func (r *CorrectionRepository) UpdateStatus(ctx context.Context, params UpdateReviewParams) error {
	query := fmt.Sprintf(`UPDATE corrections SET status = :status, reviewed_by = :reviewed_by,
	processed_at = :processed_at, note = :note WHERE id = :id AND status = '%s'`, models.CorrectionStatusPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":           params.ID,
		"status":       params.Status,
		"reviewed_by":  params.ReviewedBy,
		"processed_at": params.ProcessedAt,
		"note":         params.Note,
	})
	if err != nil {
		return fmt.Errorf("update correction status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check correction update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
