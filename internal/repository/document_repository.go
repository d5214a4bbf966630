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

const documentColumns = `id, student_id, name, media_kind, file_path, category, semester, page,
       status, review_note, size_bytes, uploaded_by, uploaded_at`

// DocumentRepository persists uploaded document rows.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Insert stores a new document row.
func (r *DocumentRepository) Insert(ctx context.Context, doc *models.DocumentEntity) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents
	(id, student_id, name, media_kind, file_path, category, semester, page, status, review_note, size_bytes, uploaded_by, uploaded_at)
	VALUES (:id, :student_id, :name, :media_kind, :file_path, :category, :semester, :page, :status, :review_note, :size_bytes, :uploaded_by, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// ReplaceSlot removes whatever occupied the document's slot and inserts the
// new row in one transaction. It returns the file paths of the displaced rows
// so the caller can clean up storage.
func (r *DocumentRepository) ReplaceSlot(ctx context.Context, doc *models.DocumentEntity) ([]string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin replace slot: %w", err)
	}
	defer tx.Rollback()

	var displaced []string
	if doc.Category == models.CategoryRapor {
		const del = `DELETE FROM documents WHERE student_id = $1 AND category = $2 AND semester = $3 AND page = $4 RETURNING file_path`
		err = tx.SelectContext(ctx, &displaced, del, doc.StudentID, doc.Category, doc.Semester, doc.Page)
	} else {
		const del = `DELETE FROM documents WHERE student_id = $1 AND category = $2 RETURNING file_path`
		err = tx.SelectContext(ctx, &displaced, del, doc.StudentID, doc.Category)
	}
	if err != nil {
		return nil, fmt.Errorf("clear document slot: %w", err)
	}

	const ins = `INSERT INTO documents
	(id, student_id, name, media_kind, file_path, category, semester, page, status, review_note, size_bytes, uploaded_by, uploaded_at)
	VALUES (:id, :student_id, :name, :media_kind, :file_path, :category, :semester, :page, :status, :review_note, :size_bytes, :uploaded_by, :uploaded_at)`
	if _, err := tx.NamedExecContext(ctx, ins, doc); err != nil {
		return nil, fmt.Errorf("insert replacement document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace slot: %w", err)
	}
	return displaced, nil
}

// GetByID fetches a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.DocumentEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)
	var doc models.DocumentEntity
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByStudent returns all documents for one student, rapor pages last and
// ordered by their grid position.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.DocumentEntity, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE student_id = $1
	ORDER BY category, semester NULLS FIRST, page NULLS FIRST, uploaded_at`, documentColumns)
	var docs []models.DocumentEntity
	if err := r.db.SelectContext(ctx, &docs, query, studentID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// UpdateStatus records a verification decision on one document. The guard on
// the pending status makes a review happen at most once; a concurrent second
// reviewer gets sql.ErrNoRows.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, note *string) error {
	query := fmt.Sprintf(`UPDATE documents SET status = $2, review_note = $3 WHERE id = $1 AND status = '%s'`,
		models.DocumentStatusPending)
	result, err := r.db.ExecContext(ctx, query, id, status, note)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByID removes one document row and returns its file path for storage
// cleanup.
func (r *DocumentRepository) DeleteByID(ctx context.Context, id string) (string, error) {
	const query = `DELETE FROM documents WHERE id = $1 RETURNING file_path`
	var filePath string
	if err := r.db.GetContext(ctx, &filePath, query, id); err != nil {
		return "", err
	}
	return filePath, nil
}
