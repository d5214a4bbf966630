package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
)

// AcademicRepository persists semester reports and their subject grades.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository constructs the repository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// ListByStudent loads all semester records of one student keyed by semester,
// subjects included.
func (r *AcademicRepository) ListByStudent(ctx context.Context, studentID string) (map[int]*models.AcademicRecord, error) {
	const recordQuery = `SELECT id, student_id, semester, sick, permitted, unexcused, promotion, created_at, updated_at
	FROM academic_records WHERE student_id = $1 ORDER BY semester`
	var records []models.AcademicRecord
	if err := r.db.SelectContext(ctx, &records, recordQuery, studentID); err != nil {
		return nil, fmt.Errorf("list academic records: %w", err)
	}
	if len(records) == 0 {
		return map[int]*models.AcademicRecord{}, nil
	}

	const subjectQuery = `SELECT g.id, g.subject, g.knowledge, g.skill, g.record_id
	FROM subject_grades g
	JOIN academic_records a ON a.id = g.record_id
	WHERE a.student_id = $1 ORDER BY g.subject`
	var grades []struct {
		models.SubjectGrade
		RecordID string `db:"record_id"`
	}
	if err := r.db.SelectContext(ctx, &grades, subjectQuery, studentID); err != nil {
		return nil, fmt.Errorf("list subject grades: %w", err)
	}

	byID := make(map[string]*models.AcademicRecord, len(records))
	bySemester := make(map[int]*models.AcademicRecord, len(records))
	for i := range records {
		rec := &records[i]
		byID[rec.ID] = rec
		bySemester[rec.Semester] = rec
	}
	for _, g := range grades {
		if rec, ok := byID[g.RecordID]; ok {
			rec.Subjects = append(rec.Subjects, g.SubjectGrade)
		}
	}
	return bySemester, nil
}

// Upsert stores one semester record, replacing its subject grades.
func (r *AcademicRepository) Upsert(ctx context.Context, record *models.AcademicRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin academic upsert: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO academic_records (id, student_id, semester, sick, permitted, unexcused, promotion, created_at, updated_at)
	VALUES (:id, :student_id, :semester, :sick, :permitted, :unexcused, :promotion, :created_at, :updated_at)
	ON CONFLICT (student_id, semester) DO UPDATE SET
	 sick = EXCLUDED.sick, permitted = EXCLUDED.permitted, unexcused = EXCLUDED.unexcused,
	 promotion = EXCLUDED.promotion, updated_at = EXCLUDED.updated_at
	RETURNING id`
	rows, err := tx.NamedQuery(query, record)
	if err != nil {
		return fmt.Errorf("upsert academic record: %w", err)
	}
	if rows.Next() {
		if err := rows.Scan(&record.ID); err != nil {
			rows.Close()
			return fmt.Errorf("scan academic record id: %w", err)
		}
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_grades WHERE record_id = $1`, record.ID); err != nil {
		return fmt.Errorf("clear subject grades: %w", err)
	}
	const gradeQuery = `INSERT INTO subject_grades (id, record_id, subject, knowledge, skill)
	VALUES ($1, $2, $3, $4, $5)`
	for i := range record.Subjects {
		g := &record.Subjects[i]
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, gradeQuery, g.ID, record.ID, g.Subject, g.Knowledge, g.Skill); err != nil {
			return fmt.Errorf("insert subject grade: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit academic upsert: %w", err)
	}
	return nil
}
