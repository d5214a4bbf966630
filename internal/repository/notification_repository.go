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

// NotificationRepository persists the append-only notification log.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends one message to a student's log.
func (r *NotificationRepository) Create(ctx context.Context, msg *models.NotificationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, student_id, content, read, created_by, created_at)
	VALUES (:id, :student_id, :content, :read, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByStudent returns the log newest first.
func (r *NotificationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.NotificationMessage, error) {
	const query = `SELECT id, student_id, content, read, created_by, created_at
	FROM notifications WHERE student_id = $1 ORDER BY created_at DESC`
	var messages []models.NotificationMessage
	if err := r.db.SelectContext(ctx, &messages, query, studentID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return messages, nil
}

// MarkRead flips the read toggle on one message.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET read = true WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check notification update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountUnread returns the unread badge count for one student.
func (r *NotificationRepository) CountUnread(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE student_id = $1 AND read = false`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
