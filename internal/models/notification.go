package models

import "time"

// NotificationMessage is one entry of the append-only per-student log the
// admin uses to flag missing data. No workflow beyond the read toggle.
type NotificationMessage struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Content   string    `db:"content" json:"content"`
	Read      bool      `db:"read" json:"read"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
