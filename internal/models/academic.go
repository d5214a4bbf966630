package models

import "time"

// PromotionStatus records the end-of-year decision for a semester pair.
type PromotionStatus string

const (
	PromotionPending  PromotionStatus = "PENDING"
	PromotionPromoted PromotionStatus = "PROMOTED"
	PromotionRetained PromotionStatus = "RETAINED"
)

// SubjectGrade is one graded subject inside a semester report.
type SubjectGrade struct {
	ID        string  `db:"id" json:"id"`
	Subject   string  `db:"subject" json:"subject"`
	Knowledge float64 `db:"knowledge" json:"knowledge"`
	Skill     float64 `db:"skill" json:"skill"`
}

// AcademicRecord holds one semester of grades and attendance counters.
// Read-only input to the completeness analyzer; grade entry happens upstream.
type AcademicRecord struct {
	ID        string          `db:"id" json:"id"`
	StudentID string          `db:"student_id" json:"student_id"`
	Semester  int             `db:"semester" json:"semester"`
	Sick      int             `db:"sick" json:"sick"`
	Permitted int             `db:"permitted" json:"permitted"`
	Unexcused int             `db:"unexcused" json:"unexcused"`
	Promotion PromotionStatus `db:"promotion" json:"promotion"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`

	Subjects []SubjectGrade `db:"-" json:"subjects"`
}
