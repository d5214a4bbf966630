package dto

import (
	"time"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
)

// CreateStudentRequest registers a new student record. Fields the family has
// not provided yet may carry intake placeholders and are filled later through
// the correction workflow.
type CreateStudentRequest struct {
	NIS        string          `json:"nis" validate:"required"`
	NISN       string          `json:"nisn" validate:"required,len=10,numeric"`
	NIK        string          `json:"nik" validate:"omitempty,len=16,numeric"`
	FullName   string          `json:"full_name" validate:"required,min=2,max=100"`
	Gender     string          `json:"gender" validate:"required,oneof=L P"`
	BirthPlace string          `json:"birth_place"`
	BirthDate  time.Time       `json:"birth_date" validate:"required"`
	Phone      string          `json:"phone"`
	Address    models.Address  `json:"address"`
	Father     models.Guardian `json:"father"`
	Mother     models.Guardian `json:"mother"`
	Wali       models.Guardian `json:"wali"`
}

// UpdateStudentRequest is the staff-side direct edit of scalar fields.
// Nil pointers leave the stored value untouched.
type UpdateStudentRequest struct {
	NIK        *string          `json:"nik" validate:"omitempty,len=16,numeric"`
	FullName   *string          `json:"full_name" validate:"omitempty,min=2,max=100"`
	Gender     *string          `json:"gender" validate:"omitempty,oneof=L P"`
	BirthPlace *string          `json:"birth_place"`
	BirthDate  *time.Time       `json:"birth_date"`
	Phone      *string          `json:"phone"`
	Address    *models.Address  `json:"address"`
	Father     *models.Guardian `json:"father"`
	Mother     *models.Guardian `json:"mother"`
	Wali       *models.Guardian `json:"wali"`
}

// StudentListItem is one row of the paginated student index, carrying the
// overall completeness percent alongside the identity columns.
type StudentListItem struct {
	ID       string `json:"id"`
	NIS      string `json:"nis"`
	NISN     string `json:"nisn"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
	Active   bool   `json:"active"`
	Overall  int    `json:"overall"`
	GapCount int    `json:"gap_count"`
}

// StudentListResponse pairs the rows with pagination metadata.
type StudentListResponse struct {
	Students   []StudentListItem  `json:"students"`
	Pagination *models.Pagination `json:"pagination"`
}
