package models

import (
	"strings"
	"time"
)

// Guardian holds the biographical data of a parent or wali.
type Guardian struct {
	Name       string `db:"name" json:"name"`
	NIK        string `db:"nik" json:"nik"`
	Occupation string `db:"occupation" json:"occupation"`
	Phone      string `db:"phone" json:"phone"`
}

// Address holds the home address components of a student.
type Address struct {
	Street     string `db:"street" json:"street"`
	Village    string `db:"village" json:"village"`
	District   string `db:"district" json:"district"`
	Regency    string `db:"regency" json:"regency"`
	PostalCode string `db:"postal_code" json:"postal_code"`
}

// StudentRecord is the root aggregate for one enrolled student: scalar
// biographical fields plus the owned document, correction, notification and
// academic collections. The collections are loaded by the repository and are
// not columns of the students table.
type StudentRecord struct {
	ID         string    `db:"id" json:"id"`
	NIS        string    `db:"nis" json:"nis"`
	NISN       string    `db:"nisn" json:"nisn"`
	NIK        string    `db:"nik" json:"nik"`
	FullName   string    `db:"full_name" json:"full_name"`
	Gender     string    `db:"gender" json:"gender"`
	BirthPlace string    `db:"birth_place" json:"birth_place"`
	BirthDate  time.Time `db:"birth_date" json:"birth_date"`
	Phone      string    `db:"phone" json:"phone"`
	Address    Address   `db:"address" json:"address"`
	Father     Guardian  `db:"father" json:"father"`
	Mother     Guardian  `db:"mother" json:"mother"`
	Wali       Guardian  `db:"wali" json:"wali"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	AcademicRecords map[int]*AcademicRecord `db:"-" json:"academic_records,omitempty"`
	Documents       []DocumentEntity        `db:"-" json:"documents,omitempty"`
	Corrections     []CorrectionRequest     `db:"-" json:"corrections,omitempty"`
	Notifications   []NotificationMessage   `db:"-" json:"notifications,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Placeholder sentinels left by the intake operator for data the family has
// not provided yet. The analyzer treats them as missing.
var placeholderValues = map[string]struct{}{
	"":          {},
	"-":         {},
	"Nama Ayah": {},
	"Nama Ibu":  {},
	"Nama Wali": {},
	"Alamat":    {},
}

// IsPlaceholder reports whether a scalar value still carries an intake sentinel.
func IsPlaceholder(value string) bool {
	_, ok := placeholderValues[strings.TrimSpace(value)]
	return ok
}
