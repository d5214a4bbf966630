package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
)

// studentColumns selects the scalar columns of one student row, aliasing the
// flattened address and guardian columns into their nested structs.
const studentColumns = `id, nis, nisn, nik, full_name, gender, birth_place, birth_date, phone,
       address_street AS "address.street", address_village AS "address.village",
       address_district AS "address.district", address_regency AS "address.regency",
       address_postal_code AS "address.postal_code",
       father_name AS "father.name", father_nik AS "father.nik",
       father_occupation AS "father.occupation", father_phone AS "father.phone",
       mother_name AS "mother.name", mother_nik AS "mother.nik",
       mother_occupation AS "mother.occupation", mother_phone AS "mother.phone",
       wali_name AS "wali.name", wali_nik AS "wali.nik",
       wali_occupation AS "wali.occupation", wali_phone AS "wali.phone",
       active, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters plus the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, int, error) {
	base := "FROM students"
	args := make([]interface{}, 0, 3)
	conditions := []string{"1=1"}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR nis LIKE $%d OR nisn LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"nis":        "nis",
		"nisn":       "nisn",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d",
		studentColumns, base, column, order, size, offset)

	var students []models.StudentRecord
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches the scalar part of one student record. Collections are
// loaded separately by their repositories.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var record models.StudentRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ExistsByNISN checks whether the national student number is already taken,
// optionally excluding one record.
func (r *StudentRepository) ExistsByNISN(ctx context.Context, nisn string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE nisn = $1"
	args := []interface{}{nisn}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check nisn: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, record *models.StudentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO students
	(id, nis, nisn, nik, full_name, gender, birth_place, birth_date, phone,
	 address_street, address_village, address_district, address_regency, address_postal_code,
	 father_name, father_nik, father_occupation, father_phone,
	 mother_name, mother_nik, mother_occupation, mother_phone,
	 wali_name, wali_nik, wali_occupation, wali_phone,
	 active, created_at, updated_at)
	VALUES (:id, :nis, :nisn, :nik, :full_name, :gender, :birth_place, :birth_date, :phone,
	 :address.street, :address.village, :address.district, :address.regency, :address.postal_code,
	 :father.name, :father.nik, :father.occupation, :father.phone,
	 :mother.name, :mother.nik, :mother.occupation, :mother.phone,
	 :wali.name, :wali.nik, :wali.occupation, :wali.phone,
	 :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update persists the scalar fields of an existing record.
func (r *StudentRepository) Update(ctx context.Context, record *models.StudentRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET
	 nik = :nik, full_name = :full_name, gender = :gender, birth_place = :birth_place,
	 birth_date = :birth_date, phone = :phone,
	 address_street = :address.street, address_village = :address.village,
	 address_district = :address.district, address_regency = :address.regency,
	 address_postal_code = :address.postal_code,
	 father_name = :father.name, father_nik = :father.nik,
	 father_occupation = :father.occupation, father_phone = :father.phone,
	 mother_name = :mother.name, mother_nik = :mother.nik,
	 mother_occupation = :mother.occupation, mother_phone = :mother.phone,
	 wali_name = :wali.name, wali_nik = :wali.nik,
	 wali_occupation = :wali.occupation, wali_phone = :wali.phone,
	 active = :active, updated_at = :updated_at
	 WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Deactivate marks a student record as inactive without deleting history.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}
